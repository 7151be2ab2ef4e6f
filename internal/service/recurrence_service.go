// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/teambition/rrule-go"
)

// RecurrenceService implements the domain.RecurrenceCalculator interface
type RecurrenceService struct{}

// NewRecurrenceService creates a new RecurrenceService
func NewRecurrenceService() *RecurrenceService {
	return &RecurrenceService{}
}

var _ domain.RecurrenceCalculator = (*RecurrenceService)(nil)

// NextOccurrence calculates the start of the occurrence following current.
// All arithmetic is on the wall clock of current's location, and the time of
// day is always preserved.
func (s *RecurrenceService) NextOccurrence(current time.Time, recurrence models.Recurrence) *time.Time {
	if recurrence.Frequency == nil {
		return nil
	}
	interval := recurrence.IntervalOrDefault()

	var next time.Time
	switch *recurrence.Frequency {
	case models.FrequencyDaily:
		next = current.AddDate(0, 0, interval)
	case models.FrequencyWeekly:
		target := time.Sunday
		if recurrence.DayOfWeek != nil {
			d, ok := models.ParseWeekday(*recurrence.DayOfWeek)
			if !ok {
				return nil
			}
			target = d
		}
		daysUntil := (int(target) - int(current.Weekday()) + 7) % 7
		if daysUntil == 0 {
			daysUntil = 7
		}
		next = current.AddDate(0, 0, daysUntil+(interval-1)*7)
	case models.FrequencyMonthly:
		next = s.nextMonthly(current, interval, recurrence.DayOfMonth)
	default:
		return nil
	}

	return &next
}

// nextMonthly moves current forward by interval months, clamping the day to
// the length of the target month.
func (s *RecurrenceService) nextMonthly(current time.Time, interval int, dayOfMonth *int) time.Time {
	year, month, day := current.Date()
	if dayOfMonth != nil {
		day = *dayOfMonth
	}

	// Day 1 never overflows, so this only normalizes the month.
	target := time.Date(year, month+time.Month(interval), 1, 0, 0, 0, 0, current.Location())
	day = min(day, daysIn(target.Year(), target.Month()))

	return time.Date(target.Year(), target.Month(), day,
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(),
		current.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// rruleWeekdays maps time.Weekday (Sunday=0) onto rrule weekdays.
var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ToRRule renders the recurrence as an RFC 5545 RRULE value, e.g.
// "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO". It returns an empty string for
// non-recurring meetings.
func (s *RecurrenceService) ToRRule(recurrence models.Recurrence) (string, error) {
	if recurrence.Frequency == nil {
		return "", nil
	}

	opt := rrule.ROption{Interval: recurrence.IntervalOrDefault()}
	switch *recurrence.Frequency {
	case models.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case models.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		if recurrence.DayOfWeek != nil {
			d, ok := models.ParseWeekday(*recurrence.DayOfWeek)
			if !ok {
				return "", domain.NewValidationError(fmt.Sprintf("invalid day of week %q", *recurrence.DayOfWeek))
			}
			opt.Byweekday = []rrule.Weekday{rruleWeekdays[d]}
		}
	case models.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		if recurrence.DayOfMonth != nil {
			opt.Bymonthday = []int{*recurrence.DayOfMonth}
		}
	default:
		return "", domain.NewValidationError(fmt.Sprintf("unsupported frequency %q", *recurrence.Frequency))
	}

	return opt.RRuleString(), nil
}

// FromRRule parses an RRULE value into a recurrence. Only the subset that the
// next-occurrence rules can express is accepted: DAILY, WEEKLY with at most one
// BYDAY, and MONTHLY with at most one positive BYMONTHDAY.
func (s *RecurrenceService) FromRRule(value string) (models.Recurrence, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "RRULE:")
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return models.Recurrence{}, domain.NewValidationError("invalid recurrence rule", err)
	}

	out := models.Recurrence{}
	var frequency models.Frequency
	switch opt.Freq {
	case rrule.DAILY:
		frequency = models.FrequencyDaily
	case rrule.WEEKLY:
		frequency = models.FrequencyWeekly
		if len(opt.Byweekday) > 1 {
			return models.Recurrence{}, domain.NewValidationError("recurrence rule may name at most one weekday")
		}
		if len(opt.Byweekday) == 1 {
			// rrule weekdays count from Monday=0.
			day := models.WeekdayName(time.Weekday((opt.Byweekday[0].Day() + 1) % 7))
			out.DayOfWeek = &day
		}
	case rrule.MONTHLY:
		frequency = models.FrequencyMonthly
		if len(opt.Bymonthday) > 1 {
			return models.Recurrence{}, domain.NewValidationError("recurrence rule may name at most one month day")
		}
		if len(opt.Bymonthday) == 1 {
			day := opt.Bymonthday[0]
			if day < 1 || day > 31 {
				return models.Recurrence{}, domain.NewValidationError("recurrence rule month day must be between 1 and 31")
			}
			out.DayOfMonth = &day
		}
	default:
		return models.Recurrence{}, domain.NewValidationError("recurrence rule frequency must be DAILY, WEEKLY or MONTHLY")
	}
	out.Frequency = &frequency

	if opt.Interval > 0 {
		interval := opt.Interval
		out.Interval = &interval
	}

	return out, nil
}
