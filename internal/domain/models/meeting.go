// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/pkg/utils"
)

// Frequency is the recurrence frequency of a meeting series.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ExceptionType marks a per-instance override. It is reserved and not yet
// produced by any operation.
type ExceptionType string

const (
	ExceptionTypeModified  ExceptionType = "modified"
	ExceptionTypeCancelled ExceptionType = "cancelled"
)

// MeetingKind is the logical state of a meeting row.
type MeetingKind string

const (
	MeetingKindStandalone MeetingKind = "standalone"
	MeetingKindTemplate   MeetingKind = "template"
	MeetingKindInstance   MeetingKind = "instance"
)

// Scope bounds an update or delete against a recurrence template.
type Scope string

const (
	ScopeThis      Scope = "this"
	ScopeAll       Scope = "all"
	ScopeAllFuture Scope = "all_future"
)

// ParseScope returns the scope for s, defaulting to [ScopeThis] when s is empty.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case "", ScopeThis:
		return ScopeThis, true
	case ScopeAll:
		return ScopeAll, true
	case ScopeAllFuture:
		return ScopeAllFuture, true
	}
	return "", false
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a lowercase weekday name into a [time.Weekday].
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(name)]
	return d, ok
}

// WeekdayName is the inverse of [ParseWeekday].
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ZoneName returns the IANA name of t's location, or "" when t only carries
// a UTC offset.
func ZoneName(t time.Time) string {
	switch name := t.Location().String(); name {
	case "", "Local":
		return ""
	default:
		return name
	}
}

// LoadZone resolves a meeting timezone. An empty name resolves to the fixed
// offset ref is expressed in.
func LoadZone(name string, ref time.Time) (*time.Location, error) {
	if name != "" {
		return time.LoadLocation(name)
	}
	_, offset := ref.Zone()
	if offset == 0 {
		return time.UTC, nil
	}
	return time.FixedZone("", offset), nil
}

// Recurrence is the recurrence configuration of a meeting. All fields are nil
// for standalone meetings.
type Recurrence struct {
	Frequency  *Frequency `json:"recurrence_frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly"`
	Interval   *int       `json:"recurrence_interval,omitempty" validate:"omitempty,min=1"`
	DayOfWeek  *string    `json:"recurrence_day_of_week,omitempty" validate:"omitempty,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	DayOfMonth *int       `json:"recurrence_day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
}

// IsSet reports whether a frequency is configured.
func (r Recurrence) IsSet() bool {
	return r.Frequency != nil
}

// IntervalOrDefault returns the interval, defaulting to 1.
func (r Recurrence) IntervalOrDefault() int {
	if r.Interval == nil || *r.Interval < 1 {
		return 1
	}
	return *r.Interval
}

// retain clears the day fields that f does not use.
func (r *Recurrence) retain(f Frequency) {
	if f != FrequencyWeekly {
		r.DayOfWeek = nil
	}
	if f != FrequencyMonthly {
		r.DayOfMonth = nil
	}
}

// Clone returns a deep copy so callers can hand the configuration to a new row.
func (r Recurrence) Clone() Recurrence {
	out := Recurrence{}
	if r.Frequency != nil {
		f := *r.Frequency
		out.Frequency = &f
	}
	if r.Interval != nil {
		out.Interval = utils.Ptr(*r.Interval)
	}
	if r.DayOfWeek != nil {
		out.DayOfWeek = utils.Ptr(*r.DayOfWeek)
	}
	if r.DayOfMonth != nil {
		out.DayOfMonth = utils.Ptr(*r.DayOfMonth)
	}
	return out
}

// Meeting is a one-off event, a recurrence template, or a generated instance.
type Meeting struct {
	UID             string     `json:"uid"`
	CommunityUID    string     `json:"community_uid"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	// Timezone is the zone occurrences are computed in. Empty means the
	// fixed offset of StartDate.
	Timezone        string     `json:"timezone,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsAnnouncement  bool       `json:"is_announcement"`
	Recurrence
	// RecurrenceRule is the RFC 5545 form of the recurrence, filled on read.
	RecurrenceRule       string         `json:"recurrence_rule,omitempty"`
	ParentMeetingUID     *string        `json:"parent_meeting_uid,omitempty"`
	IsRecurrenceTemplate bool           `json:"is_recurrence_template"`
	InstanceDate         *time.Time     `json:"instance_date,omitempty"`
	ExceptionType        *ExceptionType `json:"exception_type,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Kind derives the logical state of the meeting.
func (m *Meeting) Kind() MeetingKind {
	switch {
	case m.ParentMeetingUID != nil:
		return MeetingKindInstance
	case m.Frequency != nil:
		return MeetingKindTemplate
	default:
		return MeetingKindStandalone
	}
}

// IsTemplate reports whether scope-wide operations apply to the meeting.
// Instances carry the flag too so that they can spawn the next occurrence.
func (m *Meeting) IsTemplate() bool {
	return m.IsRecurrenceTemplate
}

// ClearRecurrence removes the recurrence configuration and the template flag.
func (m *Meeting) ClearRecurrence() {
	m.Recurrence = Recurrence{}
	m.RecurrenceRule = ""
	m.IsRecurrenceTemplate = false
}

// MeetingCreate is the payload accepted when creating a standalone meeting or
// a recurrence template.
type MeetingCreate struct {
	Title           string     `json:"title" validate:"required,max=255"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	StartDate       time.Time  `json:"start_date" validate:"required"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	// Timezone defaults to the location start_date is expressed in.
	Timezone        *string    `json:"timezone,omitempty" validate:"omitempty,timezone"`
	DurationMinutes int        `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	IsAnnouncement  bool       `json:"is_announcement"`
	Recurrence
	// RecurrenceRule may be given instead of the discrete recurrence fields.
	RecurrenceRule *string `json:"recurrence_rule,omitempty"`
}

// MeetingUpdate is a partial update. Nil fields are left untouched.
// RecurrenceFrequency tracks key presence so that an explicit null turns the
// recurrence off.
type MeetingUpdate struct {
	Title                *string                   `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description          *string                   `json:"description,omitempty" validate:"omitempty,max=5000"`
	StartDate            *time.Time                `json:"start_date,omitempty"`
	EndDate              *time.Time                `json:"end_date,omitempty"`
	Timezone             *string                   `json:"timezone,omitempty" validate:"omitempty,timezone"`
	DurationMinutes      *int                      `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	IsAnnouncement       *bool                     `json:"is_announcement,omitempty"`
	RecurrenceFrequency  utils.Optional[Frequency] `json:"recurrence_frequency"`
	RecurrenceInterval   *int                      `json:"recurrence_interval,omitempty" validate:"omitempty,min=1"`
	RecurrenceDayOfWeek  *string                   `json:"recurrence_day_of_week,omitempty" validate:"omitempty,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	RecurrenceDayOfMonth *int                      `json:"recurrence_day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
}

// Apply copies the set fields of the update onto m. A new frequency drops
// the day fields it does not use before the update's own day fields apply.
func (u *MeetingUpdate) Apply(m *Meeting) {
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.Description != nil {
		m.Description = u.Description
	}
	if u.StartDate != nil {
		m.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		m.EndDate = u.EndDate
	}
	if u.Timezone != nil {
		m.Timezone = *u.Timezone
	}
	if u.DurationMinutes != nil {
		m.DurationMinutes = *u.DurationMinutes
	}
	if u.IsAnnouncement != nil {
		m.IsAnnouncement = *u.IsAnnouncement
	}
	if u.RecurrenceFrequency.Set {
		if u.RecurrenceFrequency.Value == nil {
			m.ClearRecurrence()
			return
		}
		f := *u.RecurrenceFrequency.Value
		m.Frequency = &f
		m.Recurrence.retain(f)
		m.IsRecurrenceTemplate = true
	}
	if u.RecurrenceInterval != nil {
		m.Interval = u.RecurrenceInterval
	}
	if u.RecurrenceDayOfWeek != nil {
		m.DayOfWeek = u.RecurrenceDayOfWeek
	}
	if u.RecurrenceDayOfMonth != nil {
		m.DayOfMonth = u.RecurrenceDayOfMonth
	}
}
