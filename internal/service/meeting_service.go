// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/utils"
)

// MeetingService owns the meeting lifecycle: creation, scoped updates and
// deletes, and on-demand generation of the next instance of a series.
type MeetingService struct {
	Store          domain.Store
	Recurrence     *RecurrenceService
	MessageBuilder domain.MessageBuilder
	// StatsCache is optional; when set, mutations drop the community's cached dashboard.
	StatsCache domain.StatsCache
	Config     ServiceConfig
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(
	store domain.Store,
	recurrence *RecurrenceService,
	messageBuilder domain.MessageBuilder,
	statsCache domain.StatsCache,
	config ServiceConfig,
) *MeetingService {
	return &MeetingService{
		Store:          store,
		Recurrence:     recurrence,
		MessageBuilder: messageBuilder,
		StatsCache:     statsCache,
		Config:         config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MeetingService) ServiceReady() bool {
	return s.Store != nil &&
		s.Recurrence != nil &&
		s.MessageBuilder != nil
}

// CreateMeeting creates a standalone meeting, or a recurrence template when
// the payload carries a frequency (directly or as an RRULE).
func (s *MeetingService) CreateMeeting(ctx context.Context, communityUID string, payload *models.MeetingCreate) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}
	if communityUID == "" {
		return nil, domain.NewValidationError("community uid is required")
	}
	if payload == nil {
		return nil, domain.NewValidationError("meeting payload is required")
	}
	if err := validatePayload(payload); err != nil {
		slog.WarnContext(ctx, "invalid meeting payload", logging.ErrKey, err)
		return nil, err
	}

	recurrence := payload.Recurrence.Clone()
	if payload.RecurrenceRule != nil && *payload.RecurrenceRule != "" {
		if recurrence.IsSet() || recurrence.Interval != nil || recurrence.DayOfWeek != nil || recurrence.DayOfMonth != nil {
			return nil, domain.NewValidationError("recurrence_rule cannot be combined with recurrence fields")
		}
		parsed, err := s.Recurrence.FromRRule(*payload.RecurrenceRule)
		if err != nil {
			return nil, err
		}
		recurrence = parsed
	}
	if err := validateRecurrence(recurrence); err != nil {
		return nil, err
	}
	if payload.EndDate != nil && payload.EndDate.Before(payload.StartDate) {
		return nil, domain.NewValidationError("end_date must not be before start_date")
	}

	duration := payload.DurationMinutes
	if duration == 0 {
		duration = constants.DefaultMeetingDurationMinutes
	}

	now := s.Config.now()
	meeting := &models.Meeting{
		UID:                  uuid.New().String(),
		CommunityUID:         communityUID,
		Title:                payload.Title,
		Description:          payload.Description,
		StartDate:            payload.StartDate,
		EndDate:              payload.EndDate,
		Timezone:             utils.Value(payload.Timezone),
		DurationMinutes:      duration,
		IsAnnouncement:       payload.IsAnnouncement,
		Recurrence:           recurrence,
		IsRecurrenceTemplate: recurrence.IsSet(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := localize(meeting); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meeting.UID))
	if err := s.Store.Meetings().Create(ctx, meeting); err != nil {
		return nil, err
	}

	s.fillRecurrenceRule(ctx, meeting)
	s.publishMeetingEvent(ctx, models.MeetingCreatedSubject, models.ActionCreated, meeting)
	invalidateStats(ctx, s.StatsCache, communityUID)

	slog.DebugContext(ctx, "created meeting", "kind", meeting.Kind())
	return meeting, nil
}

// GetMeeting returns a single meeting.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	meeting, err := s.Store.Meetings().Get(ctx, meetingUID)
	if err != nil {
		return nil, err
	}
	s.fillRecurrenceRule(ctx, meeting)
	return meeting, nil
}

// ListMeetings returns every meeting of a community ordered by start date.
func (s *MeetingService) ListMeetings(ctx context.Context, communityUID string) ([]*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	meetings, err := s.Store.Meetings().ListByCommunity(ctx, communityUID)
	if err != nil {
		return nil, err
	}
	for _, m := range meetings {
		s.fillRecurrenceRule(ctx, m)
	}
	return meetings, nil
}

// UpdateMeeting applies a partial update. Scopes all and all_future on a
// template only touch the template row; instances already generated keep
// their own values.
func (s *MeetingService) UpdateMeeting(ctx context.Context, meetingUID string, payload *models.MeetingUpdate, scope models.Scope) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}
	if payload == nil {
		return nil, domain.NewValidationError("meeting payload is required")
	}
	if err := validatePayload(payload); err != nil {
		slog.WarnContext(ctx, "invalid meeting update payload", logging.ErrKey, err)
		return nil, err
	}
	if payload.RecurrenceFrequency.Value != nil && !payload.RecurrenceFrequency.Value.Valid() {
		return nil, domain.NewValidationError("recurrence_frequency must be one of daily, weekly, monthly")
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))
	ctx = logging.AppendCtx(ctx, slog.String("scope", string(scope)))

	meeting, err := s.Store.Meetings().Get(ctx, meetingUID)
	if err != nil {
		return nil, err
	}

	if meeting.IsTemplate() && scope != models.ScopeThis {
		slog.DebugContext(ctx, "series update applies to the template row only")
	}

	payload.Apply(meeting)
	if err := validateRecurrence(meeting.Recurrence); err != nil {
		return nil, err
	}
	if meeting.EndDate != nil && meeting.EndDate.Before(meeting.StartDate) {
		return nil, domain.NewValidationError("end_date must not be before start_date")
	}
	if err := localize(meeting); err != nil {
		return nil, err
	}
	meeting.UpdatedAt = s.Config.now()

	if err := s.Store.Meetings().Update(ctx, meeting); err != nil {
		return nil, err
	}

	s.fillRecurrenceRule(ctx, meeting)
	s.publishMeetingEvent(ctx, models.MeetingUpdatedSubject, models.ActionUpdated, meeting)
	invalidateStats(ctx, s.StatsCache, meeting.CommunityUID)

	slog.DebugContext(ctx, "updated meeting", "kind", meeting.Kind())
	return meeting, nil
}

// DeleteMeeting deletes a meeting according to scope. On a template, all
// removes the template, its direct instances and their attendance, while
// all_future stops the series by turning the template into a standalone
// meeting. Other meetings are always deleted as a single occurrence.
func (s *MeetingService) DeleteMeeting(ctx context.Context, meetingUID string, scope models.Scope) error {
	if !s.ServiceReady() {
		return notReady(ctx)
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))
	ctx = logging.AppendCtx(ctx, slog.String("scope", string(scope)))

	meeting, err := s.Store.Meetings().Get(ctx, meetingUID)
	if err != nil {
		return err
	}

	if !meeting.IsTemplate() {
		scope = models.ScopeThis
	}

	var deleted []*models.Meeting
	switch scope {
	case models.ScopeAllFuture:
		meeting.ClearRecurrence()
		meeting.UpdatedAt = s.Config.now()
		if err := s.Store.Meetings().Update(ctx, meeting); err != nil {
			return err
		}
		s.publishMeetingEvent(ctx, models.MeetingUpdatedSubject, models.ActionUpdated, meeting)
		invalidateStats(ctx, s.StatsCache, meeting.CommunityUID)
		slog.DebugContext(ctx, "stopped recurrence")
		return nil

	case models.ScopeAll:
		err = s.Store.WithTx(ctx, func(tx domain.Store) error {
			instances, err := tx.Meetings().ListInstances(ctx, meeting.UID)
			if err != nil {
				return err
			}

			uids := make([]string, 0, len(instances)+1)
			uids = append(uids, meeting.UID)
			instanceUIDs := make([]string, 0, len(instances))
			for _, instance := range instances {
				uids = append(uids, instance.UID)
				instanceUIDs = append(instanceUIDs, instance.UID)
			}

			if err := tx.Attendance().DeleteByMeetings(ctx, uids...); err != nil {
				return err
			}
			if err := tx.Meetings().Delete(ctx, instanceUIDs...); err != nil {
				return err
			}
			if err := tx.Meetings().Delete(ctx, meeting.UID); err != nil {
				return err
			}

			deleted = append(instances, meeting)
			return nil
		})

	default:
		err = s.Store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Attendance().DeleteByMeetings(ctx, meeting.UID); err != nil {
				return err
			}
			if err := tx.Meetings().Delete(ctx, meeting.UID); err != nil {
				return err
			}
			deleted = []*models.Meeting{meeting}
			return nil
		})
	}
	if err != nil {
		return err
	}

	s.publishDeleted(ctx, scope, deleted)
	invalidateStats(ctx, s.StatsCache, meeting.CommunityUID)

	slog.DebugContext(ctx, "deleted meetings", "count", len(deleted))
	return nil
}

// CreateNextInstance materializes the occurrence following the template's
// start date. The new instance copies the recurrence configuration so that
// it can in turn spawn the occurrence after it.
func (s *MeetingService) CreateNextInstance(ctx context.Context, templateUID string) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	ctx = logging.AppendCtx(ctx, slog.String("template_uid", templateUID))

	template, err := s.Store.Meetings().Get(ctx, templateUID)
	if err != nil {
		return nil, err
	}
	if !template.IsTemplate() {
		return nil, domain.NewInvalidStateError("meeting is not a recurrence template")
	}

	next := s.Recurrence.NextOccurrence(template.StartDate, template.Recurrence)
	if next == nil {
		return nil, domain.NewValidationError("recurrence configuration cannot produce a next occurrence")
	}
	now := s.Config.now()
	if !next.After(now) {
		slog.WarnContext(ctx, "next occurrence is not in the future", "next_start_date", next)
		return nil, domain.NewTemporalConstraintError("next occurrence must be in the future")
	}

	instance := &models.Meeting{
		UID:                  uuid.New().String(),
		CommunityUID:         template.CommunityUID,
		Title:                template.Title,
		Description:          template.Description,
		StartDate:            *next,
		Timezone:             template.Timezone,
		DurationMinutes:      template.DurationMinutes,
		IsAnnouncement:       template.IsAnnouncement,
		Recurrence:           template.Recurrence.Clone(),
		ParentMeetingUID:     &template.UID,
		IsRecurrenceTemplate: true,
		InstanceDate:         next,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if template.EndDate != nil {
		end := next.Add(template.EndDate.Sub(template.StartDate))
		instance.EndDate = &end
	}

	err = s.Store.WithTx(ctx, func(tx domain.Store) error {
		exists, err := tx.Meetings().InstanceExists(ctx, template.CommunityUID, template.UID, *next)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewTemporalConstraintError("instance already exists")
		}

		count, err := tx.Meetings().CountInstances(ctx, template.UID)
		if err != nil {
			return err
		}
		if count >= constants.MaxInstancesPerTemplate {
			return domain.NewTemporalConstraintError("maximum instances reached")
		}

		return tx.Meetings().Create(ctx, instance)
	})
	if err != nil {
		// A concurrent request inserted the same occurrence first.
		if domain.IsConflict(err) {
			return nil, domain.NewTemporalConstraintError("instance already exists", err)
		}
		if domain.GetErrorType(err) == domain.ErrorTypeTemporalConstraint {
			slog.WarnContext(ctx, "next instance rejected", logging.ErrKey, err)
		}
		return nil, err
	}

	s.fillRecurrenceRule(ctx, instance)
	s.publishMeetingEvent(ctx, models.MeetingInstanceCreatedSubject, models.ActionCreated, instance)
	invalidateStats(ctx, s.StatsCache, instance.CommunityUID)

	slog.DebugContext(ctx, "created next instance", "meeting_uid", instance.UID, "start_date", instance.StartDate)
	return instance, nil
}

// validateRecurrence rejects configurations that cannot describe a series.
func validateRecurrence(r models.Recurrence) error {
	if r.Frequency == nil {
		if r.Interval != nil || r.DayOfWeek != nil || r.DayOfMonth != nil {
			return domain.NewValidationError("recurrence fields require recurrence_frequency")
		}
		return nil
	}
	if !r.Frequency.Valid() {
		return domain.NewValidationError("recurrence_frequency must be one of daily, weekly, monthly")
	}
	if r.Interval != nil && *r.Interval < 1 {
		return domain.NewValidationError("recurrence_interval must be at least 1")
	}
	if r.DayOfWeek != nil {
		if *r.Frequency != models.FrequencyWeekly {
			return domain.NewValidationError("recurrence_day_of_week only applies to weekly meetings")
		}
		if _, ok := models.ParseWeekday(*r.DayOfWeek); !ok {
			return domain.NewValidationError("recurrence_day_of_week is not a weekday")
		}
	}
	if r.DayOfMonth != nil {
		if *r.Frequency != models.FrequencyMonthly {
			return domain.NewValidationError("recurrence_day_of_month only applies to monthly meetings")
		}
		if *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return domain.NewValidationError("recurrence_day_of_month must be between 1 and 31")
		}
	}
	return nil
}

func (s *MeetingService) fillRecurrenceRule(ctx context.Context, meeting *models.Meeting) {
	rule, err := s.Recurrence.ToRRule(meeting.Recurrence)
	if err != nil {
		slog.WarnContext(ctx, "error rendering recurrence rule", "meeting_uid", meeting.UID, logging.ErrKey, err)
		return
	}
	meeting.RecurrenceRule = rule
}

// publishMeetingEvent sends an event after the change is committed. The
// change stands even when the event cannot be delivered.
func (s *MeetingService) publishMeetingEvent(ctx context.Context, subject string, action models.MessageAction, meeting *models.Meeting) {
	err := s.MessageBuilder.SendMeetingEvent(ctx, subject, models.MeetingEventMessage{
		Action:  action,
		Meeting: meeting,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error sending meeting event", "subject", subject, logging.ErrKey, err)
	}
}

// publishDeleted sends one deleted event per removed meeting.
func (s *MeetingService) publishDeleted(ctx context.Context, scope models.Scope, deleted []*models.Meeting) {
	pool := concurrent.NewWorkerPool(constants.EventPublishWorkers)

	tasks := make([]concurrent.Task, 0, len(deleted))
	for _, m := range deleted {
		tasks = append(tasks, func(ctx context.Context) error {
			return s.MessageBuilder.SendMeetingDeleted(ctx, models.MeetingDeletedMessage{
				MeetingUID:       m.UID,
				CommunityUID:     m.CommunityUID,
				ParentMeetingUID: m.ParentMeetingUID,
				Scope:            scope,
			})
		})
	}

	if err := pool.RunAll(ctx, tasks...); err != nil {
		slog.ErrorContext(ctx, "error sending meeting deleted events", logging.ErrKey, err)
	}
}

// localize expresses the meeting dates on the wall clock of its timezone,
// which occurrences are computed in. Without a zone name the meeting keeps
// the fixed offset its start date was given in.
func localize(m *models.Meeting) error {
	if m.Timezone == "" {
		m.Timezone = models.ZoneName(m.StartDate)
	}
	loc, err := models.LoadZone(m.Timezone, m.StartDate)
	if err != nil {
		return domain.NewValidationError("timezone must be an IANA zone name", err)
	}
	m.StartDate = m.StartDate.In(loc)
	if m.EndDate != nil {
		end := m.EndDate.In(loc)
		m.EndDate = &end
	}
	return nil
}
