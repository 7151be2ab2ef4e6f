// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
)

// AttendanceService records and reads per-member attendance of a meeting.
type AttendanceService struct {
	Store          domain.Store
	MessageBuilder domain.MessageBuilder
	StatsCache     domain.StatsCache
	Config         ServiceConfig
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(
	store domain.Store,
	messageBuilder domain.MessageBuilder,
	statsCache domain.StatsCache,
	config ServiceConfig,
) *AttendanceService {
	return &AttendanceService{
		Store:          store,
		MessageBuilder: messageBuilder,
		StatsCache:     statsCache,
		Config:         config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *AttendanceService) ServiceReady() bool {
	return s.Store != nil && s.MessageBuilder != nil
}

// RecordBulk replaces the whole attendance set of a meeting with records.
// Members left out of records lose their previous row.
func (s *AttendanceService) RecordBulk(ctx context.Context, meetingUID string, records []models.AttendanceInput) ([]*models.Attendance, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := validatePayload(&records[i]); err != nil {
			return nil, err
		}
		if _, dup := seen[records[i].MemberUID]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("member %s is listed more than once", records[i].MemberUID))
		}
		seen[records[i].MemberUID] = struct{}{}
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))

	meeting, err := s.Store.Meetings().Get(ctx, meetingUID)
	if err != nil {
		return nil, err
	}

	now := s.Config.now()
	rows := make([]*models.Attendance, 0, len(records))
	memberUIDs := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, &models.Attendance{
			UID:        uuid.New().String(),
			MeetingUID: meetingUID,
			MemberUID:  r.MemberUID,
			Attended:   r.Attended,
			Notes:      r.Notes,
			RecordedAt: now,
		})
		memberUIDs = append(memberUIDs, r.MemberUID)
	}

	err = s.Store.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.Attendance().DeleteByMeetings(ctx, meetingUID); err != nil {
			return err
		}
		return tx.Attendance().CreateBatch(ctx, rows)
	})
	if err != nil {
		return nil, err
	}

	s.publishRecorded(ctx, models.AttendanceRecordedMessage{
		MeetingUID:   meetingUID,
		CommunityUID: meeting.CommunityUID,
		MemberUIDs:   memberUIDs,
		Replaced:     true,
	})
	invalidateStats(ctx, s.StatsCache, meeting.CommunityUID)

	slog.DebugContext(ctx, "replaced meeting attendance", "records", len(rows))
	return rows, nil
}

// RecordSingle inserts or updates the attendance of one member. The record
// time is refreshed on every call, even when attended does not change.
func (s *AttendanceService) RecordSingle(ctx context.Context, communityUID, meetingUID, memberUID string, attended bool) (*models.Attendance, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}
	if communityUID == "" || meetingUID == "" || memberUID == "" {
		return nil, domain.NewValidationError("community, meeting and member uids are required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meetingUID))
	ctx = logging.AppendCtx(ctx, slog.String("member_uid", memberUID))

	member, err := s.Store.Members().BelongsToCommunity(ctx, communityUID, memberUID)
	if err != nil {
		return nil, err
	}
	if !member {
		slog.WarnContext(ctx, "member is not part of the community", "community_uid", communityUID)
		return nil, domain.NewNotFoundError("member not found in community")
	}

	meeting, err := s.Store.Meetings().Get(ctx, meetingUID)
	if err != nil {
		return nil, err
	}
	if meeting.CommunityUID != communityUID {
		return nil, domain.NewNotFoundError("meeting not found in community")
	}

	record, err := s.Store.Attendance().Upsert(ctx, &models.Attendance{
		UID:        uuid.New().String(),
		MeetingUID: meetingUID,
		MemberUID:  memberUID,
		Attended:   attended,
		RecordedAt: s.Config.now(),
	})
	if err != nil {
		return nil, err
	}

	s.publishRecorded(ctx, models.AttendanceRecordedMessage{
		MeetingUID:   meetingUID,
		CommunityUID: communityUID,
		MemberUIDs:   []string{memberUID},
	})
	invalidateStats(ctx, s.StatsCache, communityUID)

	return record, nil
}

// GetAttendance returns the recorded attendance rows of a meeting.
func (s *AttendanceService) GetAttendance(ctx context.Context, meetingUID string) ([]*models.Attendance, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	if _, err := s.Store.Meetings().Get(ctx, meetingUID); err != nil {
		return nil, err
	}
	return s.Store.Attendance().ListByMeeting(ctx, meetingUID)
}

// GetPublicAttendance lists every community member by join date with their
// attendance for the meeting. A member without a row reads as not attended,
// so "absent" and "not yet recorded" look the same.
func (s *AttendanceService) GetPublicAttendance(ctx context.Context, communityUID, meetingUID string) ([]*models.PublicAttendance, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	members, err := s.Store.Members().ListByCommunity(ctx, communityUID)
	if err != nil {
		return nil, err
	}
	records, err := s.Store.Attendance().ListByMeeting(ctx, meetingUID)
	if err != nil {
		return nil, err
	}

	attended := make(map[string]bool, len(records))
	for _, r := range records {
		attended[r.MemberUID] = r.Attended
	}

	out := make([]*models.PublicAttendance, 0, len(members))
	for _, m := range members {
		out = append(out, &models.PublicAttendance{
			MemberUID:   m.UID,
			DisplayName: m.DisplayName,
			JoinedAt:    m.JoinedAt,
			Attended:    attended[m.UID],
		})
	}
	return out, nil
}

func (s *AttendanceService) publishRecorded(ctx context.Context, msg models.AttendanceRecordedMessage) {
	if err := s.MessageBuilder.SendAttendanceRecorded(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "error sending attendance recorded event", logging.ErrKey, err)
	}
}
