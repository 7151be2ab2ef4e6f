// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"go.opentelemetry.io/otel/attribute"
)

type meetingRepository struct {
	base
}

func (r *meetingRepository) Create(ctx context.Context, meeting *models.Meeting) (err error) {
	ctx, span := r.startSpan(ctx, "create", attribute.String("db.meeting_uid", meeting.UID))
	defer func() { finishSpan(span, err) }()

	return r.translate(ctx, "create", r.conn(ctx).Create(newMeetingRow(meeting)).Error)
}

func (r *meetingRepository) Get(ctx context.Context, meetingUID string) (_ *models.Meeting, err error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("db.meeting_uid", meetingUID))
	defer func() { finishSpan(span, err) }()

	var row meetingRow
	if err := r.conn(ctx).Where("uid = ?", meetingUID).First(&row).Error; err != nil {
		return nil, r.translate(ctx, "get", err)
	}
	return row.toModel(), nil
}

func (r *meetingRepository) Update(ctx context.Context, meeting *models.Meeting) (err error) {
	ctx, span := r.startSpan(ctx, "update", attribute.String("db.meeting_uid", meeting.UID))
	defer func() { finishSpan(span, err) }()

	result := r.conn(ctx).
		Model(&meetingRow{}).
		Where("uid = ?", meeting.UID).
		Select("*").
		Omit("uid", "created_at").
		Updates(newMeetingRow(meeting))
	if result.Error != nil {
		return r.translate(ctx, "update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("meeting not found")
	}
	return nil
}

func (r *meetingRepository) Delete(ctx context.Context, meetingUIDs ...string) (err error) {
	ctx, span := r.startSpan(ctx, "delete", attribute.Int("db.meeting_count", len(meetingUIDs)))
	defer func() { finishSpan(span, err) }()

	if len(meetingUIDs) == 0 {
		return nil
	}
	return r.translate(ctx, "delete", r.conn(ctx).Where("uid IN ?", meetingUIDs).Delete(&meetingRow{}).Error)
}

func (r *meetingRepository) ListByCommunity(ctx context.Context, communityUID string) (_ []*models.Meeting, err error) {
	ctx, span := r.startSpan(ctx, "list", attribute.String("db.community_uid", communityUID))
	defer func() { finishSpan(span, err) }()

	var rows []meetingRow
	if err := r.conn(ctx).
		Where("community_uid = ?", communityUID).
		Order("start_date ASC").
		Order("uid ASC").
		Find(&rows).Error; err != nil {
		return nil, r.translate(ctx, "list", err)
	}
	return toMeetings(rows), nil
}

func (r *meetingRepository) ListRecent(ctx context.Context, communityUID string, limit int) (_ []*models.Meeting, err error) {
	ctx, span := r.startSpan(ctx, "list_recent",
		attribute.String("db.community_uid", communityUID),
		attribute.Int("db.limit", limit),
	)
	defer func() { finishSpan(span, err) }()

	var rows []meetingRow
	if err := r.conn(ctx).
		Where("community_uid = ? AND is_announcement = ?", communityUID, false).
		Order("start_date DESC").
		Order("uid ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.translate(ctx, "list_recent", err)
	}
	return toMeetings(rows), nil
}

func (r *meetingRepository) ListInstances(ctx context.Context, parentMeetingUID string) (_ []*models.Meeting, err error) {
	ctx, span := r.startSpan(ctx, "list_instances", attribute.String("db.parent_meeting_uid", parentMeetingUID))
	defer func() { finishSpan(span, err) }()

	var rows []meetingRow
	if err := r.conn(ctx).
		Where("parent_meeting_uid = ?", parentMeetingUID).
		Order("start_date ASC").
		Find(&rows).Error; err != nil {
		return nil, r.translate(ctx, "list_instances", err)
	}
	return toMeetings(rows), nil
}

func (r *meetingRepository) CountInstances(ctx context.Context, parentMeetingUID string) (_ int64, err error) {
	ctx, span := r.startSpan(ctx, "count_instances", attribute.String("db.parent_meeting_uid", parentMeetingUID))
	defer func() { finishSpan(span, err) }()

	var count int64
	if err := r.conn(ctx).
		Model(&meetingRow{}).
		Where("parent_meeting_uid = ?", parentMeetingUID).
		Count(&count).Error; err != nil {
		return 0, r.translate(ctx, "count_instances", err)
	}
	return count, nil
}

func (r *meetingRepository) InstanceExists(ctx context.Context, communityUID, parentMeetingUID string, startDate time.Time) (_ bool, err error) {
	ctx, span := r.startSpan(ctx, "instance_exists",
		attribute.String("db.community_uid", communityUID),
		attribute.String("db.parent_meeting_uid", parentMeetingUID),
	)
	defer func() { finishSpan(span, err) }()

	var count int64
	if err := r.conn(ctx).
		Model(&meetingRow{}).
		Where("community_uid = ? AND parent_meeting_uid = ? AND start_date = ?", communityUID, parentMeetingUID, startDate.UTC()).
		Count(&count).Error; err != nil {
		return false, r.translate(ctx, "instance_exists", err)
	}
	return count > 0, nil
}

func toMeetings(rows []meetingRow) []*models.Meeting {
	meetings := make([]*models.Meeting, 0, len(rows))
	for i := range rows {
		meetings = append(meetings, rows[i].toModel())
	}
	return meetings
}
