// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm/clause"
)

// attendanceBatchSize bounds the rows per INSERT statement.
const attendanceBatchSize = 200

type attendanceRepository struct {
	base
}

func (r *attendanceRepository) ListByMeeting(ctx context.Context, meetingUID string) (_ []*models.Attendance, err error) {
	ctx, span := r.startSpan(ctx, "list", attribute.String("db.meeting_uid", meetingUID))
	defer func() { finishSpan(span, err) }()

	var rows []attendanceRow
	if err := r.conn(ctx).
		Where("meeting_uid = ?", meetingUID).
		Order("member_uid ASC").
		Find(&rows).Error; err != nil {
		return nil, r.translate(ctx, "list", err)
	}

	records := make([]*models.Attendance, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}
	return records, nil
}

func (r *attendanceRepository) DeleteByMeetings(ctx context.Context, meetingUIDs ...string) (err error) {
	ctx, span := r.startSpan(ctx, "delete", attribute.Int("db.meeting_count", len(meetingUIDs)))
	defer func() { finishSpan(span, err) }()

	if len(meetingUIDs) == 0 {
		return nil
	}
	return r.translate(ctx, "delete", r.conn(ctx).Where("meeting_uid IN ?", meetingUIDs).Delete(&attendanceRow{}).Error)
}

func (r *attendanceRepository) CreateBatch(ctx context.Context, records []*models.Attendance) (err error) {
	ctx, span := r.startSpan(ctx, "create_batch", attribute.Int("db.record_count", len(records)))
	defer func() { finishSpan(span, err) }()

	if len(records) == 0 {
		return nil
	}
	rows := make([]*attendanceRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, newAttendanceRow(record))
	}
	return r.translate(ctx, "create", r.conn(ctx).CreateInBatches(rows, attendanceBatchSize).Error)
}

func (r *attendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (_ *models.Attendance, err error) {
	ctx, span := r.startSpan(ctx, "upsert",
		attribute.String("db.meeting_uid", record.MeetingUID),
		attribute.String("db.member_uid", record.MemberUID),
	)
	defer func() { finishSpan(span, err) }()

	err = r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meeting_uid"}, {Name: "member_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"attended", "recorded_at"}),
	}).Create(newAttendanceRow(record)).Error
	if err != nil {
		return nil, r.translate(ctx, "upsert", err)
	}

	// The stored row keeps its original uid when the insert turned into an update.
	var row attendanceRow
	if err := r.conn(ctx).
		Where("meeting_uid = ? AND member_uid = ?", record.MeetingUID, record.MemberUID).
		First(&row).Error; err != nil {
		return nil, r.translate(ctx, "upsert", err)
	}
	return row.toModel(), nil
}

func (r *attendanceRepository) CountAttended(ctx context.Context, meetingUIDs []string) (_ map[string]int, err error) {
	ctx, span := r.startSpan(ctx, "count_attended", attribute.Int("db.meeting_count", len(meetingUIDs)))
	defer func() { finishSpan(span, err) }()

	counts := make(map[string]int)
	if len(meetingUIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		MemberUID string
		Attended  int
	}
	if err := r.conn(ctx).
		Model(&attendanceRow{}).
		Select("member_uid, COUNT(*) AS attended").
		Where("attended = ? AND meeting_uid IN ?", true, meetingUIDs).
		Group("member_uid").
		Scan(&rows).Error; err != nil {
		return nil, r.translate(ctx, "count_attended", err)
	}

	for _, row := range rows {
		counts[row.MemberUID] = row.Attended
	}
	return counts, nil
}
