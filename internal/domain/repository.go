// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
)

// MeetingRepository defines the interface for meeting storage operations.
// This interface can be implemented by different storage backends (PostgreSQL, SQLite, etc.)
type MeetingRepository interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	Get(ctx context.Context, meetingUID string) (*models.Meeting, error)
	// Update overwrites every column of the row identified by meeting.UID.
	Update(ctx context.Context, meeting *models.Meeting) error
	Delete(ctx context.Context, meetingUIDs ...string) error

	// ListByCommunity returns the meetings of a community ordered by start date ascending.
	ListByCommunity(ctx context.Context, communityUID string) ([]*models.Meeting, error)
	// ListRecent returns up to limit non-announcement meetings of a community,
	// most recent start date first.
	ListRecent(ctx context.Context, communityUID string, limit int) ([]*models.Meeting, error)

	// Series lineage
	ListInstances(ctx context.Context, parentMeetingUID string) ([]*models.Meeting, error)
	CountInstances(ctx context.Context, parentMeetingUID string) (int64, error)
	InstanceExists(ctx context.Context, communityUID, parentMeetingUID string, startDate time.Time) (bool, error)
}

// AttendanceRepository defines the interface for attendance storage operations.
type AttendanceRepository interface {
	ListByMeeting(ctx context.Context, meetingUID string) ([]*models.Attendance, error)
	// DeleteByMeetings removes the attendance rows of every given meeting.
	DeleteByMeetings(ctx context.Context, meetingUIDs ...string) error
	CreateBatch(ctx context.Context, records []*models.Attendance) error
	// Upsert inserts the record or updates attended and recorded_at of the
	// existing (meeting_uid, member_uid) row.
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	// CountAttended returns, per member, how many of the meetings they attended.
	CountAttended(ctx context.Context, meetingUIDs []string) (map[string]int, error)
}

// MemberRepository defines the interface for community membership lookups.
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	Get(ctx context.Context, memberUID string) (*models.Member, error)
	UpdateState(ctx context.Context, memberUID string, state models.MemberState) error
	// ListByCommunity returns the members of a community ordered by joined date ascending.
	ListByCommunity(ctx context.Context, communityUID string) ([]*models.Member, error)
	BelongsToCommunity(ctx context.Context, communityUID, memberUID string) (bool, error)
}

// Store groups the repositories and runs multi-statement operations atomically.
type Store interface {
	Meetings() MeetingRepository
	Attendance() AttendanceRepository
	Members() MemberRepository
	// WithTx runs fn in a single transaction. The Store passed to fn is bound
	// to the transaction; fn returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	IsReady(ctx context.Context) bool
}
