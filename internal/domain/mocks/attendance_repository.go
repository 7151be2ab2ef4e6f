// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

// MockAttendanceRepository implements domain.AttendanceRepository for testing
type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) ListByMeeting(ctx context.Context, meetingUID string) ([]*models.Attendance, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) DeleteByMeetings(ctx context.Context, meetingUIDs ...string) error {
	args := m.Called(ctx, meetingUIDs)
	return args.Error(0)
}

func (m *MockAttendanceRepository) CreateBatch(ctx context.Context, records []*models.Attendance) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockAttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) CountAttended(ctx context.Context, meetingUIDs []string) (map[string]int, error) {
	args := m.Called(ctx, meetingUIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}
