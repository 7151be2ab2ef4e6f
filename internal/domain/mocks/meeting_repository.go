// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

// MockMeetingRepository implements domain.MeetingRepository for testing
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) Delete(ctx context.Context, meetingUIDs ...string) error {
	args := m.Called(ctx, meetingUIDs)
	return args.Error(0)
}

func (m *MockMeetingRepository) ListByCommunity(ctx context.Context, communityUID string) ([]*models.Meeting, error) {
	args := m.Called(ctx, communityUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) ListRecent(ctx context.Context, communityUID string, limit int) ([]*models.Meeting, error) {
	args := m.Called(ctx, communityUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) ListInstances(ctx context.Context, parentMeetingUID string) ([]*models.Meeting, error) {
	args := m.Called(ctx, parentMeetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) CountInstances(ctx context.Context, parentMeetingUID string) (int64, error) {
	args := m.Called(ctx, parentMeetingUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMeetingRepository) InstanceExists(ctx context.Context, communityUID, parentMeetingUID string, startDate time.Time) (bool, error) {
	args := m.Called(ctx, communityUID, parentMeetingUID, startDate)
	return args.Bool(0), args.Error(1)
}
