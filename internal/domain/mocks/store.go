// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockStore implements domain.Store for testing. WithTx hands the same mock
// repositories to the callback, so expectations set on them apply inside
// transactions too.
type MockStore struct {
	mock.Mock
	MeetingRepo    *MockMeetingRepository
	AttendanceRepo *MockAttendanceRepository
	MemberRepo     *MockMemberRepository
}

// NewMockStore creates a MockStore with fresh repository mocks.
func NewMockStore() *MockStore {
	return &MockStore{
		MeetingRepo:    new(MockMeetingRepository),
		AttendanceRepo: new(MockAttendanceRepository),
		MemberRepo:     new(MockMemberRepository),
	}
}

func (m *MockStore) Meetings() domain.MeetingRepository {
	return m.MeetingRepo
}

func (m *MockStore) Attendance() domain.AttendanceRepository {
	return m.AttendanceRepo
}

func (m *MockStore) Members() domain.MemberRepository {
	return m.MemberRepo
}

func (m *MockStore) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockStore) IsReady(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// AssertRepositoryExpectations asserts the expectations of every repository mock.
func (m *MockStore) AssertRepositoryExpectations(t mock.TestingT) bool {
	return m.MeetingRepo.AssertExpectations(t) &&
		m.AttendanceRepo.AssertExpectations(t) &&
		m.MemberRepo.AssertExpectations(t)
}
