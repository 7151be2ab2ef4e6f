// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

// MockMessageBuilder implements domain.MessageBuilder for testing
type MockMessageBuilder struct {
	mock.Mock
}

func (m *MockMessageBuilder) SendMeetingEvent(ctx context.Context, subject string, msg models.MeetingEventMessage) error {
	args := m.Called(ctx, subject, msg)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendMeetingDeleted(ctx context.Context, msg models.MeetingDeletedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendAttendanceRecorded(ctx context.Context, msg models.AttendanceRecordedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
