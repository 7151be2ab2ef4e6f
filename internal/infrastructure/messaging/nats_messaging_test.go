// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNATSConn is a mock implementation of INatsConn.
type MockNATSConn struct {
	mock.Mock
}

func (m *MockNATSConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockNATSConn) PublishMsg(msg *nats.Msg) error {
	args := m.Called(msg)
	return args.Error(0)
}

func TestMessageBuilder_publish(t *testing.T) {
	tests := []struct {
		name         string
		connected    bool
		publishError error
		expectedErr  error
	}{
		{name: "successful send", connected: true},
		{name: "publish error", connected: true, publishError: errors.New("publish failed")},
		{name: "disconnected", connected: false, expectedErr: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockConn := new(MockNATSConn)
			mockConn.On("IsConnected").Return(tt.connected)
			if tt.connected {
				mockConn.On("PublishMsg", mock.MatchedBy(func(msg *nats.Msg) bool {
					return msg.Subject == "test.subject" && string(msg.Data) == "test data"
				})).Return(tt.publishError)
			}

			builder := NewMessageBuilder(mockConn)
			err := builder.publish(context.Background(), "test.subject", []byte("test data"))

			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
			case tt.publishError != nil:
				assert.ErrorIs(t, err, tt.publishError)
			default:
				assert.NoError(t, err)
			}
			mockConn.AssertExpectations(t)
		})
	}
}

func TestMessageBuilder_publishCarriesRequestHeaders(t *testing.T) {
	mockConn := new(MockNATSConn)
	mockConn.On("IsConnected").Return(true)

	var sent *nats.Msg
	mockConn.On("PublishMsg", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*nats.Msg)
	}).Return(nil)

	ctx := context.WithValue(context.Background(), constants.RequestIDContextID, "req-1")
	ctx = context.WithValue(ctx, constants.PrincipalContextID, "admin@example.org")

	require.NoError(t, NewMessageBuilder(mockConn).publish(ctx, "test.subject", []byte("{}")))
	require.NotNil(t, sent)
	assert.Equal(t, "req-1", sent.Header.Get(constants.RequestIDHeader))
	assert.Equal(t, "admin@example.org", sent.Header.Get(constants.XOnBehalfOfHeader))
}

func TestMessageBuilder_SendMeetingEvent(t *testing.T) {
	mockConn := new(MockNATSConn)
	mockConn.On("IsConnected").Return(true)

	var sent *nats.Msg
	mockConn.On("PublishMsg", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*nats.Msg)
	}).Return(nil)

	meeting := &models.Meeting{
		UID:          "m-1",
		CommunityUID: "c-1",
		Title:        "Weekly sit",
		StartDate:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	err := NewMessageBuilder(mockConn).SendMeetingEvent(context.Background(), models.MeetingCreatedSubject, models.MeetingEventMessage{
		Action:  models.ActionCreated,
		Meeting: meeting,
	})
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, models.MeetingCreatedSubject, sent.Subject)

	var body models.MeetingEventMessage
	require.NoError(t, json.Unmarshal(sent.Data, &body))
	assert.Equal(t, models.ActionCreated, body.Action)
	assert.Equal(t, "m-1", body.Meeting.UID)
	assert.Equal(t, "c-1", body.Meeting.CommunityUID)
}

func TestMessageBuilder_SendMeetingDeleted(t *testing.T) {
	mockConn := new(MockNATSConn)
	mockConn.On("IsConnected").Return(true)
	mockConn.On("PublishMsg", mock.MatchedBy(func(msg *nats.Msg) bool {
		var body models.MeetingDeletedMessage
		if err := json.Unmarshal(msg.Data, &body); err != nil {
			return false
		}
		return msg.Subject == models.MeetingDeletedSubject &&
			body.MeetingUID == "m-2" &&
			body.ParentMeetingUID != nil && *body.ParentMeetingUID == "m-1" &&
			body.Scope == models.ScopeAll
	})).Return(nil).Once()

	parent := "m-1"
	err := NewMessageBuilder(mockConn).SendMeetingDeleted(context.Background(), models.MeetingDeletedMessage{
		MeetingUID:       "m-2",
		CommunityUID:     "c-1",
		ParentMeetingUID: &parent,
		Scope:            models.ScopeAll,
	})
	require.NoError(t, err)
	mockConn.AssertExpectations(t)
}

func TestMessageBuilder_SendAttendanceRecorded(t *testing.T) {
	mockConn := new(MockNATSConn)
	mockConn.On("IsConnected").Return(true)
	mockConn.On("PublishMsg", mock.MatchedBy(func(msg *nats.Msg) bool {
		var body models.AttendanceRecordedMessage
		if err := json.Unmarshal(msg.Data, &body); err != nil {
			return false
		}
		return msg.Subject == models.AttendanceRecordedSubject &&
			body.MeetingUID == "m-1" &&
			len(body.MemberUIDs) == 2 &&
			body.Replaced
	})).Return(nil).Once()

	err := NewMessageBuilder(mockConn).SendAttendanceRecorded(context.Background(), models.AttendanceRecordedMessage{
		MeetingUID:   "m-1",
		CommunityUID: "c-1",
		MemberUIDs:   []string{"u-1", "u-2"},
		Replaced:     true,
	})
	require.NoError(t, err)
	mockConn.AssertExpectations(t)
}

func TestMessageBuilder_NilConnection(t *testing.T) {
	err := NewMessageBuilder(nil).SendAttendanceRecorded(context.Background(), models.AttendanceRecordedMessage{})
	assert.ErrorIs(t, err, ErrNotConnected)
}
