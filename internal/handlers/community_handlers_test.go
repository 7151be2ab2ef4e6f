// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC)

type testReply struct {
	Data  json.RawMessage `json:"data"`
	Error *ReplyError     `json:"error"`
}

func newTestHandler(t *testing.T) *CommunityHandler {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		Driver:       store.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	mb := new(mocks.MockMessageBuilder)
	mb.On("SendMeetingEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendMeetingDeleted", mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendAttendanceRecorded", mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := service.ServiceConfig{Now: func() time.Time { return testNow }}
	return NewCommunityHandler(
		service.NewMeetingService(st, service.NewRecurrenceService(), mb, nil, cfg),
		service.NewAttendanceService(st, mb, nil, cfg),
		service.NewParticipationService(st, nil, cfg),
		service.NewMemberService(st, nil, cfg),
	)
}

// request sends body on subject and returns the decoded reply.
func request(t *testing.T, h *CommunityHandler, subject string, body any) testReply {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	var raw []byte
	msg := mocks.NewMockMessage(data, subject)
	msg.On("HasReply").Return(true)
	msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
		raw = args.Get(0).([]byte)
	}).Return(nil).Once()

	h.HandleMessage(context.Background(), msg)
	msg.AssertExpectations(t)

	var reply testReply
	require.NoError(t, json.Unmarshal(raw, &reply), string(raw))
	return reply
}

func requestData[T any](t *testing.T, h *CommunityHandler, subject string, body any) T {
	t.Helper()
	reply := request(t, h, subject, body)
	require.Nil(t, reply.Error, "unexpected error reply: %+v", reply.Error)
	var out T
	require.NoError(t, json.Unmarshal(reply.Data, &out))
	return out
}

func TestCommunityHandler_HandlerReady(t *testing.T) {
	assert.True(t, newTestHandler(t).HandlerReady())
	assert.False(t, NewCommunityHandler(nil, nil, nil, nil).HandlerReady())
}

func TestCommunityHandler_Errors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name    string
		subject string
		body    any
		code    string
		status  int
	}{
		{
			name:    "unknown subject",
			subject: "lfx.community-api.nope",
			body:    map[string]string{},
			code:    "validation_failure",
			status:  http.StatusBadRequest,
		},
		{
			name:    "invalid uuid",
			subject: models.MeetingGetSubject,
			body:    map[string]string{"meeting_uid": "not-a-uuid"},
			code:    "validation_failure",
			status:  http.StatusBadRequest,
		},
		{
			name:    "missing meeting",
			subject: models.MeetingGetSubject,
			body:    map[string]string{"meeting_uid": uuid.NewString()},
			code:    "not_found",
			status:  http.StatusNotFound,
		},
		{
			name:    "bad scope",
			subject: models.MeetingDeleteSubject,
			body:    map[string]string{"meeting_uid": uuid.NewString(), "scope": "everything"},
			code:    "validation_failure",
			status:  http.StatusBadRequest,
		},
		{
			name:    "missing payload",
			subject: models.MeetingCreateSubject,
			body:    map[string]string{"community_uid": uuid.NewString()},
			code:    "validation_failure",
			status:  http.StatusBadRequest,
		},
		{
			name:    "next instance of a missing template",
			subject: models.MeetingNextInstanceSubject,
			body:    map[string]string{"meeting_uid": uuid.NewString()},
			code:    "not_found",
			status:  http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := request(t, h, tt.subject, tt.body)
			require.NotNil(t, reply.Error)
			assert.Equal(t, tt.code, reply.Error.Code)
			assert.Equal(t, tt.status, reply.Error.Status)
			assert.NotEmpty(t, reply.Error.Message)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		var raw []byte
		msg := mocks.NewMockMessage([]byte("{"), models.MemberListSubject)
		msg.On("HasReply").Return(true)
		msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
			raw = args.Get(0).([]byte)
		}).Return(nil)
		h.HandleMessage(context.Background(), msg)

		var reply testReply
		require.NoError(t, json.Unmarshal(raw, &reply))
		require.NotNil(t, reply.Error)
		assert.Equal(t, "validation_failure", reply.Error.Code)
	})
}

func TestCommunityHandler_NoReply(t *testing.T) {
	h := newTestHandler(t)
	msg := mocks.NewMockMessage([]byte(`{}`), models.MemberListSubject)
	msg.On("HasReply").Return(false)

	h.HandleMessage(context.Background(), msg)
	msg.AssertNotCalled(t, "Respond", mock.Anything)
}

func TestCommunityHandler_RecurringMeetingFlow(t *testing.T) {
	h := newTestHandler(t)
	communityUID := uuid.NewString()

	template := requestData[models.Meeting](t, h, models.MeetingCreateSubject, map[string]any{
		"community_uid": communityUID,
		"meeting": map[string]any{
			"title":                  "Weekly sync",
			"start_date":             "2024-01-01T10:00:00Z",
			"recurrence_frequency":   "weekly",
			"recurrence_day_of_week": "monday",
		},
	})
	assert.True(t, template.IsRecurrenceTemplate)
	assert.Equal(t, constants.DefaultMeetingDurationMinutes, template.DurationMinutes)
	assert.Contains(t, template.RecurrenceRule, "FREQ=WEEKLY")

	instance := requestData[models.Meeting](t, h, models.MeetingNextInstanceSubject, map[string]any{
		"meeting_uid": template.UID,
	})
	require.NotNil(t, instance.ParentMeetingUID)
	assert.Equal(t, template.UID, *instance.ParentMeetingUID)
	assert.True(t, instance.StartDate.Equal(time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)))

	// The same occurrence cannot be generated twice.
	reply := request(t, h, models.MeetingNextInstanceSubject, map[string]any{"meeting_uid": template.UID})
	require.NotNil(t, reply.Error)
	assert.Equal(t, "temporal_constraint_violation", reply.Error.Code)

	updated := requestData[models.Meeting](t, h, models.MeetingUpdateSubject, map[string]any{
		"meeting_uid": template.UID,
		"scope":       "all",
		"meeting":     map[string]any{"title": "Weekly planning"},
	})
	assert.Equal(t, "Weekly planning", updated.Title)

	listed := requestData[[]models.Meeting](t, h, models.MeetingListSubject, map[string]any{"community_uid": communityUID})
	assert.Len(t, listed, 2)

	deleted := requestData[deleteResponse](t, h, models.MeetingDeleteSubject, map[string]any{
		"meeting_uid": template.UID,
		"scope":       "all",
	})
	assert.Equal(t, models.ScopeAll, deleted.Scope)

	listed = requestData[[]models.Meeting](t, h, models.MeetingListSubject, map[string]any{"community_uid": communityUID})
	assert.Empty(t, listed)
}

func TestCommunityHandler_AttendanceAndParticipation(t *testing.T) {
	h := newTestHandler(t)
	communityUID := uuid.NewString()

	regular := requestData[models.Member](t, h, models.MemberAddSubject, map[string]any{
		"community_uid": communityUID,
		"member":        map[string]any{"display_name": "Regular"},
	})
	newcomer := requestData[models.Member](t, h, models.MemberAddSubject, map[string]any{
		"community_uid": communityUID,
		"member":        map[string]any{"display_name": "Newcomer", "state": "pending"},
	})
	assert.Equal(t, models.MemberStateActive, regular.State)

	meeting := requestData[models.Meeting](t, h, models.MeetingCreateSubject, map[string]any{
		"community_uid": communityUID,
		"meeting":       map[string]any{"title": "Kickoff", "start_date": "2024-02-01T15:00:00Z"},
	})

	rows := requestData[[]models.Attendance](t, h, models.AttendanceRecordBulkSubject, map[string]any{
		"meeting_uid": meeting.UID,
		"records": []map[string]any{
			{"member_uid": regular.UID, "attended": true},
			{"member_uid": newcomer.UID, "attended": false},
		},
	})
	assert.Len(t, rows, 2)

	single := requestData[models.Attendance](t, h, models.AttendanceRecordSingleSubject, map[string]any{
		"community_uid": communityUID,
		"meeting_uid":   meeting.UID,
		"member_uid":    newcomer.UID,
		"attended":      true,
	})
	assert.True(t, single.Attended)

	public := requestData[[]models.PublicAttendance](t, h, models.AttendanceGetPublicSubject, map[string]any{
		"community_uid": communityUID,
		"meeting_uid":   meeting.UID,
	})
	require.Len(t, public, 2)
	assert.True(t, public[0].Attended)
	assert.True(t, public[1].Attended)

	rate := requestData[memberRateResponse](t, h, models.ParticipationMemberRateSubject, map[string]any{
		"member_uid":   regular.UID,
		"meeting_uids": []string{meeting.UID},
	})
	assert.Equal(t, 100.0, rate.AttendanceRate)
	assert.Equal(t, models.FrequencyBucketHigh, rate.Frequency)

	listing := requestData[[]models.MemberParticipation](t, h, models.ParticipationListingSubject, map[string]any{"community_uid": communityUID})
	assert.Len(t, listing, 2)

	stats := requestData[models.DashboardStats](t, h, models.ParticipationDashboardSubject, map[string]any{"community_uid": communityUID})
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, 2, stats.ParticipationByBucket[models.FrequencyBucketHigh])

	left := requestData[models.Member](t, h, models.MemberUpdateStateSubject, map[string]any{
		"member_uid": newcomer.UID,
		"state":      "left",
	})
	assert.Equal(t, models.MemberStateLeft, left.State)

	members := requestData[[]models.Member](t, h, models.MemberListSubject, map[string]any{"community_uid": communityUID})
	assert.Len(t, members, 2)
}

func TestContextFromMessage(t *testing.T) {
	msg := mocks.NewMockMessage(nil, models.MemberListSubject).
		WithHeader(constants.RequestIDHeader, "req-1").
		WithHeader(constants.XOnBehalfOfHeader, "alice")

	ctx := contextFromMessage(context.Background(), msg)
	assert.Equal(t, "req-1", ctx.Value(constants.RequestIDContextID))
	assert.Equal(t, "alice", ctx.Value(constants.PrincipalContextID))

	bare := contextFromMessage(context.Background(), mocks.NewMockMessage(nil, models.MemberListSubject))
	assert.Nil(t, bare.Value(constants.RequestIDContextID))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusCode(domain.ErrorTypeValidation))
	assert.Equal(t, http.StatusBadRequest, StatusCode(domain.ErrorTypeInvalidState))
	assert.Equal(t, http.StatusBadRequest, StatusCode(domain.ErrorTypeTemporalConstraint))
	assert.Equal(t, http.StatusNotFound, StatusCode(domain.ErrorTypeNotFound))
	assert.Equal(t, http.StatusConflict, StatusCode(domain.ErrorTypeConflict))
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(domain.ErrorTypeUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(domain.ErrorTypeInternal))
}

func TestEncodeReply_HidesInternalDetails(t *testing.T) {
	raw, err := encodeReply(nil, errors.New("pq: connection refused on 10.0.0.3"))
	require.NoError(t, err)

	var reply testReply
	require.NoError(t, json.Unmarshal(raw, &reply))
	require.NotNil(t, reply.Error)
	assert.Equal(t, "internal", reply.Error.Code)
	assert.Equal(t, "internal error", reply.Error.Message)
}
