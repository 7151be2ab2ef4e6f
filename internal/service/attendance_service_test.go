// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAttendanceService_ServiceReady(t *testing.T) {
	assert.True(t, NewAttendanceService(mocks.NewMockStore(), &mocks.MockMessageBuilder{}, nil, ServiceConfig{}).ServiceReady())
	assert.False(t, NewAttendanceService(nil, &mocks.MockMessageBuilder{}, nil, ServiceConfig{}).ServiceReady())
	assert.False(t, NewAttendanceService(mocks.NewMockStore(), nil, nil, ServiceConfig{}).ServiceReady())
}

func TestAttendanceService_RecordBulk(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("replaces the previous set and is idempotent", func(t *testing.T) {
		st := newSQLiteStore(t)
		svc := NewAttendanceService(st, newQuietMessageBuilder(), nil, testConfig())
		addTestMeeting(t, st, "m-1", "c-1", start, false)

		_, err := svc.RecordBulk(ctx, "m-1", []models.AttendanceInput{
			{MemberUID: "u-1", Attended: true},
			{MemberUID: "u-2", Attended: true},
			{MemberUID: "u-3", Attended: false},
		})
		require.NoError(t, err)

		input := []models.AttendanceInput{
			{MemberUID: "u-1", Attended: false, Notes: utils.Ptr("sick")},
			{MemberUID: "u-4", Attended: true},
		}
		for range 2 {
			_, err = svc.RecordBulk(ctx, "m-1", input)
			require.NoError(t, err)
		}

		rows, err := svc.GetAttendance(ctx, "m-1")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "u-1", rows[0].MemberUID)
		assert.False(t, rows[0].Attended)
		assert.Equal(t, "sick", *rows[0].Notes)
		assert.Equal(t, "u-4", rows[1].MemberUID)
		assert.True(t, rows[1].Attended)
		assert.True(t, rows[1].RecordedAt.Equal(testNow))
	})

	t.Run("empty set clears the meeting", func(t *testing.T) {
		st := newSQLiteStore(t)
		svc := NewAttendanceService(st, newQuietMessageBuilder(), nil, testConfig())
		addTestMeeting(t, st, "m-1", "c-1", start, false)

		_, err := svc.RecordBulk(ctx, "m-1", []models.AttendanceInput{{MemberUID: "u-1", Attended: true}})
		require.NoError(t, err)
		_, err = svc.RecordBulk(ctx, "m-1", nil)
		require.NoError(t, err)

		rows, err := svc.GetAttendance(ctx, "m-1")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("duplicate member is rejected", func(t *testing.T) {
		svc := NewAttendanceService(mocks.NewMockStore(), &mocks.MockMessageBuilder{}, nil, testConfig())
		_, err := svc.RecordBulk(ctx, "m-1", []models.AttendanceInput{
			{MemberUID: "u-1", Attended: true},
			{MemberUID: "u-1", Attended: false},
		})
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("missing member uid is rejected", func(t *testing.T) {
		svc := NewAttendanceService(mocks.NewMockStore(), &mocks.MockMessageBuilder{}, nil, testConfig())
		_, err := svc.RecordBulk(ctx, "m-1", []models.AttendanceInput{{Attended: true}})
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("missing meeting", func(t *testing.T) {
		svc := NewAttendanceService(newSQLiteStore(t), newQuietMessageBuilder(), nil, testConfig())
		_, err := svc.RecordBulk(ctx, "missing", []models.AttendanceInput{{MemberUID: "u-1"}})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("publishes and invalidates after commit", func(t *testing.T) {
		st := newSQLiteStore(t)
		mb := new(mocks.MockMessageBuilder)
		mb.On("SendAttendanceRecorded", mock.Anything, models.AttendanceRecordedMessage{
			MeetingUID:   "m-1",
			CommunityUID: "c-1",
			MemberUIDs:   []string{"u-1"},
			Replaced:     true,
		}).Return(nil).Once()
		cache := new(mocks.MockStatsCache)
		cache.On("Invalidate", mock.Anything, "c-1").Return(nil).Once()
		svc := NewAttendanceService(st, mb, cache, testConfig())
		addTestMeeting(t, st, "m-1", "c-1", start, false)
		addTestMember(t, st, "u-1", "c-1", models.MemberStateActive, joined)

		_, err := svc.RecordBulk(ctx, "m-1", []models.AttendanceInput{{MemberUID: "u-1", Attended: true}})
		require.NoError(t, err)
		mb.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}

func TestAttendanceService_RecordSingle(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("upserts and refreshes the record time", func(t *testing.T) {
		st := newSQLiteStore(t)
		now := testNow
		cfg := ServiceConfig{Now: func() time.Time { return now }}
		svc := NewAttendanceService(st, newQuietMessageBuilder(), nil, cfg)
		addTestMeeting(t, st, "m-1", "c-1", start, false)
		addTestMember(t, st, "u-1", "c-1", models.MemberStateActive, joined)

		first, err := svc.RecordSingle(ctx, "c-1", "m-1", "u-1", true)
		require.NoError(t, err)
		assert.True(t, first.RecordedAt.Equal(testNow))

		now = testNow.Add(time.Hour)
		second, err := svc.RecordSingle(ctx, "c-1", "m-1", "u-1", true)
		require.NoError(t, err)
		assert.Equal(t, first.UID, second.UID)
		assert.True(t, second.Attended)
		assert.True(t, second.RecordedAt.Equal(now))

		third, err := svc.RecordSingle(ctx, "c-1", "m-1", "u-1", false)
		require.NoError(t, err)
		assert.False(t, third.Attended)

		rows, err := svc.GetAttendance(ctx, "m-1")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("member outside the community", func(t *testing.T) {
		st := newSQLiteStore(t)
		svc := NewAttendanceService(st, newQuietMessageBuilder(), nil, testConfig())
		addTestMeeting(t, st, "m-1", "c-1", start, false)
		addTestMember(t, st, "u-1", "c-2", models.MemberStateActive, joined)

		_, err := svc.RecordSingle(ctx, "c-1", "m-1", "u-1", true)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("meeting of another community", func(t *testing.T) {
		st := newSQLiteStore(t)
		svc := NewAttendanceService(st, newQuietMessageBuilder(), nil, testConfig())
		addTestMeeting(t, st, "m-1", "c-2", start, false)
		addTestMember(t, st, "u-1", "c-1", models.MemberStateActive, joined)

		_, err := svc.RecordSingle(ctx, "c-1", "m-1", "u-1", true)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("missing identifiers", func(t *testing.T) {
		svc := NewAttendanceService(mocks.NewMockStore(), &mocks.MockMessageBuilder{}, nil, testConfig())
		_, err := svc.RecordSingle(ctx, "c-1", "", "u-1", true)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestAttendanceService_GetPublicAttendance(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)
	svc := NewAttendanceService(st, newQuietMessageBuilder(), nil, testConfig())

	joined := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	addTestMeeting(t, st, "m-1", "c-1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), false)
	addTestMember(t, st, "late", "c-1", models.MemberStateActive, joined.AddDate(0, 2, 0))
	addTestMember(t, st, "early", "c-1", models.MemberStateActive, joined)
	addTestMember(t, st, "absent", "c-1", models.MemberStateInactive, joined.AddDate(0, 1, 0))
	addTestMember(t, st, "elsewhere", "c-2", models.MemberStateActive, joined)

	_, err := svc.RecordBulk(ctx, "m-1", []models.AttendanceInput{
		{MemberUID: "early", Attended: true},
		{MemberUID: "absent", Attended: false},
	})
	require.NoError(t, err)

	public, err := svc.GetPublicAttendance(ctx, "c-1", "m-1")
	require.NoError(t, err)
	require.Len(t, public, 3)

	assert.Equal(t, "early", public[0].MemberUID)
	assert.True(t, public[0].Attended)
	assert.Equal(t, "absent", public[1].MemberUID)
	assert.False(t, public[1].Attended)
	// Never recorded reads the same as marked absent.
	assert.Equal(t, "late", public[2].MemberUID)
	assert.False(t, public[2].Attended)
	assert.Equal(t, "Member late", public[2].DisplayName)
}
