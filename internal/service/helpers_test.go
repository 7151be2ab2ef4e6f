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
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testNow is the fixed clock of every service test.
var testNow = time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC)

func testConfig() ServiceConfig {
	return ServiceConfig{Now: func() time.Time { return testNow }}
}

// newSQLiteStore opens an in-memory database with the production schema.
func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{
		Driver:       store.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newQuietMessageBuilder accepts every event.
func newQuietMessageBuilder() *mocks.MockMessageBuilder {
	mb := new(mocks.MockMessageBuilder)
	mb.On("SendMeetingEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendMeetingDeleted", mock.Anything, mock.Anything).Return(nil).Maybe()
	mb.On("SendAttendanceRecorded", mock.Anything, mock.Anything).Return(nil).Maybe()
	return mb
}

func newTestMeetingService(st domain.Store, mb domain.MessageBuilder) *MeetingService {
	return NewMeetingService(st, NewRecurrenceService(), mb, nil, testConfig())
}

func addTestMember(t *testing.T, st domain.Store, uid, communityUID string, state models.MemberState, joined time.Time) *models.Member {
	t.Helper()
	m := &models.Member{
		UID:          uid,
		CommunityUID: communityUID,
		DisplayName:  "Member " + uid,
		State:        state,
		JoinedAt:     joined,
		CreatedAt:    joined,
		UpdatedAt:    joined,
	}
	require.NoError(t, st.Members().Create(context.Background(), m))
	return m
}

func addTestMeeting(t *testing.T, st domain.Store, uid, communityUID string, start time.Time, announcement bool) *models.Meeting {
	t.Helper()
	m := &models.Meeting{
		UID:             uid,
		CommunityUID:    communityUID,
		Title:           "Meeting " + uid,
		StartDate:       start,
		DurationMinutes: 60,
		IsAnnouncement:  announcement,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
	require.NoError(t, st.Meetings().Create(context.Background(), m))
	return m
}

func weeklyTemplate(start time.Time, day string) *models.MeetingCreate {
	weekly := models.FrequencyWeekly
	return &models.MeetingCreate{
		Title:     "Weekly sit",
		StartDate: start,
		Recurrence: models.Recurrence{
			Frequency: &weekly,
			DayOfWeek: &day,
		},
	}
}
