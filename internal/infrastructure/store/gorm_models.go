// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
)

// meetingRow is the relational representation of a meeting.
// (parent_meeting_uid, start_date) is unique so that two concurrent next-instance
// requests cannot both insert the same occurrence.
type meetingRow struct {
	UID                  string     `gorm:"column:uid;primaryKey;type:varchar(36)"`
	CommunityUID         string     `gorm:"column:community_uid;type:varchar(64);not null;index:idx_community_meetings_community_start,priority:1"`
	Title                string     `gorm:"column:title;type:varchar(255);not null"`
	Description          *string    `gorm:"column:description;type:text"`
	StartDate            time.Time  `gorm:"column:start_date;not null;index:idx_community_meetings_community_start,priority:2;uniqueIndex:idx_community_meetings_parent_start,priority:2"`
	EndDate              *time.Time `gorm:"column:end_date"`
	Timezone             string     `gorm:"column:timezone;type:varchar(64);not null;default:''"`
	UTCOffset            int        `gorm:"column:utc_offset;not null;default:0"`
	DurationMinutes      int        `gorm:"column:duration_minutes;not null"`
	IsAnnouncement       bool       `gorm:"column:is_announcement;not null"`
	RecurrenceFrequency  *string    `gorm:"column:recurrence_frequency;type:varchar(16)"`
	RecurrenceInterval   *int       `gorm:"column:recurrence_interval"`
	RecurrenceDayOfWeek  *string    `gorm:"column:recurrence_day_of_week;type:varchar(16)"`
	RecurrenceDayOfMonth *int       `gorm:"column:recurrence_day_of_month"`
	ParentMeetingUID     *string    `gorm:"column:parent_meeting_uid;type:varchar(36);uniqueIndex:idx_community_meetings_parent_start,priority:1"`
	IsRecurrenceTemplate bool       `gorm:"column:is_recurrence_template;not null"`
	InstanceDate         *time.Time `gorm:"column:instance_date"`
	ExceptionType        *string    `gorm:"column:exception_type;type:varchar(16)"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;not null"`
}

func (meetingRow) TableName() string {
	return "community_meetings"
}

// attendanceRow is the relational representation of an attendance record.
type attendanceRow struct {
	UID        string    `gorm:"column:uid;primaryKey;type:varchar(36)"`
	MeetingUID string    `gorm:"column:meeting_uid;type:varchar(36);not null;uniqueIndex:idx_meeting_attendance_meeting_member,priority:1"`
	MemberUID  string    `gorm:"column:member_uid;type:varchar(64);not null;uniqueIndex:idx_meeting_attendance_meeting_member,priority:2;index:idx_meeting_attendance_member"`
	Attended   bool      `gorm:"column:attended;not null"`
	Notes      *string   `gorm:"column:notes;type:text"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
}

func (attendanceRow) TableName() string {
	return "meeting_attendance"
}

// memberRow is the relational representation of a community member.
type memberRow struct {
	UID          string    `gorm:"column:uid;primaryKey;type:varchar(64)"`
	CommunityUID string    `gorm:"column:community_uid;type:varchar(64);not null;index:idx_community_members_community_joined,priority:1"`
	DisplayName  string    `gorm:"column:display_name;type:varchar(255);not null"`
	State        string    `gorm:"column:state;type:varchar(16);not null"`
	JoinedAt     time.Time `gorm:"column:joined_at;not null;index:idx_community_members_community_joined,priority:2"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (memberRow) TableName() string {
	return "community_members"
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// rowLocation restores the location a meeting was written in. Start dates
// are stored as UTC instants next to the zone name and the offset they had.
func rowLocation(name string, offset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", offset)
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

func newMeetingRow(m *models.Meeting) *meetingRow {
	_, offset := m.StartDate.Zone()
	row := &meetingRow{
		UID:                  m.UID,
		CommunityUID:         m.CommunityUID,
		Title:                m.Title,
		Description:          m.Description,
		StartDate:            utc(m.StartDate),
		EndDate:              utcPtr(m.EndDate),
		Timezone:             m.Timezone,
		UTCOffset:            offset,
		DurationMinutes:      m.DurationMinutes,
		IsAnnouncement:       m.IsAnnouncement,
		RecurrenceInterval:   m.Interval,
		RecurrenceDayOfWeek:  m.DayOfWeek,
		RecurrenceDayOfMonth: m.DayOfMonth,
		ParentMeetingUID:     m.ParentMeetingUID,
		IsRecurrenceTemplate: m.IsRecurrenceTemplate,
		InstanceDate:         utcPtr(m.InstanceDate),
		CreatedAt:            utc(m.CreatedAt),
		UpdatedAt:            utc(m.UpdatedAt),
	}
	if m.Frequency != nil {
		f := string(*m.Frequency)
		row.RecurrenceFrequency = &f
	}
	if m.ExceptionType != nil {
		e := string(*m.ExceptionType)
		row.ExceptionType = &e
	}
	return row
}

func (r *meetingRow) toModel() *models.Meeting {
	loc := rowLocation(r.Timezone, r.UTCOffset)
	m := &models.Meeting{
		UID:             r.UID,
		CommunityUID:    r.CommunityUID,
		Title:           r.Title,
		Description:     r.Description,
		StartDate:       r.StartDate.In(loc),
		EndDate:         inLocation(r.EndDate, loc),
		Timezone:        r.Timezone,
		DurationMinutes: r.DurationMinutes,
		IsAnnouncement:  r.IsAnnouncement,
		Recurrence: models.Recurrence{
			Interval:   r.RecurrenceInterval,
			DayOfWeek:  r.RecurrenceDayOfWeek,
			DayOfMonth: r.RecurrenceDayOfMonth,
		},
		ParentMeetingUID:     r.ParentMeetingUID,
		IsRecurrenceTemplate: r.IsRecurrenceTemplate,
		InstanceDate:         inLocation(r.InstanceDate, loc),
		CreatedAt:            utc(r.CreatedAt),
		UpdatedAt:            utc(r.UpdatedAt),
	}
	if r.RecurrenceFrequency != nil {
		f := models.Frequency(*r.RecurrenceFrequency)
		m.Frequency = &f
	}
	if r.ExceptionType != nil {
		e := models.ExceptionType(*r.ExceptionType)
		m.ExceptionType = &e
	}
	return m
}

func newAttendanceRow(a *models.Attendance) *attendanceRow {
	return &attendanceRow{
		UID:        a.UID,
		MeetingUID: a.MeetingUID,
		MemberUID:  a.MemberUID,
		Attended:   a.Attended,
		Notes:      a.Notes,
		RecordedAt: utc(a.RecordedAt),
	}
}

func (r *attendanceRow) toModel() *models.Attendance {
	return &models.Attendance{
		UID:        r.UID,
		MeetingUID: r.MeetingUID,
		MemberUID:  r.MemberUID,
		Attended:   r.Attended,
		Notes:      r.Notes,
		RecordedAt: utc(r.RecordedAt),
	}
}

func newMemberRow(m *models.Member) *memberRow {
	return &memberRow{
		UID:          m.UID,
		CommunityUID: m.CommunityUID,
		DisplayName:  m.DisplayName,
		State:        string(m.State),
		JoinedAt:     utc(m.JoinedAt),
		CreatedAt:    utc(m.CreatedAt),
		UpdatedAt:    utc(m.UpdatedAt),
	}
}

func (r *memberRow) toModel() *models.Member {
	return &models.Member{
		UID:          r.UID,
		CommunityUID: r.CommunityUID,
		DisplayName:  r.DisplayName,
		State:        models.MemberState(r.State),
		JoinedAt:     utc(r.JoinedAt),
		CreatedAt:    utc(r.CreatedAt),
		UpdatedAt:    utc(r.UpdatedAt),
	}
}
