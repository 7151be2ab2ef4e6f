// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Attendance is the attendance record of one member for one meeting.
// There is at most one row per (MeetingUID, MemberUID).
type Attendance struct {
	UID        string    `json:"uid"`
	MeetingUID string    `json:"meeting_uid"`
	MemberUID  string    `json:"member_uid"`
	Attended   bool      `json:"attended"`
	Notes      *string   `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AttendanceInput is one entry of a bulk attendance submission.
type AttendanceInput struct {
	MemberUID string  `json:"member_uid" validate:"required"`
	Attended  bool    `json:"attended"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// PublicAttendance is a community member joined with their attendance for a
// meeting. Attended is false both when the member was marked absent and when
// nothing was recorded yet.
type PublicAttendance struct {
	MemberUID   string    `json:"member_uid"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	Attended    bool      `json:"attended"`
}
