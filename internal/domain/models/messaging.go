// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// NATS subjects that the community service publishes events on.
const (
	// MeetingCreatedSubject is published after a meeting is created.
	// The subject is of the form: lfx.community.meeting_created
	MeetingCreatedSubject = "lfx.community.meeting_created"

	// MeetingUpdatedSubject is published after a meeting is updated.
	// The subject is of the form: lfx.community.meeting_updated
	MeetingUpdatedSubject = "lfx.community.meeting_updated"

	// MeetingDeletedSubject is published once per removed meeting row.
	// The subject is of the form: lfx.community.meeting_deleted
	MeetingDeletedSubject = "lfx.community.meeting_deleted"

	// MeetingInstanceCreatedSubject is published after the next instance of a series is generated.
	// The subject is of the form: lfx.community.meeting_instance_created
	MeetingInstanceCreatedSubject = "lfx.community.meeting_instance_created"

	// AttendanceRecordedSubject is published after attendance is recorded.
	// The subject is of the form: lfx.community.attendance_recorded
	AttendanceRecordedSubject = "lfx.community.attendance_recorded"
)

// NATS wildcard subjects that the community service handles messages about.
const (
	// CommunityAPIQueue is the queue group for the community API subscriptions.
	CommunityAPIQueue = "lfx.community-api.queue"

	// CommunityAPISubjectPrefix prefixes every request/reply subject.
	CommunityAPISubjectPrefix = "lfx.community-api."
)

// NATS request/reply subjects handled by the community service.
const (
	MeetingCreateSubject       = "lfx.community-api.meeting.create"
	MeetingGetSubject          = "lfx.community-api.meeting.get"
	MeetingListSubject         = "lfx.community-api.meeting.list"
	MeetingUpdateSubject       = "lfx.community-api.meeting.update"
	MeetingDeleteSubject       = "lfx.community-api.meeting.delete"
	MeetingNextInstanceSubject = "lfx.community-api.meeting.next_instance"

	AttendanceRecordBulkSubject   = "lfx.community-api.attendance.record_bulk"
	AttendanceRecordSingleSubject = "lfx.community-api.attendance.record_single"
	AttendanceGetSubject          = "lfx.community-api.attendance.get"
	AttendanceGetPublicSubject    = "lfx.community-api.attendance.get_public"

	ParticipationMemberRateSubject = "lfx.community-api.participation.member_rate"
	ParticipationListingSubject    = "lfx.community-api.participation.listing"
	ParticipationDashboardSubject  = "lfx.community-api.participation.dashboard"

	MemberAddSubject         = "lfx.community-api.member.add"
	MemberUpdateStateSubject = "lfx.community-api.member.update_state"
	MemberListSubject        = "lfx.community-api.member.list"
)

// MessageAction is a type for the action of a meeting event.
type MessageAction string

// MessageAction constants for the action of a meeting event.
const (
	// ActionCreated is the action for a resource creation.
	ActionCreated MessageAction = "created"
	// ActionUpdated is the action for a resource update.
	ActionUpdated MessageAction = "updated"
	// ActionDeleted is the action for a resource deletion.
	ActionDeleted MessageAction = "deleted"
)

// MeetingEventMessage is the body of created/updated/instance-created events.
type MeetingEventMessage struct {
	Action  MessageAction `json:"action"`
	Meeting *Meeting      `json:"meeting"`
}

// MeetingDeletedMessage is the body of a meeting deleted event.
type MeetingDeletedMessage struct {
	MeetingUID       string  `json:"meeting_uid"`
	CommunityUID     string  `json:"community_uid"`
	ParentMeetingUID *string `json:"parent_meeting_uid,omitempty"`
	Scope            Scope   `json:"scope"`
}

// AttendanceRecordedMessage is the body of an attendance recorded event.
type AttendanceRecordedMessage struct {
	MeetingUID   string   `json:"meeting_uid"`
	CommunityUID string   `json:"community_uid"`
	MemberUIDs   []string `json:"member_uids"`
	Replaced     bool     `json:"replaced"`
}
