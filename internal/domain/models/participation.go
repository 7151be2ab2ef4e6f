// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// FrequencyBucket is the categorical engagement level derived from an
// attendance rate.
type FrequencyBucket string

const (
	FrequencyBucketHigh   FrequencyBucket = "high"
	FrequencyBucketMedium FrequencyBucket = "medium"
	FrequencyBucketLow    FrequencyBucket = "low"
	FrequencyBucketNone   FrequencyBucket = "none"
)

// FrequencyBuckets lists every bucket from most to least engaged.
var FrequencyBuckets = []FrequencyBucket{
	FrequencyBucketHigh,
	FrequencyBucketMedium,
	FrequencyBucketLow,
	FrequencyBucketNone,
}

// MemberParticipation is a member with their derived attendance figures.
type MemberParticipation struct {
	Member         Member          `json:"member"`
	AttendedCount  int             `json:"attended_count"`
	MeetingCount   int             `json:"meeting_count"`
	AttendanceRate float64         `json:"attendance_rate"`
	Frequency      FrequencyBucket `json:"frequency"`
}

// DashboardStats are the community-wide aggregates shown on the dashboard.
type DashboardStats struct {
	CommunityUID          string                  `json:"community_uid" msgpack:"community_uid"`
	TotalMembers          int                     `json:"total_members" msgpack:"total_members"`
	MembersByState        map[MemberState]int     `json:"members_by_state" msgpack:"members_by_state"`
	ParticipationByBucket map[FrequencyBucket]int `json:"participation_by_frequency" msgpack:"participation_by_frequency"`
	WindowMeetingUIDs     []string                `json:"window_meeting_uids" msgpack:"window_meeting_uids"`
	ComputedAt            time.Time               `json:"computed_at" msgpack:"computed_at"`
}
