// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// MemberState is the membership state of a community member. It is
// independent of attendance.
type MemberState string

const (
	MemberStateActive   MemberState = "active"
	MemberStateInactive MemberState = "inactive"
	MemberStatePending  MemberState = "pending"
	MemberStateLeft     MemberState = "left"
)

// MemberStates lists every state in display order.
var MemberStates = []MemberState{
	MemberStateActive,
	MemberStateInactive,
	MemberStatePending,
	MemberStateLeft,
}

// Member is a community membership.
type Member struct {
	UID          string      `json:"uid"`
	CommunityUID string      `json:"community_uid"`
	DisplayName  string      `json:"display_name"`
	State        MemberState `json:"state"`
	JoinedAt     time.Time   `json:"joined_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// MemberCreate is the payload for adding a member to a community.
type MemberCreate struct {
	DisplayName string      `json:"display_name" validate:"required,max=255"`
	State       MemberState `json:"state,omitempty" validate:"omitempty,oneof=active inactive pending left"`
	JoinedAt    *time.Time  `json:"joined_at,omitempty"`
}
