// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
)

// Request bodies of the community API subjects.

type communityRequest struct {
	CommunityUID string `json:"community_uid"`
}

type meetingRequest struct {
	MeetingUID string `json:"meeting_uid"`
	Scope      string `json:"scope,omitempty"`
}

type meetingCreateRequest struct {
	CommunityUID string                `json:"community_uid"`
	Meeting      *models.MeetingCreate `json:"meeting"`
}

type meetingUpdateRequest struct {
	MeetingUID string                `json:"meeting_uid"`
	Scope      string                `json:"scope,omitempty"`
	Meeting    *models.MeetingUpdate `json:"meeting"`
}

type attendanceBulkRequest struct {
	MeetingUID string                   `json:"meeting_uid"`
	Records    []models.AttendanceInput `json:"records"`
}

type attendanceSingleRequest struct {
	CommunityUID string `json:"community_uid"`
	MeetingUID   string `json:"meeting_uid"`
	MemberUID    string `json:"member_uid"`
	Attended     bool   `json:"attended"`
}

type publicAttendanceRequest struct {
	CommunityUID string `json:"community_uid"`
	MeetingUID   string `json:"meeting_uid"`
}

type memberRateRequest struct {
	MemberUID   string   `json:"member_uid"`
	MeetingUIDs []string `json:"meeting_uids"`
}

type memberRateResponse struct {
	MemberUID      string                 `json:"member_uid"`
	AttendanceRate float64                `json:"attendance_rate"`
	Frequency      models.FrequencyBucket `json:"frequency"`
}

type memberAddRequest struct {
	CommunityUID string               `json:"community_uid"`
	Member       *models.MemberCreate `json:"member"`
}

type memberStateRequest struct {
	MemberUID string             `json:"member_uid"`
	State     models.MemberState `json:"state"`
}

type deleteResponse struct {
	MeetingUID string       `json:"meeting_uid"`
	Scope      models.Scope `json:"scope"`
}

func decode[T any](msg domain.Message) (*T, error) {
	var req T
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		return nil, domain.NewValidationError("invalid request body", err)
	}
	return &req, nil
}

// requireUIDs checks that each named value is a UUID.
func requireUIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		name, value := pairs[i], pairs[i+1]
		if _, err := uuid.Parse(value); err != nil {
			return domain.NewValidationError(fmt.Sprintf("%s must be a valid UUID", name), err)
		}
	}
	return nil
}

func parseScope(value string) (models.Scope, error) {
	scope, ok := models.ParseScope(value)
	if !ok {
		return "", domain.NewValidationError("scope must be one of this, all, all_future")
	}
	return scope, nil
}
