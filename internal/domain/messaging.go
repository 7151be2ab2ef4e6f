// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Header(key string) string
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// MeetingEventSender publishes meeting lifecycle events.
type MeetingEventSender interface {
	SendMeetingEvent(ctx context.Context, subject string, msg models.MeetingEventMessage) error
	SendMeetingDeleted(ctx context.Context, msg models.MeetingDeletedMessage) error
}

// AttendanceEventSender publishes attendance events.
type AttendanceEventSender interface {
	SendAttendanceRecorded(ctx context.Context, msg models.AttendanceRecordedMessage) error
}

// MessageBuilder is the interface for the message builder.
type MessageBuilder interface {
	MeetingEventSender
	AttendanceEventSender
}
