// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ErrNotConnected is returned when publishing while the NATS connection is down.
var ErrNotConnected = errors.New("nats connection is not available")

// INatsConn is the part of a NATS connection the MessageBuilder needs.
type INatsConn interface {
	IsConnected() bool
	PublishMsg(msg *nats.Msg) error
}

// MessageBuilder encodes community events and publishes them on NATS.
type MessageBuilder struct {
	NatsConn INatsConn
}

var _ domain.MessageBuilder = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// publish sends data on subject. The request id, the acting principal and the
// trace context of ctx travel as message headers.
func (m *MessageBuilder) publish(ctx context.Context, subject string, data []byte) error {
	if m.NatsConn == nil || !m.NatsConn.IsConnected() {
		slog.ErrorContext(ctx, "cannot publish to NATS", logging.ErrKey, ErrNotConnected, "subject", subject)
		return ErrNotConnected
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok && requestID != "" {
		msg.Header.Set(constants.RequestIDHeader, requestID)
	}
	if principal, ok := ctx.Value(constants.PrincipalContextID).(string); ok && principal != "" {
		msg.Header.Set(constants.XOnBehalfOfHeader, principal)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := m.NatsConn.PublishMsg(msg); err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

func (m *MessageBuilder) publishJSON(ctx context.Context, subject string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}
	return m.publish(ctx, subject, data)
}

// SendMeetingEvent publishes a created, updated or instance-created event.
func (m *MessageBuilder) SendMeetingEvent(ctx context.Context, subject string, msg models.MeetingEventMessage) error {
	return m.publishJSON(ctx, subject, msg)
}

// SendMeetingDeleted publishes the removal of one meeting row.
func (m *MessageBuilder) SendMeetingDeleted(ctx context.Context, msg models.MeetingDeletedMessage) error {
	return m.publishJSON(ctx, models.MeetingDeletedSubject, msg)
}

// SendAttendanceRecorded publishes an attendance change.
func (m *MessageBuilder) SendAttendanceRecorded(ctx context.Context, msg models.AttendanceRecordedMessage) error {
	return m.publishJSON(ctx, models.AttendanceRecordedSubject, msg)
}
