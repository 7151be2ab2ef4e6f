// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/linuxfoundation/lfx-v2-community-service/internal/handlers"

type handlerFunc func(ctx context.Context, msg domain.Message) (any, error)

// CommunityHandler serves the community API request/reply subjects.
type CommunityHandler struct {
	meetingService       *service.MeetingService
	attendanceService    *service.AttendanceService
	participationService *service.ParticipationService
	memberService        *service.MemberService
	routes               map[string]handlerFunc
}

func NewCommunityHandler(
	meetingService *service.MeetingService,
	attendanceService *service.AttendanceService,
	participationService *service.ParticipationService,
	memberService *service.MemberService,
) *CommunityHandler {
	h := &CommunityHandler{
		meetingService:       meetingService,
		attendanceService:    attendanceService,
		participationService: participationService,
		memberService:        memberService,
	}
	h.routes = map[string]handlerFunc{
		models.MeetingCreateSubject:       h.HandleMeetingCreate,
		models.MeetingGetSubject:          h.HandleMeetingGet,
		models.MeetingListSubject:         h.HandleMeetingList,
		models.MeetingUpdateSubject:       h.HandleMeetingUpdate,
		models.MeetingDeleteSubject:       h.HandleMeetingDelete,
		models.MeetingNextInstanceSubject: h.HandleMeetingNextInstance,

		models.AttendanceRecordBulkSubject:   h.HandleAttendanceRecordBulk,
		models.AttendanceRecordSingleSubject: h.HandleAttendanceRecordSingle,
		models.AttendanceGetSubject:          h.HandleAttendanceGet,
		models.AttendanceGetPublicSubject:    h.HandleAttendanceGetPublic,

		models.ParticipationMemberRateSubject: h.HandleParticipationMemberRate,
		models.ParticipationListingSubject:    h.HandleParticipationListing,
		models.ParticipationDashboardSubject:  h.HandleParticipationDashboard,

		models.MemberAddSubject:         h.HandleMemberAdd,
		models.MemberUpdateStateSubject: h.HandleMemberUpdateState,
		models.MemberListSubject:        h.HandleMemberList,
	}
	return h
}

func (h *CommunityHandler) HandlerReady() bool {
	return h.meetingService != nil && h.meetingService.ServiceReady() &&
		h.attendanceService != nil && h.attendanceService.ServiceReady() &&
		h.participationService != nil && h.participationService.ServiceReady() &&
		h.memberService != nil && h.memberService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (h *CommunityHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = contextFromMessage(ctx, msg)
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))

	ctx, span := otel.Tracer(tracerName).Start(ctx, "nats.handle "+subject,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", subject),
		),
	)
	defer span.End()

	slog.DebugContext(ctx, "handling NATS message")

	var (
		data any
		err  error
	)
	handler, ok := h.routes[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		err = domain.NewValidationError("unknown subject " + subject)
	} else {
		data, err = handler(ctx, msg)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if domain.GetErrorType(err) == domain.ErrorTypeInternal {
			slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		} else {
			slog.InfoContext(ctx, "request rejected", logging.ErrKey, err, "code", domain.GetErrorType(err).String())
		}
	}

	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}

	response, encErr := encodeReply(data, err)
	if encErr != nil {
		slog.ErrorContext(ctx, "error encoding reply", logging.ErrKey, encErr)
		response, _ = encodeReply(nil, domain.NewInternalError("failed to encode reply", encErr))
	}
	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "responded to NATS message")
}

// contextFromMessage carries the caller's request id, principal and trace
// context into ctx.
func contextFromMessage(ctx context.Context, msg domain.Message) context.Context {
	ctx = otel.GetTextMapPropagator().Extract(ctx, messageCarrier{msg: msg})
	if requestID := msg.Header(constants.RequestIDHeader); requestID != "" {
		ctx = context.WithValue(ctx, constants.RequestIDContextID, requestID)
		ctx = logging.AppendCtx(ctx, slog.String("request_id", requestID))
	}
	if principal := msg.Header(constants.XOnBehalfOfHeader); principal != "" {
		ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
		ctx = logging.AppendCtx(ctx, slog.String("principal", principal))
	}
	return ctx
}

// messageCarrier adapts message headers to a read-only propagation carrier.
type messageCarrier struct {
	msg domain.Message
}

func (c messageCarrier) Get(key string) string { return c.msg.Header(key) }
func (c messageCarrier) Set(string, string)    {}
func (c messageCarrier) Keys() []string        { return nil }

// Meetings

func (h *CommunityHandler) HandleMeetingCreate(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[meetingCreateRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID); err != nil {
		return nil, err
	}
	return h.meetingService.CreateMeeting(ctx, req.CommunityUID, req.Meeting)
}

func (h *CommunityHandler) HandleMeetingGet(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[meetingRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	return h.meetingService.GetMeeting(ctx, req.MeetingUID)
}

func (h *CommunityHandler) HandleMeetingList(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[communityRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID); err != nil {
		return nil, err
	}
	return h.meetingService.ListMeetings(ctx, req.CommunityUID)
}

func (h *CommunityHandler) HandleMeetingUpdate(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[meetingUpdateRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	scope, err := parseScope(req.Scope)
	if err != nil {
		return nil, err
	}
	return h.meetingService.UpdateMeeting(ctx, req.MeetingUID, req.Meeting, scope)
}

func (h *CommunityHandler) HandleMeetingDelete(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[meetingRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	scope, err := parseScope(req.Scope)
	if err != nil {
		return nil, err
	}
	if err := h.meetingService.DeleteMeeting(ctx, req.MeetingUID, scope); err != nil {
		return nil, err
	}
	return deleteResponse{MeetingUID: req.MeetingUID, Scope: scope}, nil
}

func (h *CommunityHandler) HandleMeetingNextInstance(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[meetingRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	return h.meetingService.CreateNextInstance(ctx, req.MeetingUID)
}

// Attendance

func (h *CommunityHandler) HandleAttendanceRecordBulk(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[attendanceBulkRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	return h.attendanceService.RecordBulk(ctx, req.MeetingUID, req.Records)
}

func (h *CommunityHandler) HandleAttendanceRecordSingle(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[attendanceSingleRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs(
		"community_uid", req.CommunityUID,
		"meeting_uid", req.MeetingUID,
		"member_uid", req.MemberUID,
	); err != nil {
		return nil, err
	}
	return h.attendanceService.RecordSingle(ctx, req.CommunityUID, req.MeetingUID, req.MemberUID, req.Attended)
}

func (h *CommunityHandler) HandleAttendanceGet(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[meetingRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	return h.attendanceService.GetAttendance(ctx, req.MeetingUID)
}

func (h *CommunityHandler) HandleAttendanceGetPublic(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[publicAttendanceRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID, "meeting_uid", req.MeetingUID); err != nil {
		return nil, err
	}
	return h.attendanceService.GetPublicAttendance(ctx, req.CommunityUID, req.MeetingUID)
}

// Participation

func (h *CommunityHandler) HandleParticipationMemberRate(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[memberRateRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("member_uid", req.MemberUID); err != nil {
		return nil, err
	}
	for _, uid := range req.MeetingUIDs {
		if err := requireUIDs("meeting_uids", uid); err != nil {
			return nil, err
		}
	}
	rate, err := h.participationService.MemberAttendanceRate(ctx, req.MemberUID, req.MeetingUIDs)
	if err != nil {
		return nil, err
	}
	return memberRateResponse{
		MemberUID:      req.MemberUID,
		AttendanceRate: rate,
		Frequency:      service.ClassifyFrequency(rate),
	}, nil
}

func (h *CommunityHandler) HandleParticipationListing(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[communityRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID); err != nil {
		return nil, err
	}
	return h.participationService.CommunityMemberListing(ctx, req.CommunityUID)
}

func (h *CommunityHandler) HandleParticipationDashboard(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[communityRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID); err != nil {
		return nil, err
	}
	return h.participationService.DashboardStats(ctx, req.CommunityUID)
}

// Members

func (h *CommunityHandler) HandleMemberAdd(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[memberAddRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID); err != nil {
		return nil, err
	}
	return h.memberService.AddMember(ctx, req.CommunityUID, req.Member)
}

func (h *CommunityHandler) HandleMemberUpdateState(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[memberStateRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("member_uid", req.MemberUID); err != nil {
		return nil, err
	}
	return h.memberService.UpdateMemberState(ctx, req.MemberUID, req.State)
}

func (h *CommunityHandler) HandleMemberList(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[communityRequest](msg)
	if err != nil {
		return nil, err
	}
	if err := requireUIDs("community_uid", req.CommunityUID); err != nil {
		return nil, err
	}
	return h.memberService.ListMembers(ctx, req.CommunityUID)
}
