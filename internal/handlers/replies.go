// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
)

// Reply is the envelope of every request/reply response. Exactly one of Data
// and Error is set.
type Reply struct {
	Data  any         `json:"data,omitempty"`
	Error *ReplyError `json:"error,omitempty"`
}

// ReplyError describes a failed request.
type ReplyError struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// StatusCode maps an error type onto the HTTP status callers switch on.
func StatusCode(t domain.ErrorType) int {
	switch t {
	case domain.ErrorTypeValidation, domain.ErrorTypeInvalidState, domain.ErrorTypeTemporalConstraint:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newErrorReply(err error) Reply {
	errType := domain.GetErrorType(err)
	message := err.Error()
	if errType == domain.ErrorTypeInternal {
		// Internal details stay in the logs.
		message = "internal error"
	}
	return Reply{Error: &ReplyError{
		Code:    errType.String(),
		Status:  StatusCode(errType),
		Message: message,
	}}
}

func encodeReply(data any, err error) ([]byte, error) {
	if err != nil {
		return json.Marshal(newErrorReply(err))
	}
	return json.Marshal(Reply{Data: data})
}
