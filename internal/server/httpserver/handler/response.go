package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
	"github.com/yndnr/statichost-go/internal/telemetry/tracer"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError renders err as an ErrorResponse. Errors that are not domain
// errors are logged and reported as internal errors.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(r.Context()).Error("internal error", "error", err)
		de = domain.ErrInternalServer
	}

	status := de.HTTPStatus()
	if status >= http.StatusInternalServerError {
		tracer.Fail(r.Context(), err)
	}

	requestID := logger.RequestIDFromContext(r.Context())
	resp := ErrorResponse{
		Code:      de.Code,
		Message:   de.Message,
		Details:   de.Details,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
