package web

// errors.go turns errors into JSON responses. The technical error is logged
// with the request ID; the client gets the mapped user message and code.

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/logging"
	"github.com/JonMunkholm/memberdesk/internal/uploads"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadJSON     = fmt.Errorf("%w: request body must be a JSON object", core.ErrValidation)
	errBadDate     = fmt.Errorf("%w: invalid date in beforeJoined", core.ErrValidation)
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case core.IsPreflight(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrMembershipDateRequired),
		errors.Is(err, core.ErrBulkDeleteUnscoped):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, uploads.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, uploads.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status statusFor chooses.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusFor(err), err)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	// Pre-flight import errors are reported verbatim; they describe the
	// uploaded file, not the server.
	text := msg.Message
	if core.IsPreflight(err) {
		text = err.Error()
	}
	writeJSON(w, status, ErrorResponse{
		Error:   text,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
