package web

// errors.go turns handler errors into responses.
//
// Every error is logged server-side with its technical detail and request
// id, then mapped by core.MapError to a user message with a support code.
// The message is rendered as an HTMX fragment, JSON, or plain text
// depending on the request.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fieldform/internal/core"
	"github.com/JonMunkholm/fieldform/internal/logging"
	"github.com/JonMunkholm/fieldform/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errorStatus maps engine errors to HTTP status codes; the first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{errInvalidBody, http.StatusBadRequest},
	{core.ErrNoFile, http.StatusBadRequest},
	{core.ErrUnsupportedFile, http.StatusUnsupportedMediaType},
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrUndecodable, http.StatusUnprocessableEntity},
	{core.ErrColumnMismatch, http.StatusUnprocessableEntity},
	{core.ErrSensorUnsupported, http.StatusUnprocessableEntity},
	{core.ErrPermissionDenied, http.StatusUnprocessableEntity},
	{core.ErrAcquisitionFailed, http.StatusUnprocessableEntity},
	{core.ErrOperationInProgress, http.StatusConflict},
	{core.ErrSessionNotFound, http.StatusGone},
	{core.ErrFontUnavailable, http.StatusServiceUnavailable},
	{core.ErrTooManyRenders, http.StatusServiceUnavailable},
	{core.ErrRenderFailed, http.StatusInternalServerError},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	for _, es := range errorStatus {
		if errors.Is(err, es.err) {
			return es.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes a user-friendly error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if errors.Is(err, core.ErrTooManyRenders) {
		w.Header().Set("Retry-After", strconv.Itoa(5))
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		writeJSON(w, status, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
	}
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response. API routes
// default to JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
