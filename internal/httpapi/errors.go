package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-console/internal/attendance"
	"attendance-console/internal/remote"
	"attendance-console/internal/scan"
	"attendance-console/internal/session"
)

// writeError maps domain errors onto status codes. The code field lets the
// UI tell a wrong-session scan apart from a bad code.
func writeError(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func classify(err error) (int, string, string) {
	var (
		derr   *attendance.DispatchError
		apiErr *remote.APIError
	)
	switch {
	case errors.Is(err, scan.ErrSessionMismatch):
		return http.StatusConflict, "session_mismatch", err.Error()
	case errors.Is(err, scan.ErrInvalidID):
		return http.StatusUnprocessableEntity, "invalid_id", err.Error()
	case errors.Is(err, scan.ErrMalformed):
		return http.StatusUnprocessableEntity, "malformed", err.Error()
	case errors.Is(err, scan.ErrBusy):
		return http.StatusTooManyRequests, "scanner_busy", "Scanner is busy"
	case errors.Is(err, attendance.ErrInFlight):
		return http.StatusConflict, "in_flight", scan.Message(err)
	case errors.Is(err, attendance.ErrActionUnavailable):
		return http.StatusConflict, "action_unavailable", scan.Message(err)
	case errors.Is(err, attendance.ErrParticipantNotFound):
		return http.StatusNotFound, "participant_not_found", scan.Message(err)
	case errors.Is(err, attendance.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, attendance.ErrInvalidConfiguration):
		return http.StatusInternalServerError, "invalid_configuration", "Invalid marking configuration"
	case errors.As(err, &derr):
		return http.StatusBadGateway, "upstream", derr.Message()
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = "Upstream request failed"
		}
		return http.StatusBadGateway, "upstream", msg
	case errors.Is(err, session.ErrNotFound):
		return http.StatusUnauthorized, "session_expired", "session expired"
	}
	return http.StatusInternalServerError, "internal", "internal error"
}
