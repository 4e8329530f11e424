package handlers

import (
	"errors"
	"net/http"

	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// statusForError maps session failures to HTTP status codes.
func statusForError(err error) int {
	if errors.Is(err, service.ErrOperationInProgress) {
		return http.StatusConflict
	}
	if errors.Is(err, service.ErrNoDataTypes) {
		return http.StatusBadRequest
	}
	switch healtherr.KindOf(err) {
	case healtherr.KindNotInitialized:
		return http.StatusConflict
	case healtherr.KindPlatformUnsupported, healtherr.KindSdkUnavailable, healtherr.KindVersionIncompatible:
		return http.StatusServiceUnavailable
	case healtherr.KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// respondSessionError writes the mapped status with the user-facing message.
func (h *Handler) respondSessionError(c *gin.Context, logKey string, err error) {
	code := statusForError(err)
	if h.log != nil {
		h.log.Warnw(logKey, "err", err, "status", code)
	}

	body := gin.H{"error": healtherr.UserMessage(err)}
	var he *healtherr.Error
	if errors.As(err, &he) {
		body["kind"] = he.Kind
		if he.Code != "" {
			body["code"] = he.Code
		}
		if len(he.DeniedTypes) > 0 {
			body["denied_types"] = he.DeniedTypes
		}
	}
	c.JSON(code, body)
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...any) {
	if h.log != nil && err != nil {
		fields := append([]any{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
