package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loykin/welltrack/internal/auth"
	"github.com/loykin/welltrack/internal/confirm"
	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
	"github.com/loykin/welltrack/internal/tracker"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeValidation       = "validation_error"
	CodeAuth             = "auth_error"
	CodePermission       = "permission_denied"
	CodeUnknownWell      = "unknown_well"
	CodeUnknownProcess   = "unknown_process"
	CodeUnknownWorkflow  = "unknown_workflow"
	CodeNotFound         = "not_found"
	CodePendingNotFound  = "pending_not_found"
	CodeInternal         = "internal_error"
	CodeStoreUnavailable = "store_unavailable"
)

// respondError sends a standardized error response
func respondError(c *gin.Context, statusCode int, errorCode, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// handleBindingError handles JSON binding errors
func handleBindingError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid request body: "+err.Error())
}

// statusFor maps a service error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	var ve *record.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, auth.ErrUserNotRecognized):
		return http.StatusUnauthorized, CodeAuth
	case errors.Is(err, auth.ErrPermissionDenied):
		return http.StatusForbidden, CodePermission
	case errors.Is(err, tracker.ErrUnknownWell):
		return http.StatusNotFound, CodeUnknownWell
	case errors.Is(err, tracker.ErrUnknownProcess):
		return http.StatusNotFound, CodeUnknownProcess
	case errors.Is(err, tracker.ErrUnknownWorkflow):
		return http.StatusNotFound, CodeUnknownWorkflow
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, confirm.ErrPendingNotFound):
		return http.StatusNotFound, CodePendingNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (r *Router) handleError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		r.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		msg = "internal error"
	}
	var ve *record.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	respondError(c, status, code, msg)
}
