package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/apperrors"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondAppError maps a service error onto the wire envelope. Handlers call
// this instead of switching on error kinds themselves.
func RespondAppError(ctx *gin.Context, err error) {
	var appErr *apperrors.Error

	if !errors.As(err, &appErr) {
		slog.Default().ErrorContext(ctx.Request.Context(), "unclassified_error", "error", err)
		RespondInternal(ctx, "An unexpected error occurred")
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		RespondError(ctx, http.StatusBadRequest, "validation_error", appErr.Message, fieldDetails(appErr.Fields))
	case apperrors.KindUnauthenticated:
		RespondError(ctx, http.StatusUnauthorized, "unauthenticated", appErr.Message, nil)
	case apperrors.KindForbidden:
		RespondError(ctx, http.StatusForbidden, "forbidden", appErr.Message, nil)
	case apperrors.KindNotFound:
		RespondNotFound(ctx, appErr.Message)
	case apperrors.KindConflict:
		RespondError(ctx, http.StatusConflict, "conflict", appErr.Message, nil)
	case apperrors.KindDisabled:
		RespondError(ctx, http.StatusForbidden, "registration_disabled", appErr.Message, nil)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "internal_error", "error", err)
		RespondInternal(ctx, "An unexpected error occurred")
	}
}

func fieldDetails(fields map[string]string) interface{} {
	if len(fields) == 0 {
		return nil
	}

	out := make([]FieldError, 0, len(fields))

	for field, message := range fields {
		out = append(out, FieldError{Field: field, Message: message})
	}

	return gin.H{"fields": out}
}
