package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/conschedule/internal/application"
)

var (
	errBadRequestBody = errors.New("request body is malformed")
	errMissingEventID = errors.New("event id is required")
	errMissingToken   = errors.New("bearer token is required")
	errInvalidToken   = errors.New("bearer token is invalid")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(c *gin.Context, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func (r responder) writeError(c *gin.Context, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(c).WarnContext(c.Request.Context(), "request rejected", "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto HTTP statuses.
func (r responder) handleServiceError(c *gin.Context, err error) {
	if err == nil {
		r.writeError(c, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.abort(c, http.StatusForbidden, "FORBIDDEN", "you are not allowed to perform this operation", nil)
	case errors.Is(err, application.ErrEventNotFound):
		r.abort(c, http.StatusNotFound, "EVENT_NOT_FOUND", "event not found", nil)
	case errors.Is(err, application.ErrNotFound):
		r.abort(c, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, application.ErrAlreadyRegistered):
		r.abort(c, http.StatusConflict, "ALREADY_REGISTERED", "event is already on your schedule", nil)
	case errors.Is(err, application.ErrInvalidWindow):
		r.abort(c, http.StatusUnprocessableEntity, "INVALID_WINDOW", "start must be before end", nil)
	case errors.As(err, &vErr):
		r.abort(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "request contains invalid fields", vErr.FieldErrors)
	case errors.Is(err, application.ErrStorageUnavailable):
		r.loggerFor(c).ErrorContext(c.Request.Context(), "storage unavailable", "error", err)
		r.abort(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage is temporarily unavailable", nil)
	default:
		r.loggerFor(c).ErrorContext(c.Request.Context(), "unexpected service error", "error", err)
		r.abort(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

func (r responder) abort(c *gin.Context, status int, code, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, errorResponse{ErrorCode: code, Message: message, Errors: fields})
}

func (r responder) loggerFor(c *gin.Context) *slog.Logger {
	if logger := LoggerFromContext(c.Request.Context()); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
