package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/conschedule/internal/application"
	"github.com/example/conschedule/internal/calendar"
	"github.com/example/conschedule/internal/scheduler"
)

type conflictService interface {
	CheckConflicts(ctx context.Context, principal application.Principal, query application.ConflictQuery) (scheduler.ConflictResult, error)
	ListCommitments(ctx context.Context, principal application.Principal) ([]scheduler.Commitment, error)
}

// ScheduleHandler serves conflict checks and the user's merged schedule.
type ScheduleHandler struct {
	service   conflictService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewScheduleHandler(service conflictService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		responder: newResponder(logger),
		logger:    defaultLogger(logger),
		now:       time.Now,
	}
}

// CheckConflicts handles POST /me/conflicts.
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}

	var req conflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CheckConflicts(c.Request.Context(), principal, req.toQuery())
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}

	h.responder.writeJSON(c, http.StatusOK, conflictResponse{
		HasConflicts: result.HasConflicts,
		Conflicts:    toCommitmentDTOs(result.Conflicts),
	})
}

// List handles GET /me/schedule.
func (h *ScheduleHandler) List(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}

	commitments, err := h.service.ListCommitments(c.Request.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, scheduleResponse{Commitments: toCommitmentDTOs(commitments)})
}

// ExportICS handles GET /me/schedule.ics.
func (h *ScheduleHandler) ExportICS(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}

	commitments, err := h.service.ListCommitments(c.Request.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}

	payload, skipped := calendar.Export("Convention schedule", commitments, h.now())
	if skipped > 0 {
		handlerLogger(c.Request.Context(), h.logger, "ScheduleHandler", "ExportICS").
			DebugContext(c.Request.Context(), "untimed commitments left out of export", "skipped", skipped)
	}

	c.Header("Content-Disposition", `attachment; filename="schedule.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(payload))
}
