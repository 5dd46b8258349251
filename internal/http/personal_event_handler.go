package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/conschedule/internal/application"
)

var errInvalidPersonalEventID = errors.New("personal event id is required")

type personalEventService interface {
	CreatePersonalEvent(ctx context.Context, params application.CreatePersonalEventParams) (application.PersonalEventResult, error)
	UpdatePersonalEvent(ctx context.Context, params application.UpdatePersonalEventParams) (application.PersonalEventResult, error)
	DeletePersonalEvent(ctx context.Context, principal application.Principal, personalEventID string) error
}

// PersonalEventHandler serves the personal event endpoints.
type PersonalEventHandler struct {
	service   personalEventService
	responder responder
}

func NewPersonalEventHandler(service personalEventService, logger *slog.Logger) *PersonalEventHandler {
	return &PersonalEventHandler{service: service, responder: newResponder(logger)}
}

// Create handles POST /me/personal-events.
func (h *PersonalEventHandler) Create(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}

	var req personalEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CreatePersonalEvent(c.Request.Context(), application.CreatePersonalEventParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusCreated, result)
}

// Update handles PUT /me/personal-events/:id.
func (h *PersonalEventHandler) Update(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.responder.writeError(c, http.StatusBadRequest, errInvalidPersonalEventID)
		return
	}

	var req personalEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.UpdatePersonalEvent(c.Request.Context(), application.UpdatePersonalEventParams{
		Principal:       principal,
		PersonalEventID: id,
		Input:           req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.render(c, http.StatusOK, result)
}

// Delete handles DELETE /me/personal-events/:id.
func (h *PersonalEventHandler) Delete(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.responder.writeError(c, http.StatusBadRequest, errInvalidPersonalEventID)
		return
	}

	if err := h.service.DeletePersonalEvent(c.Request.Context(), principal, id); err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusNoContent, nil)
}

func (h *PersonalEventHandler) render(c *gin.Context, status int, result application.PersonalEventResult) {
	h.responder.writeJSON(c, status, personalEventResponse{
		PersonalEvent: toPersonalEventDTO(result.PersonalEvent),
		Conflicts:     toCommitmentDTOs(result.Conflicts),
	})
}
