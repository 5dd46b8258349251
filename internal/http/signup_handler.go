package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/conschedule/internal/application"
)

type desiredEventService interface {
	AddDesiredEvent(ctx context.Context, userID, eventID string) (application.AddDesiredEventResult, error)
	RemoveDesiredEvent(ctx context.Context, userID, eventID string) error
}

type trackingService interface {
	TrackEvent(ctx context.Context, userID, eventID string) (application.TrackEventResult, error)
	UntrackEvent(ctx context.Context, userID, eventID string) error
}

// DesiredEventHandler serves the wishlist endpoints.
type DesiredEventHandler struct {
	service   desiredEventService
	responder responder
	logger    *slog.Logger
}

func NewDesiredEventHandler(service desiredEventService, logger *slog.Logger) *DesiredEventHandler {
	return &DesiredEventHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

// Add handles POST /me/desired-events.
func (h *DesiredEventHandler) Add(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.AddDesiredEvent(c.Request.Context(), principal.UserID, strings.TrimSpace(req.EventID))
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}

	if result.CapacityWarning {
		handlerLogger(c.Request.Context(), h.logger, "DesiredEventHandler", "Add", "event_id", req.EventID).
			InfoContext(c.Request.Context(), "desired event added over capacity")
	}

	h.responder.writeJSON(c, http.StatusCreated, addDesiredEventResponse{
		DesiredEvent:    toSignupDTO(result.DesiredEvent),
		Conflicts:       toCommitmentDTOs(result.Conflicts),
		CapacityWarning: result.CapacityWarning,
	})
}

// Remove handles DELETE /me/desired-events/:eventID.
func (h *DesiredEventHandler) Remove(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(c, h.responder)
	if !ok {
		return
	}

	if err := h.service.RemoveDesiredEvent(c.Request.Context(), principal.UserID, eventID); err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusNoContent, nil)
}

// TrackedEventHandler serves the tracking endpoints.
type TrackedEventHandler struct {
	service   trackingService
	responder responder
}

func NewTrackedEventHandler(service trackingService, logger *slog.Logger) *TrackedEventHandler {
	return &TrackedEventHandler{service: service, responder: newResponder(logger)}
}

// Track handles POST /me/tracked-events.
func (h *TrackedEventHandler) Track(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.TrackEvent(c.Request.Context(), principal.UserID, strings.TrimSpace(req.EventID))
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}

	h.responder.writeJSON(c, http.StatusCreated, trackEventResponse{
		TrackedEvent: toSignupDTO(result.TrackedEvent),
		Conflicts:    toCommitmentDTOs(result.Conflicts),
	})
}

// Untrack handles DELETE /me/tracked-events/:eventID.
func (h *TrackedEventHandler) Untrack(c *gin.Context) {
	principal, ok := requirePrincipal(c, h.responder)
	if !ok {
		return
	}
	eventID, ok := eventIDParam(c, h.responder)
	if !ok {
		return
	}

	if err := h.service.UntrackEvent(c.Request.Context(), principal.UserID, eventID); err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusNoContent, nil)
}

func requirePrincipal(c *gin.Context, r responder) (application.Principal, bool) {
	principal, ok := PrincipalFromContext(c.Request.Context())
	if !ok || principal.UserID == "" {
		r.writeError(c, http.StatusUnauthorized, errMissingToken)
		return application.Principal{}, false
	}
	return principal, true
}

func eventIDParam(c *gin.Context, r responder) (string, bool) {
	eventID := strings.TrimSpace(c.Param("eventID"))
	if eventID == "" {
		r.writeError(c, http.StatusBadRequest, errMissingEventID)
		return "", false
	}
	return eventID, true
}
