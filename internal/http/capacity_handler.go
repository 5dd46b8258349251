package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/conschedule/internal/application"
)

type capacityService interface {
	EventCapacity(ctx context.Context, eventID string) (application.EventCapacity, error)
}

// CapacityHandler serves event capacity lookups.
type CapacityHandler struct {
	service   capacityService
	responder responder
}

func NewCapacityHandler(service capacityService, logger *slog.Logger) *CapacityHandler {
	return &CapacityHandler{service: service, responder: newResponder(logger)}
}

// Get handles GET /events/:eventID/capacity.
func (h *CapacityHandler) Get(c *gin.Context) {
	eventID, ok := eventIDParam(c, h.responder)
	if !ok {
		return
	}

	capacity, err := h.service.EventCapacity(c.Request.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}

	h.responder.writeJSON(c, http.StatusOK, capacityResponse{
		EventID:            capacity.EventID,
		TicketsAvailable:   capacity.TicketsAvailable,
		CurrentSignupCount: capacity.SignupCount,
		AtCapacity:         capacity.AtCapacity,
	})
}
