package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/conschedule/internal/scheduler"
)

// CapacityService reports how full catalog events are.
type CapacityService struct {
	catalog EventCatalog
	logger  *slog.Logger
}

// NewCapacityService constructs a capacity service.
func NewCapacityService(catalog EventCatalog) *CapacityService {
	return NewCapacityServiceWithLogger(catalog, nil)
}

// NewCapacityServiceWithLogger constructs a capacity service with a specified logger.
func NewCapacityServiceWithLogger(catalog EventCatalog, logger *slog.Logger) *CapacityService {
	return &CapacityService{catalog: catalog, logger: defaultLogger(logger)}
}

// EventCapacity returns the ticket count, current desired-event count and
// whether the event is at capacity.
func (s *CapacityService) EventCapacity(ctx context.Context, eventID string) (capacity EventCapacity, err error) {
	if s == nil || s.catalog == nil {
		err = fmt.Errorf("CapacityService is not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "CapacityService", "EventCapacity", "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to read event capacity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("signup_count", capacity.SignupCount, "at_capacity", capacity.AtCapacity).DebugContext(ctx, "event capacity read")
	}()

	event, err := loadCatalogEvent(ctx, s.catalog, eventID)
	if err != nil {
		return
	}

	count, err := s.catalog.CountSignups(ctx, eventID)
	if err != nil {
		err = storageFailure(err)
		return
	}

	capacity = EventCapacity{
		EventID:          event.ID,
		TicketsAvailable: event.TicketsAvailable,
		SignupCount:      count,
		AtCapacity:       scheduler.IsAtCapacity(event.TicketsAvailable, count),
	}
	return
}

// loadCatalogEvent fetches an event, reporting a missing one as ErrEventNotFound.
func loadCatalogEvent(ctx context.Context, catalog EventCatalog, eventID string) (CatalogEvent, error) {
	if eventID == "" {
		return CatalogEvent{}, ErrEventNotFound
	}
	event, err := catalog.GetEvent(ctx, eventID)
	if err != nil {
		if isNotFoundError(err) {
			return CatalogEvent{}, ErrEventNotFound
		}
		return CatalogEvent{}, storageFailure(err)
	}
	return event, nil
}
