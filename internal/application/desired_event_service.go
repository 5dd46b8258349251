package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/conschedule/internal/scheduler"
)

// DesiredEventService manages a user's wishlist of catalog events.
type DesiredEventService struct {
	flow   signupFlow
	logger *slog.Logger
}

// NewDesiredEventService wires dependencies for wishlist operations.
func NewDesiredEventService(signups SignupStore, catalog EventCatalog, conflicts ConflictFinder, idGenerator func() string, now func() time.Time) *DesiredEventService {
	return NewDesiredEventServiceWithLogger(signups, catalog, conflicts, idGenerator, now, nil)
}

// NewDesiredEventServiceWithLogger constructs the service with a specified logger.
func NewDesiredEventServiceWithLogger(signups SignupStore, catalog EventCatalog, conflicts ConflictFinder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DesiredEventService {
	return &DesiredEventService{
		flow:   newSignupFlow(signups, catalog, conflicts, idGenerator, now),
		logger: defaultLogger(logger),
	}
}

func (s *DesiredEventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DesiredEventService", operation, attrs...)
}

// AddDesiredEvent adds eventID to the user's wishlist. Conflicts and the
// capacity warning are advisory: the event is added regardless. Capacity is
// judged on the count before this add.
func (s *DesiredEventService) AddDesiredEvent(ctx context.Context, userID, eventID string) (result AddDesiredEventResult, err error) {
	if s == nil || s.flow.signups == nil || s.flow.catalog == nil {
		err = fmt.Errorf("DesiredEventService: %w", errSignupNotConfigured)
		return
	}

	logger := s.loggerWith(ctx, "AddDesiredEvent", "user_id", userID, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add desired event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"desired_event_id", result.DesiredEvent.ID,
			"conflict_count", len(result.Conflicts),
			"capacity_warning", result.CapacityWarning,
		).InfoContext(ctx, "desired event added")
	}()

	if err = s.flow.validate(userID, eventID); err != nil {
		return
	}
	if err = s.flow.ensureNotRegistered(ctx, userID, eventID); err != nil {
		return
	}

	var event CatalogEvent
	event, err = loadCatalogEvent(ctx, s.flow.catalog, eventID)
	if err != nil {
		return
	}

	var conflicts []scheduler.Commitment
	conflicts, err = s.flow.eventConflicts(ctx, userID, event)
	if err != nil {
		return
	}

	var count int
	count, err = s.flow.catalog.CountSignups(ctx, eventID)
	if err != nil {
		err = storageFailure(err)
		return
	}
	warning := scheduler.IsAtCapacity(event.TicketsAvailable, count)

	var signup EventSignup
	signup, err = s.flow.persist(ctx, userID, eventID)
	if err != nil {
		return
	}

	result = AddDesiredEventResult{
		DesiredEvent:    signup,
		Conflicts:       conflicts,
		CapacityWarning: warning,
	}
	return
}

// RemoveDesiredEvent removes eventID from the user's wishlist.
func (s *DesiredEventService) RemoveDesiredEvent(ctx context.Context, userID, eventID string) (err error) {
	if s == nil || s.flow.signups == nil {
		return fmt.Errorf("DesiredEventService: %w", errSignupNotConfigured)
	}

	logger := s.loggerWith(ctx, "RemoveDesiredEvent", "user_id", userID, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove desired event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "desired event removed")
	}()

	if err = s.flow.validate(userID, eventID); err != nil {
		return
	}
	err = s.flow.remove(ctx, userID, eventID)
	return
}
