package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TrackingService manages the catalog events a user follows. Tracking is not
// a signup, so it never raises a capacity warning.
type TrackingService struct {
	flow   signupFlow
	logger *slog.Logger
}

// NewTrackingService wires dependencies for tracking operations.
func NewTrackingService(tracked SignupStore, catalog EventCatalog, conflicts ConflictFinder, idGenerator func() string, now func() time.Time) *TrackingService {
	return NewTrackingServiceWithLogger(tracked, catalog, conflicts, idGenerator, now, nil)
}

// NewTrackingServiceWithLogger constructs the service with a specified logger.
func NewTrackingServiceWithLogger(tracked SignupStore, catalog EventCatalog, conflicts ConflictFinder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TrackingService {
	return &TrackingService{
		flow:   newSignupFlow(tracked, catalog, conflicts, idGenerator, now),
		logger: defaultLogger(logger),
	}
}

// TrackEvent starts tracking eventID and reports overlapping commitments.
func (s *TrackingService) TrackEvent(ctx context.Context, userID, eventID string) (result TrackEventResult, err error) {
	if s == nil || s.flow.signups == nil || s.flow.catalog == nil {
		err = fmt.Errorf("TrackingService: %w", errSignupNotConfigured)
		return
	}

	logger := serviceLogger(ctx, s.logger, "TrackingService", "TrackEvent", "user_id", userID, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to track event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("tracked_event_id", result.TrackedEvent.ID, "conflict_count", len(result.Conflicts)).InfoContext(ctx, "event tracked")
	}()

	if err = s.flow.validate(userID, eventID); err != nil {
		return
	}
	if err = s.flow.ensureNotRegistered(ctx, userID, eventID); err != nil {
		return
	}

	event, err := loadCatalogEvent(ctx, s.flow.catalog, eventID)
	if err != nil {
		return
	}

	conflicts, err := s.flow.eventConflicts(ctx, userID, event)
	if err != nil {
		return
	}

	signup, err := s.flow.persist(ctx, userID, eventID)
	if err != nil {
		return
	}

	result = TrackEventResult{TrackedEvent: signup, Conflicts: conflicts}
	return
}

// UntrackEvent stops tracking eventID.
func (s *TrackingService) UntrackEvent(ctx context.Context, userID, eventID string) (err error) {
	if s == nil || s.flow.signups == nil {
		return fmt.Errorf("TrackingService: %w", errSignupNotConfigured)
	}

	logger := serviceLogger(ctx, s.logger, "TrackingService", "UntrackEvent", "user_id", userID, "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to untrack event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event untracked")
	}()

	if err = s.flow.validate(userID, eventID); err != nil {
		return
	}
	err = s.flow.remove(ctx, userID, eventID)
	return
}
