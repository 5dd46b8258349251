package application

import (
	"context"
	"errors"
	"testing"
)

func TestTrackingService(t *testing.T) {
	t.Parallel()

	event := catalogEvent("B", 11, 13)
	event.TicketsAvailable = intPtr(1)
	w := newWorld(catalogEvent("A", 10, 14), event)
	w.desired.seed("d-a", "user-1", "A")
	w.desired.seed("d-b", "user-2", "B")
	svc := w.trackingService()

	result, err := svc.TrackEvent(context.Background(), "user-1", "B")
	if err != nil {
		t.Fatalf("TrackEvent returned error: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].ID != "d-a" {
		t.Fatalf("expected conflict with desired A, got %+v", result.Conflicts)
	}
	if result.TrackedEvent.EventID != "B" {
		t.Fatalf("unexpected tracked event %+v", result.TrackedEvent)
	}
	if w.desired.count("B") != 1 {
		t.Fatalf("expected tracking not to count as a signup")
	}

	if _, err := svc.TrackEvent(context.Background(), "user-1", "B"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := svc.TrackEvent(context.Background(), "user-1", "ghost"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}

	if err := svc.UntrackEvent(context.Background(), "user-1", "B"); err != nil {
		t.Fatalf("UntrackEvent returned error: %v", err)
	}
	if err := svc.UntrackEvent(context.Background(), "user-1", "B"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
