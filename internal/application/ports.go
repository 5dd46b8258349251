package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/conschedule/internal/persistence"
	"github.com/example/conschedule/internal/scheduler"
)

// EventCatalog exposes catalog lookups and the current desired-event count.
type EventCatalog interface {
	GetEvent(ctx context.Context, id string) (CatalogEvent, error)
	CountSignups(ctx context.Context, eventID string) (int, error)
}

// SignupStore stores user-to-event links. Desired and tracked events each
// have their own store.
type SignupStore interface {
	CreateSignup(ctx context.Context, signup EventSignup) (EventSignup, error)
	GetSignup(ctx context.Context, userID, eventID string) (EventSignup, error)
	DeleteSignup(ctx context.Context, userID, eventID string) error
	ListSignupsForUser(ctx context.Context, userID string) ([]SignupWithEvent, error)
}

// PersonalEventRepository captures the persistence interactions needed for personal events.
type PersonalEventRepository interface {
	CreatePersonalEvent(ctx context.Context, event PersonalEvent) (PersonalEvent, error)
	GetPersonalEvent(ctx context.Context, id string) (PersonalEvent, error)
	UpdatePersonalEvent(ctx context.Context, event PersonalEvent) (PersonalEvent, error)
	DeletePersonalEvent(ctx context.Context, id string) error
	ListPersonalEventsForUser(ctx context.Context, userID string) ([]PersonalEvent, error)
}

// PurchaseLedger lists tickets issued to a recipient name, with refund status.
type PurchaseLedger interface {
	ListPurchasesByRecipient(ctx context.Context, recipientName string) ([]Purchase, error)
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	ResolveDisplayName(ctx context.Context, userID string) (string, error)
	MissingUserIDs(ctx context.Context, ids []string) ([]string, error)
}

// ConflictFinder reports the commitments overlapping a window.
type ConflictFinder interface {
	FindConflicts(ctx context.Context, query ConflictQuery) (scheduler.ConflictResult, error)
}

// mapStorageError translates store errors into service errors. Errors the
// services do not recognise are wrapped with ErrStorageUnavailable.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyRegistered
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("references", "related records are missing")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("record", "record violates a storage constraint")
		return vErr
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
