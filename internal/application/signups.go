package application

import (
	"context"
	"errors"
	"time"

	"github.com/example/conschedule/internal/scheduler"
)

// signupFlow holds the add and remove steps shared by desired and tracked events.
type signupFlow struct {
	signups     SignupStore
	catalog     EventCatalog
	conflicts   ConflictFinder
	idGenerator func() string
	now         func() time.Time
}

// ensureNotRegistered fails with ErrAlreadyRegistered when the pair exists.
func (f signupFlow) ensureNotRegistered(ctx context.Context, userID, eventID string) error {
	_, err := f.signups.GetSignup(ctx, userID, eventID)
	switch {
	case err == nil:
		return ErrAlreadyRegistered
	case isNotFoundError(err):
		return nil
	default:
		return storageFailure(err)
	}
}

// eventConflicts returns the user's commitments overlapping event. An event
// without a usable window conflicts with nothing.
func (f signupFlow) eventConflicts(ctx context.Context, userID string, event CatalogEvent) ([]scheduler.Commitment, error) {
	if f.conflicts == nil || !event.Window.Valid() {
		return []scheduler.Commitment{}, nil
	}
	result, err := f.conflicts.FindConflicts(ctx, ConflictQuery{
		UserID:         userID,
		Window:         event.Window,
		ExcludeEventID: event.ID,
	})
	if err != nil {
		return nil, err
	}
	return result.Conflicts, nil
}

// persist stores the link. Losing a race against a concurrent add surfaces
// as ErrAlreadyRegistered.
func (f signupFlow) persist(ctx context.Context, userID, eventID string) (EventSignup, error) {
	signup := EventSignup{
		ID:        f.idGenerator(),
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: f.now(),
	}
	persisted, err := f.signups.CreateSignup(ctx, signup)
	if err != nil {
		return EventSignup{}, mapStorageError(err)
	}
	return persisted, nil
}

func (f signupFlow) remove(ctx context.Context, userID, eventID string) error {
	if err := f.signups.DeleteSignup(ctx, userID, eventID); err != nil {
		if isNotFoundError(err) {
			return ErrNotFound
		}
		return storageFailure(err)
	}
	return nil
}

func (f signupFlow) validate(userID, eventID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if eventID == "" {
		vErr := &ValidationError{}
		vErr.add("event_id", "event_id is required")
		return vErr
	}
	return nil
}

func newSignupFlow(signups SignupStore, catalog EventCatalog, conflicts ConflictFinder, idGenerator func() string, now func() time.Time) signupFlow {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return signupFlow{signups: signups, catalog: catalog, conflicts: conflicts, idGenerator: idGenerator, now: now}
}

var errSignupNotConfigured = errors.New("signup store not configured")
