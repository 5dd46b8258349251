package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/conschedule/internal/persistence"
	"github.com/example/conschedule/internal/persistence/sqlstore"
	"github.com/example/conschedule/internal/persistence/sqlstore/migration"
)

// SQLiteHarness wraps a migrated storage instance in a temporary file and
// seeds it from fixtures.
type SQLiteHarness struct {
	Storage *sqlstore.Storage

	tb      testing.TB
	signups *IDGenerator
}

// NewSQLiteHarness opens and migrates a fresh database. It is closed when the
// test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "conschedule.db")
	storage, err := sqlstore.Open(migration.TempFileTestConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{Storage: storage, tb: tb, signups: NewIDGenerator("signup")}
}

// SeedUsers inserts users.
func (h *SQLiteHarness) SeedUsers(users ...UserFixture) {
	h.tb.Helper()
	for _, user := range users {
		if err := h.Storage.Users.CreateUser(context.Background(), user.Persistence()); err != nil {
			h.tb.Fatalf("seed user %s: %v", user.ID, err)
		}
	}
}

// SeedEvents inserts catalog events.
func (h *SQLiteHarness) SeedEvents(events ...EventFixture) {
	h.tb.Helper()
	for _, event := range events {
		if err := h.Storage.Events.CreateEvent(context.Background(), event.Persistence()); err != nil {
			h.tb.Fatalf("seed event %s: %v", event.ID, err)
		}
	}
}

// SeedPersonalEvents inserts personal events with their attendees.
func (h *SQLiteHarness) SeedPersonalEvents(events ...PersonalEventFixture) {
	h.tb.Helper()
	for _, event := range events {
		if err := h.Storage.PersonalEvents.CreatePersonalEvent(context.Background(), event.Persistence()); err != nil {
			h.tb.Fatalf("seed personal event %s: %v", event.ID, err)
		}
	}
}

// SeedDesired adds eventID to each user's wishlist.
func (h *SQLiteHarness) SeedDesired(eventID string, userIDs ...string) {
	h.tb.Helper()
	h.seedSignups(h.Storage.DesiredEvents, eventID, userIDs)
}

// SeedTracked makes each user track eventID.
func (h *SQLiteHarness) SeedTracked(eventID string, userIDs ...string) {
	h.tb.Helper()
	h.seedSignups(h.Storage.TrackedEvents, eventID, userIDs)
}

func (h *SQLiteHarness) seedSignups(repo persistence.SignupRepository, eventID string, userIDs []string) {
	h.tb.Helper()
	for _, userID := range userIDs {
		signup := persistence.EventSignup{
			ID:        h.signups.Next(),
			UserID:    userID,
			EventID:   eventID,
			CreatedAt: referenceTime.Add(-30 * time.Minute),
		}
		if err := repo.CreateSignup(context.Background(), signup); err != nil {
			h.tb.Fatalf("seed signup %s/%s: %v", userID, eventID, err)
		}
	}
}

// SeedPurchases inserts tickets and their transactions.
func (h *SQLiteHarness) SeedPurchases(purchases ...PurchaseFixture) {
	h.tb.Helper()
	ctx := context.Background()
	for _, purchase := range purchases {
		if err := h.Storage.Purchases.CreateTransaction(ctx, purchase.Transaction()); err != nil {
			h.tb.Fatalf("seed transaction %s: %v", purchase.TransactionID, err)
		}
		if err := h.Storage.Purchases.CreatePurchasedEvent(ctx, purchase.Persistence()); err != nil {
			h.tb.Fatalf("seed purchase %s: %v", purchase.ID, err)
		}
	}
}
