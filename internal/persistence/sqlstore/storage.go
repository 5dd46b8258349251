package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/conschedule/internal/persistence/sqlstore/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQL-backed repositories over a single pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users          *UserRepository
	Events         *EventRepository
	DesiredEvents  *SignupRepository
	TrackedEvents  *SignupRepository
	PersonalEvents *PersonalEventRepository
	Purchases      *PurchaseRepository
}

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.DatabaseConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:           pool,
		logger:         logger.With("component", "storage", "driver", string(config.Driver)),
		Users:          NewUserRepository(pool),
		Events:         NewEventRepository(pool),
		DesiredEvents:  NewSignupRepository(pool, DesiredEventsTable),
		TrackedEvents:  NewSignupRepository(pool, TrackedEventsTable),
		PersonalEvents: NewPersonalEventRepository(pool),
		Purchases:      NewPurchaseRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations, retrying while the database is busy.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLExecutor(s.pool.DB(), s.pool.Driver()),
		migrationFiles,
		"migrations",
		s.logger,
	)

	if err := NewRetryHelper(DefaultRetryConfig()).WithRetry(ctx, func() error {
		return manager.RunMigrations(ctx)
	}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
