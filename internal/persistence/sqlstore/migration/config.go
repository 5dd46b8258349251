package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

// Driver names the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// SQLDriverName returns the database/sql driver registered for d.
func (d Driver) SQLDriverName() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Valid reports whether d is a supported backend.
func (d Driver) Valid() bool {
	return d == DriverSQLite || d == DriverPostgres
}

// Rebind rewrites "?" placeholders for the backend. Postgres expects $1..$n;
// quoted literals are left untouched.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DatabaseConfig holds connection settings for either backend.
type DatabaseConfig struct {
	// Driver selects SQLite or Postgres.
	Driver Driver

	// DSN is the SQLite file path or the Postgres connection string.
	DSN string

	// BusyTimeout sets how long SQLite waits for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables SQLite foreign key constraint checking
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// MaxOpenConns sets the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum lifetime of connections
	ConnMaxLifetime time.Duration
}

// ConnectionManager opens configured database handles.
type ConnectionManager interface {
	// GetConnection returns a configured, pinged database handle
	GetConnection() (*sql.DB, error)

	// ValidateConfig validates the configuration
	ValidateConfig() error
}

type connectionManager struct {
	config DatabaseConfig
}

// NewConnectionManager creates a connection manager for config.
func NewConnectionManager(config DatabaseConfig) ConnectionManager {
	return &connectionManager{config: config}
}

// GetConnection returns a configured database connection
func (cm *connectionManager) GetConnection() (*sql.DB, error) {
	if err := cm.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	dsn := cm.config.DSN
	if cm.config.Driver == DriverSQLite {
		if err := cm.createDatabaseDir(); err != nil {
			return nil, err
		}
		dsn = cm.sqliteDSN()
	}

	db, err := sql.Open(cm.config.Driver.SQLDriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cm.config.Driver, err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
	}
	if cm.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cm.config.MaxIdleConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cm.config.Driver, err)
	}

	return db, nil
}

// sqliteDSN encodes PRAGMAs into the DSN so every pooled connection gets them.
func (cm *connectionManager) sqliteDSN() string {
	params := url.Values{}
	if cm.config.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cm.config.BusyTimeout.Milliseconds()))
	}
	if cm.config.EnableForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}
	if cm.config.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", cm.config.JournalMode))
	}

	dsn := cm.config.DSN
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + params.Encode()
}

func (cm *connectionManager) createDatabaseDir() error {
	path := strings.TrimPrefix(cm.config.DSN, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// ValidateConfig validates the configuration
func (cm *connectionManager) ValidateConfig() error {
	if !cm.config.Driver.Valid() {
		return fmt.Errorf("unsupported driver %q", cm.config.Driver)
	}
	if cm.config.DSN == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if cm.config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	if cm.config.JournalMode != "" && !validJournalModes[cm.config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", cm.config.JournalMode)
	}

	if cm.config.MaxOpenConns < 0 {
		return fmt.Errorf("MaxOpenConns cannot be negative")
	}
	if cm.config.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}
	if cm.config.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

// DefaultDatabaseConfig returns a configuration with sensible defaults for driver.
func DefaultDatabaseConfig(driver Driver, dsn string) DatabaseConfig {
	cfg := DatabaseConfig{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
	if driver == DriverSQLite {
		cfg.BusyTimeout = 5 * time.Second
		cfg.EnableForeignKeys = true
		cfg.JournalMode = "WAL"
	}
	return cfg
}

// TempFileTestConfig returns a SQLite configuration for file-backed tests.
func TempFileTestConfig(path string) DatabaseConfig {
	return DatabaseConfig{
		Driver:            DriverSQLite,
		DSN:               path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
	}
}
