package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/conschedule/internal/persistence"
	"github.com/example/conschedule/internal/scheduler"
)

// EventRepository implements persistence.EventRepository over the events table.
type EventRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new catalog repository
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const eventColumns = `id, title, start_time, end_time, tickets_available, is_canceled, created_at, updated_at`

// CreateEvent inserts a catalog event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Title,
		nullableInstant(event.Start),
		nullableInstant(event.End),
		nullableInt(event.TicketsAvailable),
		boolToInt(event.IsCanceled),
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateEvent replaces the mutable fields of a catalog event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = time.Now().UTC()
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE events
		SET title = ?, start_time = ?, end_time = ?, tickets_available = ?, is_canceled = ?, updated_at = ?
		WHERE id = ?`,
		event.Title,
		nullableInstant(event.Start),
		nullableInstant(event.End),
		nullableInt(event.TicketsAvailable),
		boolToInt(event.IsCanceled),
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEvent retrieves a catalog event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Event{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Event{}, r.mapper.MapError(err)
	}
	return event, nil
}

// eventFields holds the raw column values of an events row so joins can scan
// them alongside their own columns.
type eventFields struct {
	id, title          string
	start, end         sql.NullString
	tickets            sql.NullInt64
	canceled           int
	createdAt, updated string
}

func (f *eventFields) dest() []any {
	return []any{&f.id, &f.title, &f.start, &f.end, &f.tickets, &f.canceled, &f.createdAt, &f.updated}
}

// event converts the row. Missing or unreadable feed times become nil.
func (f *eventFields) event() persistence.Event {
	event := persistence.Event{
		ID:         f.id,
		Title:      f.title,
		Start:      scheduler.ParseInstant(f.start.String),
		End:        scheduler.ParseInstant(f.end.String),
		IsCanceled: f.canceled != 0,
		CreatedAt:  parseTimestamp(f.createdAt),
		UpdatedAt:  parseTimestamp(f.updated),
	}
	if f.tickets.Valid {
		tickets := int(f.tickets.Int64)
		event.TicketsAvailable = &tickets
	}
	return event
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var f eventFields
	if err := row.Scan(f.dest()...); err != nil {
		return persistence.Event{}, err
	}
	return f.event(), nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// parseTimestamp reads bookkeeping columns; unreadable values become the zero time.
func parseTimestamp(value string) time.Time {
	if t := scheduler.ParseInstant(value); t != nil {
		return *t
	}
	return time.Time{}
}
