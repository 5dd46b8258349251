package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/conschedule/internal/persistence"
	"github.com/example/conschedule/internal/scheduler"
)

// PersonalEventRepository implements persistence.PersonalEventRepository.
type PersonalEventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPersonalEventRepository creates a new personal event repository
func NewPersonalEventRepository(pool *ConnectionPool) *PersonalEventRepository {
	return &PersonalEventRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const personalEventColumns = `pe.id, pe.creator_id, pe.title, pe.start_time, pe.end_time, pe.location, pe.description, pe.created_at, pe.updated_at`

// CreatePersonalEvent inserts the event and its attendees in one transaction.
func (r *PersonalEventRepository) CreatePersonalEvent(ctx context.Context, event persistence.PersonalEvent) error {
	if event.ID == "" || event.CreatorID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO personal_events (id, creator_id, title, start_time, end_time, location, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.CreatorID,
			event.Title,
			nullableInstant(event.Start),
			nullableInstant(event.End),
			nullableString(event.Location),
			nullableString(event.Description),
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertAttendees(ctx, tx, event.ID, event.Attendees)
	})
}

// UpdatePersonalEvent replaces the event fields and attendee list. The
// creator is never changed.
func (r *PersonalEventRepository) UpdatePersonalEvent(ctx context.Context, event persistence.PersonalEvent) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = time.Now().UTC()
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE personal_events
			SET title = ?, start_time = ?, end_time = ?, location = ?, description = ?, updated_at = ?
			WHERE id = ?`,
			event.Title,
			nullableInstant(event.Start),
			nullableInstant(event.End),
			nullableString(event.Location),
			nullableString(event.Description),
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

		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM personal_event_attendees WHERE personal_event_id = ?`, event.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertAttendees(ctx, tx, event.ID, event.Attendees)
	})
}

// GetPersonalEvent retrieves a personal event with its attendees.
func (r *PersonalEventRepository) GetPersonalEvent(ctx context.Context, id string) (persistence.PersonalEvent, error) {
	if id == "" {
		return persistence.PersonalEvent{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+personalEventColumns+` FROM personal_events pe WHERE pe.id = ?`, id)
	event, err := scanPersonalEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.PersonalEvent{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.PersonalEvent{}, r.mapper.MapError(err)
	}

	attendees, err := r.loadAttendees(ctx, []string{id})
	if err != nil {
		return persistence.PersonalEvent{}, err
	}
	event.Attendees = attendees[id]
	return event, nil
}

// DeletePersonalEvent removes a personal event and its attendee rows.
func (r *PersonalEventRepository) DeletePersonalEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM personal_event_attendees WHERE personal_event_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM personal_events WHERE id = ?`, id)
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
	})
}

// ListPersonalEventsForUser returns the events the user created or attends,
// in creation order.
func (r *PersonalEventRepository) ListPersonalEventsForUser(ctx context.Context, userID string) ([]persistence.PersonalEvent, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+personalEventColumns+`
		FROM personal_events pe
		WHERE pe.creator_id = ?
			OR EXISTS (
				SELECT 1 FROM personal_event_attendees a
				WHERE a.personal_event_id = pe.id AND a.user_id = ?
			)
		ORDER BY pe.created_at ASC, pe.id ASC`,
		userID, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.PersonalEvent
	var ids []string
	for rows.Next() {
		event, err := scanPersonalEvent(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
		ids = append(ids, event.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	attendees, err := r.loadAttendees(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Attendees = attendees[events[i].ID]
	}
	return events, nil
}

func (r *PersonalEventRepository) insertAttendees(ctx context.Context, tx *sql.Tx, eventID string, attendees []string) error {
	seen := make(map[string]struct{}, len(attendees))
	for _, attendee := range attendees {
		attendee = strings.TrimSpace(attendee)
		if attendee == "" {
			continue
		}
		if _, dup := seen[attendee]; dup {
			continue
		}
		seen[attendee] = struct{}{}

		if _, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO personal_event_attendees (personal_event_id, user_id) VALUES (?, ?)`,
			eventID, attendee); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

// loadAttendees returns attendee ids keyed by personal event id.
func (r *PersonalEventRepository) loadAttendees(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	attendees := make(map[string][]string, len(eventIDs))
	if len(eventIDs) == 0 {
		return attendees, nil
	}

	placeholders := make([]string, len(eventIDs))
	args := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := r.helper.Query(ctx, `
		SELECT personal_event_id, user_id
		FROM personal_event_attendees
		WHERE personal_event_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY personal_event_id ASC, user_id ASC`,
		args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, userID string
		if err := rows.Scan(&eventID, &userID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		attendees[eventID] = append(attendees[eventID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return attendees, nil
}

func scanPersonalEvent(row rowScanner) (persistence.PersonalEvent, error) {
	var event persistence.PersonalEvent
	var start, end, location, description sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(
		&event.ID,
		&event.CreatorID,
		&event.Title,
		&start,
		&end,
		&location,
		&description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.PersonalEvent{}, err
	}

	event.Start = scheduler.ParseInstant(start.String)
	event.End = scheduler.ParseInstant(end.String)
	event.Location = stringPtr(location)
	event.Description = stringPtr(description)
	event.CreatedAt = parseTimestamp(createdAt)
	event.UpdatedAt = parseTimestamp(updatedAt)
	return event, nil
}
