package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/conschedule/internal/persistence"
)

// SignupTable names a user-to-event link table.
type SignupTable string

const (
	DesiredEventsTable SignupTable = "desired_events"
	TrackedEventsTable SignupTable = "tracked_events"
)

// SignupRepository implements persistence.SignupRepository for one link table.
type SignupRepository struct {
	table  SignupTable
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSignupRepository creates a repository over table.
func NewSignupRepository(pool *ConnectionPool, table SignupTable) *SignupRepository {
	return &SignupRepository{table: table, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateSignup inserts a link. A second link for the same user and event
// fails with persistence.ErrDuplicate.
func (r *SignupRepository) CreateSignup(ctx context.Context, signup persistence.EventSignup) error {
	if signup.ID == "" || signup.UserID == "" || signup.EventID == "" {
		return persistence.ErrConstraintViolation
	}
	if signup.CreatedAt.IsZero() {
		signup.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, user_id, event_id, created_at) VALUES (?, ?, ?, ?)`, r.table),
		signup.ID, signup.UserID, signup.EventID, formatTime(signup.CreatedAt))
	return r.mapper.MapError(err)
}

// GetSignup returns the link between userID and eventID.
func (r *SignupRepository) GetSignup(ctx context.Context, userID, eventID string) (persistence.EventSignup, error) {
	var signup persistence.EventSignup
	var createdAt string

	err := r.helper.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, user_id, event_id, created_at FROM %s WHERE user_id = ? AND event_id = ?`, r.table),
		userID, eventID,
	).Scan(&signup.ID, &signup.UserID, &signup.EventID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.EventSignup{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.EventSignup{}, r.mapper.MapError(err)
	}

	signup.CreatedAt = parseTimestamp(createdAt)
	return signup, nil
}

// DeleteSignup removes the link between userID and eventID.
func (r *SignupRepository) DeleteSignup(ctx context.Context, userID, eventID string) error {
	result, err := r.helper.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND event_id = ?`, r.table),
		userID, eventID)
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

// ListSignupsForUser returns the user's links joined with their events, in
// the order they were created.
func (r *SignupRepository) ListSignupsForUser(ctx context.Context, userID string) ([]persistence.SignupWithEvent, error) {
	query := fmt.Sprintf(`
		SELECT s.id, s.user_id, s.event_id, s.created_at,
			e.id, e.title, e.start_time, e.end_time, e.tickets_available, e.is_canceled, e.created_at, e.updated_at
		FROM %s s
		JOIN events e ON e.id = s.event_id
		WHERE s.user_id = ?
		ORDER BY s.created_at ASC, s.id ASC`, r.table)

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var signups []persistence.SignupWithEvent
	for rows.Next() {
		var signup persistence.EventSignup
		var createdAt string
		var event eventFields

		dest := append([]any{&signup.ID, &signup.UserID, &signup.EventID, &createdAt}, event.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, r.mapper.MapError(err)
		}

		signup.CreatedAt = parseTimestamp(createdAt)
		signups = append(signups, persistence.SignupWithEvent{Signup: signup, Event: event.event()})
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return signups, nil
}

// CountSignupsForEvent returns how many users are linked to eventID.
func (r *SignupRepository) CountSignupsForEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE event_id = ?`, r.table),
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}
