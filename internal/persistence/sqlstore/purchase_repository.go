package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/example/conschedule/internal/persistence"
)

// PurchaseRepository implements persistence.PurchaseRepository.
type PurchaseRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(pool *ConnectionPool) *PurchaseRepository {
	return &PurchaseRepository{helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateTransaction records a ticket transaction.
func (r *PurchaseRepository) CreateTransaction(ctx context.Context, txn persistence.TicketTransaction) error {
	if txn.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO ticket_transactions (id, email, refunded, refunded_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		txn.ID,
		txn.Email,
		boolToInt(txn.Refunded),
		nullableInstant(txn.RefundedAt),
		formatTime(txn.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// RefundTransaction marks a transaction refunded.
func (r *PurchaseRepository) RefundTransaction(ctx context.Context, id string, refundedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE ticket_transactions SET refunded = 1, refunded_at = ? WHERE id = ?`,
		formatTime(refundedAt), id)
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

// CreatePurchasedEvent records a ticket issued to a named recipient.
func (r *PurchaseRepository) CreatePurchasedEvent(ctx context.Context, purchase persistence.PurchasedEvent) error {
	if purchase.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO purchased_events (id, event_id, recipient_name, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		purchase.ID,
		purchase.EventID,
		purchase.RecipientName,
		purchase.TransactionID,
		formatTime(purchase.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// ListPurchasesByRecipient returns tickets issued to recipientName joined
// with their event and the refund status of the owning transaction.
func (r *PurchaseRepository) ListPurchasesByRecipient(ctx context.Context, recipientName string) ([]persistence.PurchaseWithEvent, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT p.id, p.event_id, p.recipient_name, p.transaction_id, p.created_at, t.refunded,
			e.id, e.title, e.start_time, e.end_time, e.tickets_available, e.is_canceled, e.created_at, e.updated_at
		FROM purchased_events p
		JOIN ticket_transactions t ON t.id = p.transaction_id
		JOIN events e ON e.id = p.event_id
		WHERE p.recipient_name = ?
		ORDER BY p.created_at ASC, p.id ASC`,
		recipientName)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var purchases []persistence.PurchaseWithEvent
	for rows.Next() {
		var purchase persistence.PurchasedEvent
		var createdAt string
		var refunded int
		var event eventFields

		dest := append([]any{
			&purchase.ID,
			&purchase.EventID,
			&purchase.RecipientName,
			&purchase.TransactionID,
			&createdAt,
			&refunded,
		}, event.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, r.mapper.MapError(err)
		}

		purchase.CreatedAt = parseTimestamp(createdAt)
		purchases = append(purchases, persistence.PurchaseWithEvent{
			Purchase: purchase,
			Event:    event.event(),
			Refunded: refunded != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return purchases, nil
}

