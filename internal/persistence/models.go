package persistence

import "time"

// User represents an attendee account.
type User struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event represents a convention catalog entry. Start and End are nil when the
// feed supplied no time or an unreadable one.
type Event struct {
	ID               string
	Title            string
	Start            *time.Time
	End              *time.Time
	TicketsAvailable *int
	IsCanceled       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EventSignup links a user to a catalog event. Desired and tracked events
// share this shape.
type EventSignup struct {
	ID        string
	UserID    string
	EventID   string
	CreatedAt time.Time
}

// SignupWithEvent is a signup joined with its catalog event.
type SignupWithEvent struct {
	Signup EventSignup
	Event  Event
}

// PersonalEvent is a meeting created by a user, optionally with attendees.
type PersonalEvent struct {
	ID          string
	CreatorID   string
	Title       string
	Start       *time.Time
	End         *time.Time
	Location    *string
	Description *string
	Attendees   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketTransaction records a purchase and whether it was refunded.
type TicketTransaction struct {
	ID         string
	Email      string
	Refunded   bool
	RefundedAt *time.Time
	CreatedAt  time.Time
}

// PurchasedEvent is a ticket for a catalog event issued to a named recipient.
type PurchasedEvent struct {
	ID            string
	EventID       string
	RecipientName string
	TransactionID string
	CreatedAt     time.Time
}

// PurchaseWithEvent is a purchased ticket joined with its catalog event and
// the refund status of its transaction.
type PurchaseWithEvent struct {
	Purchase PurchasedEvent
	Event    Event
	Refunded bool
}
