package persistence

import (
	"context"
	"time"
)

// UserRepository stores attendee accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsersByIDs(ctx context.Context, ids []string) ([]User, error)
}

// EventRepository exposes the convention catalog.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
}

// SignupRepository stores user-to-event links with a unique (user, event) pair.
type SignupRepository interface {
	CreateSignup(ctx context.Context, signup EventSignup) error
	GetSignup(ctx context.Context, userID, eventID string) (EventSignup, error)
	DeleteSignup(ctx context.Context, userID, eventID string) error
	ListSignupsForUser(ctx context.Context, userID string) ([]SignupWithEvent, error)
	CountSignupsForEvent(ctx context.Context, eventID string) (int, error)
}

// PersonalEventRepository stores personal meetings and their attendees.
type PersonalEventRepository interface {
	CreatePersonalEvent(ctx context.Context, event PersonalEvent) error
	UpdatePersonalEvent(ctx context.Context, event PersonalEvent) error
	GetPersonalEvent(ctx context.Context, id string) (PersonalEvent, error)
	DeletePersonalEvent(ctx context.Context, id string) error
	ListPersonalEventsForUser(ctx context.Context, userID string) ([]PersonalEvent, error)
}

// PurchaseRepository exposes ticket purchases keyed by recipient name.
type PurchaseRepository interface {
	CreateTransaction(ctx context.Context, tx TicketTransaction) error
	RefundTransaction(ctx context.Context, id string, refundedAt time.Time) error
	CreatePurchasedEvent(ctx context.Context, purchase PurchasedEvent) error
	ListPurchasesByRecipient(ctx context.Context, recipientName string) ([]PurchaseWithEvent, error)
}
