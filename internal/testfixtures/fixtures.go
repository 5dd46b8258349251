package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/conschedule/internal/persistence"
)

var (
	userCounter     uint64
	eventCounter    uint64
	personalCounter uint64
	purchaseCounter uint64
)

// Convention day one, 09:00 UTC.
var referenceTime = time.Date(2025, time.July, 19, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// At returns the reference day at the given hour.
func At(hour int) time.Time {
	return time.Date(referenceTime.Year(), referenceTime.Month(), referenceTime.Day(), hour, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic attendee account.
type UserFixture struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	CreatedAt   time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user named "Attendee NNN" with no configured display name.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:        id,
		Email:     id + "@example.com",
		FirstName: "Attendee",
		LastName:  fmt.Sprintf("%03d", idx),
		CreatedAt: referenceTime.Add(-time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID and email.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
		f.Email = id + "@example.com"
	}
}

// WithUserName sets the first and last name.
func WithUserName(first, last string) UserOption {
	return func(f *UserFixture) {
		f.FirstName = first
		f.LastName = last
	}
}

// WithUserDisplayName sets the configured display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// Persistence converts the fixture into a storage record.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:          f.ID,
		Email:       f.Email,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		DisplayName: f.DisplayName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture is a catalog entry. It defaults to a two hour slot starting at
// the reference time with unlimited seating.
type EventFixture struct {
	ID               string
	Title            string
	Start            *time.Time
	End              *time.Time
	TicketsAvailable *int
	IsCanceled       bool
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic catalog event.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:    fmt.Sprintf("event-%03d", idx),
		Title: fmt.Sprintf("Panel %03d", idx),
		Start: Ptr(referenceTime),
		End:   Ptr(referenceTime.Add(2 * time.Hour)),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventHours places the event on the reference day between two hours.
func WithEventHours(startHour, endHour int) EventOption {
	return func(f *EventFixture) {
		f.Start = Ptr(At(startHour))
		f.End = Ptr(At(endHour))
	}
}

// WithoutEventTime clears both bounds, as for an unscheduled feed entry.
func WithoutEventTime() EventOption {
	return func(f *EventFixture) {
		f.Start = nil
		f.End = nil
	}
}

// WithTickets limits seating to n.
func WithTickets(n int) EventOption {
	return func(f *EventFixture) {
		f.TicketsAvailable = Ptr(n)
	}
}

// WithEventCanceled marks the event canceled.
func WithEventCanceled() EventOption {
	return func(f *EventFixture) {
		f.IsCanceled = true
	}
}

// Persistence converts the fixture into a storage record.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:               f.ID,
		Title:            f.Title,
		Start:            f.Start,
		End:              f.End,
		TicketsAvailable: f.TicketsAvailable,
		IsCanceled:       f.IsCanceled,
		CreatedAt:        referenceTime.Add(-24 * time.Hour),
		UpdatedAt:        referenceTime.Add(-24 * time.Hour),
	}
}

// ------------------------- Personal event fixtures -------------------------

// PersonalEventFixture is a meeting created by CreatorID.
type PersonalEventFixture struct {
	ID          string
	CreatorID   string
	Title       string
	Start       *time.Time
	End         *time.Time
	Location    *string
	AttendeeIDs []string
}

// PersonalEventOption configures the generated personal event fixture.
type PersonalEventOption func(*PersonalEventFixture)

// NewPersonalEventFixture returns a one hour meeting owned by creatorID.
func NewPersonalEventFixture(creatorID string, opts ...PersonalEventOption) PersonalEventFixture {
	idx := atomic.AddUint64(&personalCounter, 1)
	fixture := PersonalEventFixture{
		ID:        fmt.Sprintf("personal-%03d", idx),
		CreatorID: creatorID,
		Title:     fmt.Sprintf("Meetup %03d", idx),
		Start:     Ptr(referenceTime),
		End:       Ptr(referenceTime.Add(time.Hour)),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPersonalEventHours places the meeting on the reference day between two hours.
func WithPersonalEventHours(startHour, endHour int) PersonalEventOption {
	return func(f *PersonalEventFixture) {
		f.Start = Ptr(At(startHour))
		f.End = Ptr(At(endHour))
	}
}

// WithAttendees invites the given users.
func WithAttendees(ids ...string) PersonalEventOption {
	return func(f *PersonalEventFixture) {
		f.AttendeeIDs = append([]string(nil), ids...)
	}
}

// WithLocation sets the meeting location.
func WithLocation(location string) PersonalEventOption {
	return func(f *PersonalEventFixture) {
		f.Location = Ptr(location)
	}
}

// Persistence converts the fixture into a storage record.
func (f PersonalEventFixture) Persistence() persistence.PersonalEvent {
	return persistence.PersonalEvent{
		ID:        f.ID,
		CreatorID: f.CreatorID,
		Title:     f.Title,
		Start:     f.Start,
		End:       f.End,
		Location:  f.Location,
		Attendees: append([]string(nil), f.AttendeeIDs...),
		CreatedAt: referenceTime.Add(-time.Hour),
		UpdatedAt: referenceTime.Add(-time.Hour),
	}
}

// ---------------------------- Purchase fixtures ----------------------------

// PurchaseFixture is a ticket for EventID issued to RecipientName under its
// own transaction.
type PurchaseFixture struct {
	ID            string
	TransactionID string
	EventID       string
	RecipientName string
	Refunded      bool
}

// NewPurchaseFixture returns a ticket for eventID issued to recipientName.
func NewPurchaseFixture(eventID, recipientName string) PurchaseFixture {
	idx := atomic.AddUint64(&purchaseCounter, 1)
	return PurchaseFixture{
		ID:            fmt.Sprintf("purchase-%03d", idx),
		TransactionID: fmt.Sprintf("txn-%03d", idx),
		EventID:       eventID,
		RecipientName: recipientName,
	}
}

// Refund marks the owning transaction refunded.
func (f PurchaseFixture) Refund() PurchaseFixture {
	f.Refunded = true
	return f
}

// Transaction returns the owning transaction record.
func (f PurchaseFixture) Transaction() persistence.TicketTransaction {
	txn := persistence.TicketTransaction{
		ID:        f.TransactionID,
		Email:     "buyer@example.com",
		CreatedAt: referenceTime.Add(-48 * time.Hour),
	}
	if f.Refunded {
		txn.Refunded = true
		txn.RefundedAt = Ptr(referenceTime.Add(-24 * time.Hour))
	}
	return txn
}

// Persistence converts the fixture into a storage record.
func (f PurchaseFixture) Persistence() persistence.PurchasedEvent {
	return persistence.PurchasedEvent{
		ID:            f.ID,
		EventID:       f.EventID,
		RecipientName: f.RecipientName,
		TransactionID: f.TransactionID,
		CreatedAt:     referenceTime.Add(-48 * time.Hour),
	}
}
