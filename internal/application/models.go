package application

import (
	"strings"
	"time"

	"github.com/example/conschedule/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// CatalogEvent is a convention catalog entry as seen by the services. Its
// window is incomplete when the catalog holds no usable time.
type CatalogEvent struct {
	ID               string
	Title            string
	Window           scheduler.TimeWindow
	TicketsAvailable *int
	IsCanceled       bool
}

// EventSignup links a user to a catalog event, either as a desired event or
// as a tracked event.
type EventSignup struct {
	ID        string
	UserID    string
	EventID   string
	CreatedAt time.Time
}

// SignupWithEvent pairs a signup with its catalog event.
type SignupWithEvent struct {
	Signup EventSignup
	Event  CatalogEvent
}

// PersonalEvent is a meeting a user created, optionally with attendees.
type PersonalEvent struct {
	ID          string
	CreatorID   string
	Title       string
	Start       *time.Time
	End         *time.Time
	Location    *string
	Description *string
	AttendeeIDs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Window returns the event's time span.
func (p PersonalEvent) Window() scheduler.TimeWindow {
	return scheduler.TimeWindow{Start: p.Start, End: p.End}
}

// Purchase is a ticket issued to a named recipient.
type Purchase struct {
	ID            string
	EventID       string
	RecipientName string
	TransactionID string
	Refunded      bool
	Event         CatalogEvent
}

// PersonalEventInput captures caller provided personal event fields.
type PersonalEventInput struct {
	Title       string
	Start       time.Time
	End         time.Time
	Location    *string
	Description *string
	AttendeeIDs []string
}

// CreatePersonalEventParams wraps the data required to create a personal event.
type CreatePersonalEventParams struct {
	Principal Principal
	Input     PersonalEventInput
}

// UpdatePersonalEventParams wraps the data required to update a personal event.
type UpdatePersonalEventParams struct {
	Principal       Principal
	PersonalEventID string
	Input           PersonalEventInput
}

// ConflictQuery asks which of a user's commitments overlap Window.
type ConflictQuery struct {
	UserID string
	Window scheduler.TimeWindow
	// Exclude drops one commitment before overlap testing, typically the one being edited.
	Exclude *scheduler.CommitmentRef
	// ExcludeEventID drops every commitment that refers to this catalog event.
	ExcludeEventID string
}

// AddDesiredEventResult is the outcome of adding an event to a wishlist.
// Conflicts and CapacityWarning are advisory; the add has already happened.
type AddDesiredEventResult struct {
	DesiredEvent    EventSignup
	Conflicts       []scheduler.Commitment
	CapacityWarning bool
}

// TrackEventResult is the outcome of tracking an event.
type TrackEventResult struct {
	TrackedEvent EventSignup
	Conflicts    []scheduler.Commitment
}

// PersonalEventResult is a persisted personal event with the creator's conflicts.
type PersonalEventResult struct {
	PersonalEvent PersonalEvent
	Conflicts     []scheduler.Commitment
}

// EventCapacity reports how full a catalog event is.
type EventCapacity struct {
	EventID          string
	TicketsAvailable *int
	SignupCount      int
	AtCapacity       bool
}

// DisplayName picks the name tickets are issued under: the configured
// display name, or else the first and last name joined.
func DisplayName(firstName, lastName, configured string) string {
	if name := strings.TrimSpace(configured); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}
