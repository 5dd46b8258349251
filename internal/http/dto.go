package http

import (
	"time"

	"github.com/example/conschedule/internal/application"
	"github.com/example/conschedule/internal/scheduler"
)

type commitmentDTO struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id,omitempty"`
	OwnerUserID string     `json:"owner_user_id"`
	Title       string     `json:"title"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	SourceKind  string     `json:"source_kind"`
	SourceLabel string     `json:"source_label"`
}

func toCommitmentDTOs(commitments []scheduler.Commitment) []commitmentDTO {
	dtos := make([]commitmentDTO, 0, len(commitments))
	for _, c := range commitments {
		dtos = append(dtos, commitmentDTO{
			ID:          c.ID,
			EventID:     c.EventID,
			OwnerUserID: c.OwnerUserID,
			Title:       c.Title,
			Start:       c.Window.Start,
			End:         c.Window.End,
			SourceKind:  string(c.SourceKind),
			SourceLabel: c.SourceLabel,
		})
	}
	return dtos
}

type signupDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toSignupDTO(signup application.EventSignup) signupDTO {
	return signupDTO{
		ID:        signup.ID,
		UserID:    signup.UserID,
		EventID:   signup.EventID,
		CreatedAt: signup.CreatedAt,
	}
}

type personalEventDTO struct {
	ID          string     `json:"id"`
	CreatorID   string     `json:"creator_id"`
	Title       string     `json:"title"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	Location    *string    `json:"location,omitempty"`
	Description *string    `json:"description,omitempty"`
	AttendeeIDs []string   `json:"attendee_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toPersonalEventDTO(event application.PersonalEvent) personalEventDTO {
	attendees := event.AttendeeIDs
	if attendees == nil {
		attendees = []string{}
	}
	return personalEventDTO{
		ID:          event.ID,
		CreatorID:   event.CreatorID,
		Title:       event.Title,
		Start:       event.Start,
		End:         event.End,
		Location:    event.Location,
		Description: event.Description,
		AttendeeIDs: attendees,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

type eventRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

type addDesiredEventResponse struct {
	DesiredEvent    signupDTO       `json:"desired_event"`
	Conflicts       []commitmentDTO `json:"conflicts"`
	CapacityWarning bool            `json:"capacity_warning"`
}

type trackEventResponse struct {
	TrackedEvent signupDTO       `json:"tracked_event"`
	Conflicts    []commitmentDTO `json:"conflicts"`
}

type personalEventRequest struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	AttendeeIDs []string  `json:"attendee_ids"`
}

func (r personalEventRequest) toInput() application.PersonalEventInput {
	return application.PersonalEventInput{
		Title:       r.Title,
		Start:       r.Start,
		End:         r.End,
		Location:    r.Location,
		Description: r.Description,
		AttendeeIDs: r.AttendeeIDs,
	}
}

type personalEventResponse struct {
	PersonalEvent personalEventDTO `json:"personal_event"`
	Conflicts     []commitmentDTO  `json:"conflicts"`
}

type conflictRequest struct {
	Start   *time.Time `json:"start"`
	End     *time.Time `json:"end"`
	Exclude *struct {
		ID         string `json:"id" binding:"required"`
		SourceKind string `json:"source_kind" binding:"required"`
	} `json:"exclude"`
}

func (r conflictRequest) toQuery() application.ConflictQuery {
	query := application.ConflictQuery{
		Window: scheduler.TimeWindow{Start: r.Start, End: r.End},
	}
	if r.Exclude != nil {
		query.Exclude = &scheduler.CommitmentRef{
			ID:         r.Exclude.ID,
			SourceKind: scheduler.SourceKind(r.Exclude.SourceKind),
		}
	}
	return query
}

type conflictResponse struct {
	HasConflicts bool            `json:"has_conflicts"`
	Conflicts    []commitmentDTO `json:"conflicts"`
}

type capacityResponse struct {
	EventID            string `json:"event_id"`
	TicketsAvailable   *int   `json:"tickets_available"`
	CurrentSignupCount int    `json:"current_signup_count"`
	AtCapacity         bool   `json:"at_capacity"`
}

type scheduleResponse struct {
	Commitments []commitmentDTO `json:"commitments"`
}
