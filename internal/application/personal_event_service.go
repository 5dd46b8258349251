package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/conschedule/internal/scheduler"
)

// PersonalEventService orchestrates validation, conflict checks and
// persistence for user-created meetings.
type PersonalEventService struct {
	events      PersonalEventRepository
	users       UserDirectory
	conflicts   ConflictFinder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPersonalEventService wires dependencies for personal event operations.
func NewPersonalEventService(events PersonalEventRepository, users UserDirectory, conflicts ConflictFinder, idGenerator func() string, now func() time.Time) *PersonalEventService {
	return NewPersonalEventServiceWithLogger(events, users, conflicts, idGenerator, now, nil)
}

// NewPersonalEventServiceWithLogger constructs the service with a specified logger.
func NewPersonalEventServiceWithLogger(events PersonalEventRepository, users UserDirectory, conflicts ConflictFinder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PersonalEventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PersonalEventService{
		events:      events,
		users:       users,
		conflicts:   conflicts,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PersonalEventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PersonalEventService", operation, attrs...)
}

// CreatePersonalEvent validates the request, reports the creator's overlapping
// commitments and stores the event.
func (s *PersonalEventService) CreatePersonalEvent(ctx context.Context, params CreatePersonalEventParams) (result PersonalEventResult, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("PersonalEventService: personal event repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "CreatePersonalEvent", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create personal event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("personal_event_id", result.PersonalEvent.ID, "conflict_count", len(result.Conflicts)).InfoContext(ctx, "personal event created")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	if vErr := validatePersonalEventInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	attendees := sortStrings(uniqueStrings(input.AttendeeIDs))
	if err = s.ensureAttendeesExist(ctx, attendees); err != nil {
		return
	}

	createdAt := s.now()
	start, end := input.Start, input.End
	event := PersonalEvent{
		ID:          s.idGenerator(),
		CreatorID:   principal.UserID,
		Title:       strings.TrimSpace(input.Title),
		Start:       &start,
		End:         &end,
		Location:    input.Location,
		Description: input.Description,
		AttendeeIDs: attendees,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	conflicts, err := s.detectConflicts(ctx, principal.UserID, event.Window(), nil)
	if err != nil {
		return
	}

	persisted, err := s.events.CreatePersonalEvent(ctx, event)
	if err != nil {
		err = mapStorageError(err)
		return
	}

	result = PersonalEventResult{PersonalEvent: persisted, Conflicts: conflicts}
	return
}

// UpdatePersonalEvent replaces the event's fields. Only the creator may edit;
// the event is excluded from its own conflict check.
func (s *PersonalEventService) UpdatePersonalEvent(ctx context.Context, params UpdatePersonalEventParams) (result PersonalEventResult, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("PersonalEventService: personal event repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "UpdatePersonalEvent", "principal_id", principal.UserID, "personal_event_id", params.PersonalEventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update personal event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflict_count", len(result.Conflicts)).InfoContext(ctx, "personal event updated")
	}()

	existing, err := s.loadOwned(ctx, principal, params.PersonalEventID)
	if err != nil {
		return
	}

	input := params.Input
	if vErr := validatePersonalEventInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	attendees := sortStrings(uniqueStrings(input.AttendeeIDs))
	if err = s.ensureAttendeesExist(ctx, attendees); err != nil {
		return
	}

	start, end := input.Start, input.End
	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Start = &start
	updated.End = &end
	updated.Location = input.Location
	updated.Description = input.Description
	updated.AttendeeIDs = attendees
	updated.UpdatedAt = s.now()

	self := &scheduler.CommitmentRef{ID: existing.ID, SourceKind: scheduler.SourceKindPersonal}
	conflicts, err := s.detectConflicts(ctx, principal.UserID, updated.Window(), self)
	if err != nil {
		return
	}

	persisted, err := s.events.UpdatePersonalEvent(ctx, updated)
	if err != nil {
		err = mapStorageError(err)
		return
	}

	result = PersonalEventResult{PersonalEvent: persisted, Conflicts: conflicts}
	return
}

// DeletePersonalEvent removes an event the principal created.
func (s *PersonalEventService) DeletePersonalEvent(ctx context.Context, principal Principal, personalEventID string) (err error) {
	if s == nil || s.events == nil {
		return fmt.Errorf("PersonalEventService: personal event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeletePersonalEvent", "principal_id", principal.UserID, "personal_event_id", personalEventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete personal event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "personal event deleted")
	}()

	if _, err = s.loadOwned(ctx, principal, personalEventID); err != nil {
		return
	}

	if err = s.events.DeletePersonalEvent(ctx, personalEventID); err != nil {
		err = mapStorageError(err)
	}
	return
}

func (s *PersonalEventService) loadOwned(ctx context.Context, principal Principal, id string) (PersonalEvent, error) {
	if principal.UserID == "" {
		return PersonalEvent{}, ErrUnauthorized
	}
	if id == "" {
		return PersonalEvent{}, ErrNotFound
	}
	existing, err := s.events.GetPersonalEvent(ctx, id)
	if err != nil {
		if isNotFoundError(err) {
			return PersonalEvent{}, ErrNotFound
		}
		return PersonalEvent{}, storageFailure(err)
	}
	if existing.CreatorID != principal.UserID {
		return PersonalEvent{}, ErrUnauthorized
	}
	return existing, nil
}

func (s *PersonalEventService) ensureAttendeesExist(ctx context.Context, ids []string) error {
	if s.users == nil || len(ids) == 0 {
		return nil
	}
	missing, err := s.users.MissingUserIDs(ctx, ids)
	if err != nil {
		return storageFailure(err)
	}
	if len(missing) == 0 {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("attendees", fmt.Sprintf("unknown user ids: %s", strings.Join(missing, ", ")))
	return vErr
}

func (s *PersonalEventService) detectConflicts(ctx context.Context, userID string, window scheduler.TimeWindow, exclude *scheduler.CommitmentRef) ([]scheduler.Commitment, error) {
	if s.conflicts == nil {
		return []scheduler.Commitment{}, nil
	}
	result, err := s.conflicts.FindConflicts(ctx, ConflictQuery{UserID: userID, Window: window, Exclude: exclude})
	if err != nil {
		return nil, err
	}
	return result.Conflicts, nil
}

func validatePersonalEventInput(input PersonalEventInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	return vErr
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func sortStrings(values []string) []string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return sorted
}
