package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/conschedule/internal/persistence"
	"github.com/example/conschedule/internal/scheduler"
)

func at(hour int) time.Time {
	return time.Date(2025, time.July, 19, hour, 0, 0, 0, time.UTC)
}

func windowAt(startHour, endHour int) scheduler.TimeWindow {
	return scheduler.NewTimeWindow(at(startHour), at(endHour))
}

func intPtr(v int) *int {
	return &v
}

type catalogStub struct {
	mu       sync.Mutex
	events   map[string]CatalogEvent
	signups  *signupStoreStub
	getErr   error
	countErr error
}

func newCatalogStub(events ...CatalogEvent) *catalogStub {
	c := &catalogStub{events: make(map[string]CatalogEvent)}
	for _, event := range events {
		c.events[event.ID] = event
	}
	return c
}

func (c *catalogStub) GetEvent(ctx context.Context, id string) (CatalogEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return CatalogEvent{}, c.getErr
	}
	event, ok := c.events[id]
	if !ok {
		return CatalogEvent{}, fmt.Errorf("get event %s: %w", id, persistence.ErrNotFound)
	}
	return event, nil
}

func (c *catalogStub) CountSignups(ctx context.Context, eventID string) (int, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	if c.signups == nil {
		return 0, nil
	}
	return c.signups.count(eventID), nil
}

type signupKey struct {
	userID  string
	eventID string
}

// signupStoreStub enforces the (user, event) uniqueness the database would.
type signupStoreStub struct {
	mu      sync.Mutex
	catalog *catalogStub
	rows    map[signupKey]EventSignup
	order   []signupKey
	listErr error
	getErr  error
	getGate *sync.WaitGroup
	creates int
	lists   int
}

func newSignupStoreStub(catalog *catalogStub) *signupStoreStub {
	return &signupStoreStub{catalog: catalog, rows: make(map[signupKey]EventSignup)}
}

func (s *signupStoreStub) seed(id, userID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := signupKey{userID, eventID}
	s.rows[key] = EventSignup{ID: id, UserID: userID, EventID: eventID, CreatedAt: at(8)}
	s.order = append(s.order, key)
}

func (s *signupStoreStub) count(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.rows {
		if key.eventID == eventID {
			n++
		}
	}
	return n
}

func (s *signupStoreStub) CreateSignup(ctx context.Context, signup EventSignup) (EventSignup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	key := signupKey{signup.UserID, signup.EventID}
	if _, ok := s.rows[key]; ok {
		return EventSignup{}, fmt.Errorf("insert signup: %w", persistence.ErrDuplicate)
	}
	s.rows[key] = signup
	s.order = append(s.order, key)
	return signup, nil
}

func (s *signupStoreStub) GetSignup(ctx context.Context, userID, eventID string) (EventSignup, error) {
	if s.getGate != nil {
		s.getGate.Done()
		s.getGate.Wait()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return EventSignup{}, s.getErr
	}
	signup, ok := s.rows[signupKey{userID, eventID}]
	if !ok {
		return EventSignup{}, persistence.ErrNotFound
	}
	return signup, nil
}

func (s *signupStoreStub) DeleteSignup(ctx context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := signupKey{userID, eventID}
	if _, ok := s.rows[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rows, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *signupStoreStub) ListSignupsForUser(ctx context.Context, userID string) ([]SignupWithEvent, error) {
	s.mu.Lock()
	s.lists++
	if s.listErr != nil {
		s.mu.Unlock()
		return nil, s.listErr
	}
	var keys []signupKey
	for _, key := range s.order {
		if key.userID == userID {
			keys = append(keys, key)
		}
	}
	rows := make([]EventSignup, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, s.rows[key])
	}
	s.mu.Unlock()

	out := make([]SignupWithEvent, 0, len(rows))
	for _, row := range rows {
		event, err := s.catalog.GetEvent(ctx, row.EventID)
		if err != nil {
			return nil, err
		}
		out = append(out, SignupWithEvent{Signup: row, Event: event})
	}
	return out, nil
}

type personalRepoStub struct {
	mu      sync.Mutex
	events  map[string]PersonalEvent
	order   []string
	created PersonalEvent
	updated PersonalEvent
	deleted []string
	err     error
	listErr error
}

func newPersonalRepoStub(events ...PersonalEvent) *personalRepoStub {
	r := &personalRepoStub{events: make(map[string]PersonalEvent)}
	for _, event := range events {
		r.events[event.ID] = event
		r.order = append(r.order, event.ID)
	}
	return r
}

func (r *personalRepoStub) CreatePersonalEvent(ctx context.Context, event PersonalEvent) (PersonalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return PersonalEvent{}, r.err
	}
	r.created = event
	r.events[event.ID] = event
	r.order = append(r.order, event.ID)
	return event, nil
}

func (r *personalRepoStub) GetPersonalEvent(ctx context.Context, id string) (PersonalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return PersonalEvent{}, r.err
	}
	event, ok := r.events[id]
	if !ok {
		return PersonalEvent{}, persistence.ErrNotFound
	}
	return event, nil
}

func (r *personalRepoStub) UpdatePersonalEvent(ctx context.Context, event PersonalEvent) (PersonalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return PersonalEvent{}, r.err
	}
	r.updated = event
	r.events[event.ID] = event
	return event, nil
}

func (r *personalRepoStub) DeletePersonalEvent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.events, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *personalRepoStub) ListPersonalEventsForUser(ctx context.Context, userID string) ([]PersonalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []PersonalEvent
	for _, id := range r.order {
		event, ok := r.events[id]
		if !ok {
			continue
		}
		if event.CreatorID == userID {
			out = append(out, event)
			continue
		}
		for _, attendee := range event.AttendeeIDs {
			if attendee == userID {
				out = append(out, event)
				break
			}
		}
	}
	return out, nil
}

type purchaseLedgerStub struct {
	mu          sync.Mutex
	byRecipient map[string][]Purchase
	err         error
	queried     []string
}

func (p *purchaseLedgerStub) ListPurchasesByRecipient(ctx context.Context, recipientName string) ([]Purchase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queried = append(p.queried, recipientName)
	if p.err != nil {
		return nil, p.err
	}
	return p.byRecipient[recipientName], nil
}

type userDirectoryStub struct {
	names      map[string]string
	missing    []string
	err        error
	missingErr error
}

func (u *userDirectoryStub) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	name, ok := u.names[userID]
	if !ok {
		return "", persistence.ErrNotFound
	}
	return name, nil
}

func (u *userDirectoryStub) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	if u.missingErr != nil {
		return nil, u.missingErr
	}
	return u.missing, nil
}

type conflictFinderStub struct {
	mu      sync.Mutex
	result  scheduler.ConflictResult
	err     error
	queries []ConflictQuery
}

func (c *conflictFinderStub) FindConflicts(ctx context.Context, query ConflictQuery) (scheduler.ConflictResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	if c.err != nil {
		return scheduler.ConflictResult{}, c.err
	}
	return c.result, nil
}

// world wires real services over in-memory stores.
type world struct {
	catalog   *catalogStub
	desired   *signupStoreStub
	tracked   *signupStoreStub
	personal  *personalRepoStub
	purchases *purchaseLedgerStub
	users     *userDirectoryStub
	conflicts *ConflictService
	nextID    int
	idMu      sync.Mutex
}

func newWorld(events ...CatalogEvent) *world {
	catalog := newCatalogStub(events...)
	w := &world{
		catalog:   catalog,
		desired:   newSignupStoreStub(catalog),
		tracked:   newSignupStoreStub(catalog),
		personal:  newPersonalRepoStub(),
		purchases: &purchaseLedgerStub{byRecipient: make(map[string][]Purchase)},
		users:     &userDirectoryStub{names: make(map[string]string)},
	}
	catalog.signups = w.desired
	w.conflicts = NewConflictService(NewCommitmentSources(SourceDeps{
		PersonalEvents: w.personal,
		DesiredEvents:  w.desired,
		TrackedEvents:  w.tracked,
		Purchases:      w.purchases,
		Users:          w.users,
	}))
	return w
}

func (w *world) newID() string {
	w.idMu.Lock()
	defer w.idMu.Unlock()
	w.nextID++
	return fmt.Sprintf("id-%d", w.nextID)
}

func (w *world) desiredService() *DesiredEventService {
	return NewDesiredEventService(w.desired, w.catalog, w.conflicts, w.newID, func() time.Time { return at(7) })
}

func (w *world) trackingService() *TrackingService {
	return NewTrackingService(w.tracked, w.catalog, w.conflicts, w.newID, func() time.Time { return at(7) })
}

func (w *world) personalService() *PersonalEventService {
	return NewPersonalEventService(w.personal, w.users, w.conflicts, w.newID, func() time.Time { return at(7) })
}

func catalogEvent(id string, startHour, endHour int) CatalogEvent {
	return CatalogEvent{ID: id, Title: "Event " + id, Window: windowAt(startHour, endHour)}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
