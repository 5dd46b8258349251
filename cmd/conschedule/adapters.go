package main

import (
	"context"
	"slices"
	"time"

	"github.com/example/conschedule/internal/application"
	"github.com/example/conschedule/internal/persistence"
	"github.com/example/conschedule/internal/scheduler"
)

type eventCatalogAdapter struct {
	events  persistence.EventRepository
	desired persistence.SignupRepository
}

func newEventCatalogAdapter(events persistence.EventRepository, desired persistence.SignupRepository) *eventCatalogAdapter {
	return &eventCatalogAdapter{events: events, desired: desired}
}

func (a *eventCatalogAdapter) GetEvent(ctx context.Context, id string) (application.CatalogEvent, error) {
	event, err := a.events.GetEvent(ctx, id)
	if err != nil {
		return application.CatalogEvent{}, err
	}
	return toCatalogEvent(event), nil
}

// CountSignups counts desired-event signups, which is what capacity is measured against.
func (a *eventCatalogAdapter) CountSignups(ctx context.Context, eventID string) (int, error) {
	return a.desired.CountSignupsForEvent(ctx, eventID)
}

type signupStoreAdapter struct {
	repo persistence.SignupRepository
}

func newSignupStoreAdapter(repo persistence.SignupRepository) *signupStoreAdapter {
	return &signupStoreAdapter{repo: repo}
}

func (a *signupStoreAdapter) CreateSignup(ctx context.Context, signup application.EventSignup) (application.EventSignup, error) {
	if err := a.repo.CreateSignup(ctx, persistence.EventSignup(signup)); err != nil {
		return application.EventSignup{}, err
	}
	return signup, nil
}

func (a *signupStoreAdapter) GetSignup(ctx context.Context, userID, eventID string) (application.EventSignup, error) {
	stored, err := a.repo.GetSignup(ctx, userID, eventID)
	if err != nil {
		return application.EventSignup{}, err
	}
	return application.EventSignup(stored), nil
}

func (a *signupStoreAdapter) DeleteSignup(ctx context.Context, userID, eventID string) error {
	return a.repo.DeleteSignup(ctx, userID, eventID)
}

func (a *signupStoreAdapter) ListSignupsForUser(ctx context.Context, userID string) ([]application.SignupWithEvent, error) {
	stored, err := a.repo.ListSignupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	signups := make([]application.SignupWithEvent, 0, len(stored))
	for _, s := range stored {
		signups = append(signups, application.SignupWithEvent{
			Signup: application.EventSignup(s.Signup),
			Event:  toCatalogEvent(s.Event),
		})
	}
	return signups, nil
}

type personalEventRepositoryAdapter struct {
	repo persistence.PersonalEventRepository
}

func newPersonalEventRepositoryAdapter(repo persistence.PersonalEventRepository) *personalEventRepositoryAdapter {
	return &personalEventRepositoryAdapter{repo: repo}
}

func (a *personalEventRepositoryAdapter) CreatePersonalEvent(ctx context.Context, event application.PersonalEvent) (application.PersonalEvent, error) {
	if err := a.repo.CreatePersonalEvent(ctx, toPersistencePersonalEvent(event)); err != nil {
		return application.PersonalEvent{}, err
	}
	return a.GetPersonalEvent(ctx, event.ID)
}

func (a *personalEventRepositoryAdapter) GetPersonalEvent(ctx context.Context, id string) (application.PersonalEvent, error) {
	stored, err := a.repo.GetPersonalEvent(ctx, id)
	if err != nil {
		return application.PersonalEvent{}, err
	}
	return toApplicationPersonalEvent(stored), nil
}

func (a *personalEventRepositoryAdapter) UpdatePersonalEvent(ctx context.Context, event application.PersonalEvent) (application.PersonalEvent, error) {
	if err := a.repo.UpdatePersonalEvent(ctx, toPersistencePersonalEvent(event)); err != nil {
		return application.PersonalEvent{}, err
	}
	return a.GetPersonalEvent(ctx, event.ID)
}

func (a *personalEventRepositoryAdapter) DeletePersonalEvent(ctx context.Context, id string) error {
	return a.repo.DeletePersonalEvent(ctx, id)
}

func (a *personalEventRepositoryAdapter) ListPersonalEventsForUser(ctx context.Context, userID string) ([]application.PersonalEvent, error) {
	stored, err := a.repo.ListPersonalEventsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	events := make([]application.PersonalEvent, 0, len(stored))
	for _, event := range stored {
		events = append(events, toApplicationPersonalEvent(event))
	}
	return events, nil
}

type purchaseLedgerAdapter struct {
	repo persistence.PurchaseRepository
}

func newPurchaseLedgerAdapter(repo persistence.PurchaseRepository) *purchaseLedgerAdapter {
	return &purchaseLedgerAdapter{repo: repo}
}

func (a *purchaseLedgerAdapter) ListPurchasesByRecipient(ctx context.Context, recipientName string) ([]application.Purchase, error) {
	stored, err := a.repo.ListPurchasesByRecipient(ctx, recipientName)
	if err != nil {
		return nil, err
	}
	purchases := make([]application.Purchase, 0, len(stored))
	for _, p := range stored {
		purchases = append(purchases, application.Purchase{
			ID:            p.Purchase.ID,
			EventID:       p.Purchase.EventID,
			RecipientName: p.Purchase.RecipientName,
			TransactionID: p.Purchase.TransactionID,
			Refunded:      p.Refunded,
			Event:         toCatalogEvent(p.Event),
		})
	}
	return purchases, nil
}

type userDirectoryAdapter struct {
	repo persistence.UserRepository
}

func newUserDirectoryAdapter(repo persistence.UserRepository) *userDirectoryAdapter {
	return &userDirectoryAdapter{repo: repo}
}

func (a *userDirectoryAdapter) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	user, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return application.DisplayName(user.FirstName, user.LastName, user.DisplayName), nil
}

func (a *userDirectoryAdapter) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := a.repo.ListUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(found))
	for _, user := range found {
		known[user.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func toCatalogEvent(model persistence.Event) application.CatalogEvent {
	return application.CatalogEvent{
		ID:               model.ID,
		Title:            model.Title,
		Window:           scheduler.TimeWindow{Start: cloneTime(model.Start), End: cloneTime(model.End)},
		TicketsAvailable: cloneInt(model.TicketsAvailable),
		IsCanceled:       model.IsCanceled,
	}
}

func toApplicationPersonalEvent(model persistence.PersonalEvent) application.PersonalEvent {
	return application.PersonalEvent{
		ID:          model.ID,
		CreatorID:   model.CreatorID,
		Title:       model.Title,
		Start:       cloneTime(model.Start),
		End:         cloneTime(model.End),
		Location:    cloneString(model.Location),
		Description: cloneString(model.Description),
		AttendeeIDs: slices.Clone(model.Attendees),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistencePersonalEvent(event application.PersonalEvent) persistence.PersonalEvent {
	return persistence.PersonalEvent{
		ID:          event.ID,
		CreatorID:   event.CreatorID,
		Title:       event.Title,
		Start:       cloneTime(event.Start),
		End:         cloneTime(event.End),
		Location:    cloneString(event.Location),
		Description: cloneString(event.Description),
		Attendees:   slices.Clone(event.AttendeeIDs),
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
