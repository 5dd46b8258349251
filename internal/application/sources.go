package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/conschedule/internal/scheduler"
)

// CommitmentSource normalises one kind of record into commitments for a user.
type CommitmentSource interface {
	Kind() scheduler.SourceKind
	Commitments(ctx context.Context, userID string) ([]scheduler.Commitment, error)
}

// SourceDeps lists the stores the four commitment sources read from.
type SourceDeps struct {
	PersonalEvents PersonalEventRepository
	DesiredEvents  SignupStore
	TrackedEvents  SignupStore
	Purchases      PurchaseLedger
	Users          UserDirectory
	Logger         *slog.Logger
}

// NewCommitmentSources builds the sources in result order. Nil stores are skipped.
func NewCommitmentSources(deps SourceDeps) []CommitmentSource {
	var sources []CommitmentSource
	if deps.PersonalEvents != nil {
		sources = append(sources, personalSource{events: deps.PersonalEvents})
	}
	if deps.DesiredEvents != nil {
		sources = append(sources, signupSource{kind: scheduler.SourceKindDesired, signups: deps.DesiredEvents})
	}
	if deps.TrackedEvents != nil {
		sources = append(sources, signupSource{kind: scheduler.SourceKindTracked, signups: deps.TrackedEvents})
	}
	if deps.Purchases != nil && deps.Users != nil {
		sources = append(sources, purchasedSource{
			purchases: deps.Purchases,
			users:     deps.Users,
			logger:    defaultLogger(deps.Logger),
		})
	}
	return sources
}

type personalSource struct {
	events PersonalEventRepository
}

func (personalSource) Kind() scheduler.SourceKind { return scheduler.SourceKindPersonal }

func (s personalSource) Commitments(ctx context.Context, userID string) ([]scheduler.Commitment, error) {
	events, err := s.events.ListPersonalEventsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	commitments := make([]scheduler.Commitment, 0, len(events))
	for _, event := range events {
		commitments = append(commitments, scheduler.Commitment{
			ID:          event.ID,
			OwnerUserID: event.CreatorID,
			Title:       event.Title,
			Window:      event.Window(),
			SourceKind:  scheduler.SourceKindPersonal,
			SourceLabel: scheduler.SourceKindPersonal.Label(),
		})
	}
	return commitments, nil
}

// signupSource serves desired and tracked events.
type signupSource struct {
	kind    scheduler.SourceKind
	signups SignupStore
}

func (s signupSource) Kind() scheduler.SourceKind { return s.kind }

func (s signupSource) Commitments(ctx context.Context, userID string) ([]scheduler.Commitment, error) {
	signups, err := s.signups.ListSignupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	commitments := make([]scheduler.Commitment, 0, len(signups))
	for _, signup := range signups {
		if signup.Event.IsCanceled {
			continue
		}
		commitments = append(commitments, scheduler.Commitment{
			ID:          signup.Signup.ID,
			EventID:     signup.Event.ID,
			OwnerUserID: signup.Signup.UserID,
			Title:       signup.Event.Title,
			Window:      signup.Event.Window,
			SourceKind:  s.kind,
			SourceLabel: s.kind.Label(),
		})
	}
	return commitments, nil
}

// purchasedSource finds tickets by the user's display name. Tickets carry a
// recipient name rather than a user id, so two users sharing a name see each
// other's tickets.
type purchasedSource struct {
	purchases PurchaseLedger
	users     UserDirectory
	logger    *slog.Logger
}

func (purchasedSource) Kind() scheduler.SourceKind { return scheduler.SourceKindPurchased }

func (s purchasedSource) Commitments(ctx context.Context, userID string) ([]scheduler.Commitment, error) {
	recipient, ok, err := s.resolvePurchaseRecipient(ctx, userID)
	if err != nil || !ok {
		return nil, err
	}

	purchases, err := s.purchases.ListPurchasesByRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}

	commitments := make([]scheduler.Commitment, 0, len(purchases))
	refunded := 0
	for _, purchase := range purchases {
		if purchase.Refunded {
			refunded++
			continue
		}
		if purchase.Event.IsCanceled {
			continue
		}
		commitments = append(commitments, scheduler.Commitment{
			ID:          purchase.ID,
			EventID:     purchase.EventID,
			OwnerUserID: userID,
			Title:       purchase.Event.Title,
			Window:      purchase.Event.Window,
			SourceKind:  scheduler.SourceKindPurchased,
			SourceLabel: scheduler.SourceKindPurchased.Label(),
		})
	}

	s.logger.DebugContext(ctx, "purchased tickets matched by recipient name",
		"user_id", userID,
		"recipient_name", recipient,
		"matched", len(purchases),
		"refunded", refunded,
	)
	return commitments, nil
}

// resolvePurchaseRecipient returns the name the user's tickets are issued
// under. An unknown user or a blank name yields no recipient.
func (s purchasedSource) resolvePurchaseRecipient(ctx context.Context, userID string) (string, bool, error) {
	name, err := s.users.ResolveDisplayName(ctx, userID)
	if err != nil {
		if isNotFoundError(err) {
			s.logger.WarnContext(ctx, "purchase recipient unresolved: unknown user", "user_id", userID)
			return "", false, nil
		}
		return "", false, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.WarnContext(ctx, "purchase recipient unresolved: empty display name", "user_id", userID)
		return "", false, nil
	}
	return name, true, nil
}
