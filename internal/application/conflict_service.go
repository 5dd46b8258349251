package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/conschedule/internal/scheduler"
)

// ConflictService aggregates a user's commitments across every source and
// reports which of them overlap a window.
type ConflictService struct {
	sources []CommitmentSource
	logger  *slog.Logger
}

// NewConflictService constructs a conflict service over sources.
func NewConflictService(sources []CommitmentSource) *ConflictService {
	return NewConflictServiceWithLogger(sources, nil)
}

// NewConflictServiceWithLogger constructs a conflict service with a specified logger.
func NewConflictServiceWithLogger(sources []CommitmentSource, logger *slog.Logger) *ConflictService {
	return &ConflictService{sources: sources, logger: defaultLogger(logger)}
}

func (s *ConflictService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConflictService", operation, attrs...)
}

// FindConflicts returns the user's commitments that overlap query.Window,
// ordered by source kind and then by discovery order within a kind.
func (s *ConflictService) FindConflicts(ctx context.Context, query ConflictQuery) (scheduler.ConflictResult, error) {
	if s == nil {
		return scheduler.ConflictResult{}, fmt.Errorf("ConflictService is nil")
	}
	if !query.Window.Valid() {
		return scheduler.ConflictResult{}, ErrInvalidWindow
	}

	commitments, err := s.collect(ctx, query.UserID)
	if err != nil {
		return scheduler.ConflictResult{}, err
	}

	if query.ExcludeEventID != "" {
		kept := commitments[:0]
		for _, c := range commitments {
			if c.EventID != query.ExcludeEventID {
				kept = append(kept, c)
			}
		}
		commitments = kept
	}

	return scheduler.DetectConflicts(commitments, query.Window, query.Exclude), nil
}

// CheckConflicts is the caller-facing conflict query. It validates the
// exclusion reference and logs the outcome.
func (s *ConflictService) CheckConflicts(ctx context.Context, principal Principal, query ConflictQuery) (result scheduler.ConflictResult, err error) {
	if s == nil {
		err = fmt.Errorf("ConflictService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckConflicts", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "conflict check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflict_count", len(result.Conflicts)).InfoContext(ctx, "conflicts checked")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if query.Exclude != nil && !query.Exclude.SourceKind.Valid() {
		vErr := &ValidationError{}
		vErr.add("exclude.source_kind", "unknown source kind")
		err = vErr
		return
	}

	query.UserID = principal.UserID
	result, err = s.FindConflicts(ctx, query)
	return
}

// ListCommitments returns every commitment of the user ordered by source kind.
func (s *ConflictService) ListCommitments(ctx context.Context, principal Principal) (commitments []scheduler.Commitment, err error) {
	if s == nil {
		err = fmt.Errorf("ConflictService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListCommitments", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list commitments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(commitments)).InfoContext(ctx, "commitments listed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	commitments, err = s.collect(ctx, principal.UserID)
	if err != nil {
		return
	}
	scheduler.SortCommitments(commitments)
	return
}

// collect queries every source in parallel. All sources run to completion;
// any failure fails the whole collection.
func (s *ConflictService) collect(ctx context.Context, userID string) ([]scheduler.Commitment, error) {
	perSource := make([][]scheduler.Commitment, len(s.sources))

	var g errgroup.Group
	for i, source := range s.sources {
		i, source := i, source
		g.Go(func() error {
			commitments, err := source.Commitments(ctx, userID)
			if err != nil {
				return fmt.Errorf("%s commitments: %w", source.Kind(), err)
			}
			perSource[i] = commitments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storageFailure(err)
	}

	total := 0
	for _, commitments := range perSource {
		total += len(commitments)
	}
	all := make([]scheduler.Commitment, 0, total)
	for _, commitments := range perSource {
		all = append(all, commitments...)
	}
	return all, nil
}

// storageFailure marks err as a store outage unless it is a cancellation or
// already marked.
func storageFailure(err error) error {
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
