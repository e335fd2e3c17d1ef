// Package audit is the ops-facing facade over the completion log: filtered
// queries, gap listings, aggregate stats, and the identity anonymization
// batch. The log itself is append-only; anonymization rewrites reviewer
// references in place without touching row contents otherwise.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type completionLogRepo interface {
	Query(ctx context.Context, filter domain.CompletionLogFilter) ([]*domain.CompletionLogEntry, error)
	Gaps(ctx context.Context, clientID uuid.UUID) ([]*domain.CompletionLogEntry, error)
	Stats(ctx context.Context, clientID uuid.UUID) (domain.CompletionLogStats, error)
	AnonymizeReviewer(ctx context.Context, reviewerID, tombstone uuid.UUID) (int64, error)
}

type assignmentRepo interface {
	AnonymizeReviewer(ctx context.Context, reviewerID, tombstone uuid.UUID) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the audit query and anonymization logic.
type Service struct {
	log         *slog.Logger
	entries     completionLogRepo
	assignments assignmentRepo
	tx          txManager
}

// NewService creates a new audit service.
func NewService(logger *slog.Logger, entries completionLogRepo, assignments assignmentRepo, tx txManager) *Service {
	return &Service{
		log:         logger.With("service", "audit"),
		entries:     entries,
		assignments: assignments,
		tx:          tx,
	}
}

// Query returns completion log entries matching the filter, ordered by plan
// year start descending, then reviewer name ascending.
func (s *Service) Query(ctx context.Context, filter domain.CompletionLogFilter) ([]*domain.CompletionLogEntry, error) {
	return s.entries.Query(ctx, filter)
}

// Gaps returns the client's archived cycles where the reviewer never
// completed.
func (s *Service) Gaps(ctx context.Context, clientID uuid.UUID) ([]*domain.CompletionLogEntry, error) {
	return s.entries.Gaps(ctx, clientID)
}

// Stats aggregates the client's ledger.
func (s *Service) Stats(ctx context.Context, clientID uuid.UUID) (domain.CompletionLogStats, error) {
	return s.entries.Stats(ctx, clientID)
}

// AnonymizeResult reports what an anonymization run rewrote.
type AnonymizeResult struct {
	Tombstone      uuid.UUID `json:"tombstone"`
	LogRows        int64     `json:"log_rows"`
	AssignmentRows int64     `json:"assignment_rows"`
	FinishedAt     time.Time `json:"finished_at"`
}

// AnonymizeReviewer replaces every reference to the reviewer in the
// completion log and assignment history with a fresh tombstone UUID and a
// neutral display name, in one transaction. Rows are preserved; compliance
// retention outranks deletion.
func (s *Service) AnonymizeReviewer(ctx context.Context, reviewerID uuid.UUID) (*AnonymizeResult, error) {
	if reviewerID == uuid.Nil {
		return nil, domain.NewValidationError("reviewer_id", "is required")
	}

	result := &AnonymizeResult{Tombstone: uuid.New()}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		result.LogRows, err = s.entries.AnonymizeReviewer(txCtx, reviewerID, result.Tombstone)
		if err != nil {
			return fmt.Errorf("anonymize completion log: %w", err)
		}

		result.AssignmentRows, err = s.assignments.AnonymizeReviewer(txCtx, reviewerID, result.Tombstone)
		if err != nil {
			return fmt.Errorf("anonymize assignments: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	result.FinishedAt = time.Now().UTC()

	s.log.InfoContext(ctx, "reviewer anonymized",
		slog.String("tombstone", result.Tombstone.String()),
		slog.Int64("log_rows", result.LogRows),
		slog.Int64("assignment_rows", result.AssignmentRows),
	)

	return result, nil
}
