package planreset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/careloop/careplan-backend/internal/domain"
)

// ResetOne archives the reviewer's outcome for the given plan year window
// and resets their live completion state. Idempotent per (client, reviewer,
// window start): if an entry already exists the call is a no-op.
//
// The audit write is never rolled back. If the external reset command fails
// after the entry is committed, the persisted entry is returned alongside
// the error so the caller can report the failure without losing the trail.
func (s *Service) ResetOne(ctx context.Context, client *domain.Client, assignment *domain.Assignment, window domain.PlanYear, notes string) (*Result, error) {
	done, err := s.audit.Exists(ctx, client.ID, assignment.ReviewerID, window.Start)
	if err != nil {
		return nil, fmt.Errorf("check completion log: %w", err)
	}
	if done {
		s.log.DebugContext(ctx, "cycle already archived",
			slog.String("client_id", client.ID.String()),
			slog.String("reviewer_id", assignment.ReviewerID.String()),
		)
		return &Result{AlreadyDone: true}, nil
	}

	snapshot, err := s.training.GetCurrentCompletion(ctx, client.ArtifactRef, assignment.ReviewerID)
	if err != nil {
		return nil, fmt.Errorf("read completion snapshot: %w", err)
	}

	entry := &domain.CompletionLogEntry{
		ClientID:      client.ID,
		ReviewerID:    assignment.ReviewerID,
		ReviewerName:  assignment.ReviewerName,
		PlanYearStart: window.Start,
		PlanYearEnd:   window.End,
		CompletedAt:   snapshot,
		ArchivedAt:    time.Now().UTC(),
		Notes:         &notes,
	}

	persisted, err := s.audit.Append(ctx, entry)
	if err != nil {
		// A concurrent writer got there first; their entry stands.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return &Result{AlreadyDone: true}, nil
		}
		return nil, fmt.Errorf("append completion log: %w", err)
	}

	if err := s.training.ResetCompletion(ctx, client.ArtifactRef, assignment.ReviewerID); err != nil {
		s.log.ErrorContext(ctx, "live reset failed after archive",
			slog.String("client_id", client.ID.String()),
			slog.String("reviewer_id", assignment.ReviewerID.String()),
			slog.Any("error", err),
		)
		return &Result{Entry: persisted}, fmt.Errorf("reset live completion: %w", err)
	}

	s.log.InfoContext(ctx, "cycle archived and reset",
		slog.String("client_id", client.ID.String()),
		slog.String("reviewer_id", assignment.ReviewerID.String()),
		slog.Time("plan_year_start", window.Start),
		slog.Bool("gap", persisted.IsGap()),
	)

	return &Result{Entry: persisted}, nil
}
