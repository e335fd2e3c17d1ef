package planreset

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// ManualReset is an administrator-triggered out-of-cycle reset: the current
// plan year is archived early, with "now" as the window's end. The same
// idempotency key applies, so a manual reset racing a scheduled sweep
// resolves to exactly one archived entry.
//
// Emits ManualResetPerformed when an entry was persisted, including when
// the subsequent live reset failed.
func (s *Service) ManualReset(ctx context.Context, clientID, reviewerID uuid.UUID) (*Result, []domain.Event, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrForbidden
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("get client: %w", err)
	}
	if !client.IsActive() {
		return nil, nil, domain.NewValidationError("client", "archived clients cannot be reset")
	}

	assignment, err := s.assignments.GetOpen(ctx, clientID, reviewerID)
	if err != nil {
		return nil, nil, fmt.Errorf("get open assignment: %w", err)
	}

	now := time.Now().UTC()
	window := domain.PlanYear{
		Start: client.Anchor.PlanYear(now).Start,
		End:   now,
	}

	result, resetErr := s.ResetOne(ctx, client, assignment, window, domain.NotesManualReset)
	if result == nil {
		return nil, nil, resetErr
	}

	var events []domain.Event
	if result.Entry != nil {
		events = append(events, domain.ManualResetPerformed{
			ClientID:    clientID,
			ReviewerID:  reviewerID,
			PerformedBy: actorID,
			PerformedAt: now,
		})
	}

	return result, events, resetErr
}
