package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// Assign opens a responsibility window for a reviewer on a client. The
// reviewer must be a member of the client's tenant. A second open row for
// the same pair surfaces as domain.ErrAlreadyExists.
func (s *Service) Assign(ctx context.Context, input AssignInput) (*domain.Assignment, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if !client.IsActive() {
		return nil, domain.NewValidationError("client", "archived clients cannot take assignments")
	}

	member, err := s.platform.IsMember(ctx, client.TenantID, input.ReviewerID)
	if err != nil {
		return nil, fmt.Errorf("membership check: %w", err)
	}
	if !member {
		return nil, domain.NewValidationError("reviewer_id", "not a member of the client's tenant")
	}

	created, err := s.assignments.Create(ctx, &domain.Assignment{
		ClientID:     input.ClientID,
		ReviewerID:   input.ReviewerID,
		ReviewerName: input.ReviewerName,
		AssignedAt:   time.Now().UTC(),
		AssignedBy:   actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	s.log.InfoContext(ctx, "reviewer assigned",
		slog.String("client_id", input.ClientID.String()),
		slog.String("reviewer_id", input.ReviewerID.String()),
	)

	return created, nil
}

// Unassign soft-closes the reviewer's open window. The row survives for the
// assignment history.
func (s *Service) Unassign(ctx context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, []domain.Event, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	closed, err := s.assignments.Close(ctx, clientID, reviewerID, now, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("close assignment: %w", err)
	}

	events := []domain.Event{domain.ReviewerUnassigned{
		ClientID:     clientID,
		ReviewerID:   reviewerID,
		UnassignedBy: actorID,
		UnassignedAt: now,
	}}

	return closed, events, nil
}

// Reassign hands a client from one reviewer to another in a single
// transaction, so no moment exists where the client has neither.
func (s *Service) Reassign(ctx context.Context, clientID, fromReviewerID uuid.UUID, to AssignInput) (*domain.Assignment, []domain.Event, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrForbidden
	}

	to.ClientID = clientID
	if err := s.validateInput(to); err != nil {
		return nil, nil, err
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("get client: %w", err)
	}

	member, err := s.platform.IsMember(ctx, client.TenantID, to.ReviewerID)
	if err != nil {
		return nil, nil, fmt.Errorf("membership check: %w", err)
	}
	if !member {
		return nil, nil, domain.NewValidationError("reviewer_id", "not a member of the client's tenant")
	}

	now := time.Now().UTC()
	var created *domain.Assignment
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, closeErr := s.assignments.Close(txCtx, clientID, fromReviewerID, now, actorID); closeErr != nil {
			return fmt.Errorf("close assignment: %w", closeErr)
		}

		var createErr error
		created, createErr = s.assignments.Create(txCtx, &domain.Assignment{
			ClientID:     clientID,
			ReviewerID:   to.ReviewerID,
			ReviewerName: to.ReviewerName,
			AssignedAt:   now,
			AssignedBy:   actorID,
		})
		if createErr != nil {
			return fmt.Errorf("create assignment: %w", createErr)
		}
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	events := []domain.Event{domain.ReviewerUnassigned{
		ClientID:     clientID,
		ReviewerID:   fromReviewerID,
		UnassignedBy: actorID,
		UnassignedAt: now,
	}}

	return created, events, nil
}

// ListActive returns the client's open assignments ordered by reviewer name.
func (s *Service) ListActive(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error) {
	return s.assignments.ListOpenByClient(ctx, clientID)
}

// History returns every assignment row for the client, open and closed.
func (s *Service) History(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error) {
	return s.assignments.History(ctx, clientID)
}

func (s *Service) validateInput(input AssignInput) error {
	var errs []domain.FieldError
	if input.ClientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "client_id", Message: "is required"})
	}
	if input.ReviewerID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "reviewer_id", Message: "is required"})
	}
	if strings.TrimSpace(input.ReviewerName) == "" {
		errs = append(errs, domain.FieldError{Field: "reviewer_name", Message: "is required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
