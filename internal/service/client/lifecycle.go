package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// Get fetches one client.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// List returns all clients of a tenant, active and archived.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Client, error) {
	return s.clients.ListByTenant(ctx, tenantID)
}

// Archive removes the client from renewal sweeps. The record and its
// completion log survive. Archiving an already-archived client is a no-op.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) (*domain.Client, []domain.Event, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrForbidden
	}

	current, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get client: %w", err)
	}
	if !current.IsActive() {
		return current, nil, nil
	}

	updated, err := s.clients.SetStatus(ctx, id, domain.ClientStatusArchived, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("archive client: %w", err)
	}

	events := []domain.Event{domain.ClientArchived{
		ClientID:   updated.ID,
		TenantID:   updated.TenantID,
		ArchivedBy: actorID,
		ArchivedAt: time.Now().UTC(),
	}}

	return updated, events, nil
}

// Unarchive returns the client to active tracking.
func (s *Service) Unarchive(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	current, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if current.IsActive() {
		return current, nil
	}

	updated, err := s.clients.SetStatus(ctx, id, domain.ClientStatusActive, actorID)
	if err != nil {
		return nil, fmt.Errorf("unarchive client: %w", err)
	}
	return updated, nil
}

// Rename changes the display name. Uniqueness per tenant is enforced by the
// store; a conflict surfaces as ErrAlreadyExists.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Client, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}
	if domain.NormalizeClientName(name) == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	updated, err := s.clients.Rename(ctx, id, name, actorID)
	if err != nil {
		return nil, fmt.Errorf("rename client: %w", err)
	}
	return updated, nil
}

// ChangeAnchor is the explicit anniversary edit. It shifts future plan year
// windows; already-archived cycles keep the boundaries they were written
// with.
func (s *Service) ChangeAnchor(ctx context.Context, id uuid.UUID, anchorDate time.Time) (*domain.Client, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	if anchorDate.IsZero() {
		return nil, domain.NewValidationError("anchor_date", "is required")
	}
	if anchorDate.After(now) {
		return nil, domain.NewValidationError("anchor_date", "must not be in the future")
	}

	updated, err := s.clients.SetAnchor(ctx, id, domain.AnchorDateOf(anchorDate), actorID)
	if err != nil {
		return nil, fmt.Errorf("change anchor: %w", err)
	}
	return updated, nil
}
