package client

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// Create constructs a new client record and provisions its training
// artifact. The acting identity must be a member of the target tenant.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Client, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	member, err := s.platform.IsMember(ctx, input.TenantID, actorID)
	if err != nil {
		return nil, fmt.Errorf("membership check: %w", err)
	}
	if !member {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	if err := domain.ValidateNewClient(input.Name, input.ServiceType, input.AnchorDate, now); err != nil {
		return nil, err
	}
	if s.provisioner == nil && input.ArtifactRef == "" {
		return nil, domain.NewValidationError("artifact_ref", "is required")
	}

	client := &domain.Client{
		ID:          uuid.New(),
		TenantID:    input.TenantID,
		Name:        input.Name,
		ServiceType: input.ServiceType,
		Anchor:      domain.AnchorDateOf(input.AnchorDate),
		ArtifactRef: input.ArtifactRef,
		Status:      domain.ClientStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   actorID,
	}

	if s.provisioner != nil {
		ref, err := s.provisioner.Provision(ctx, input.TenantID, client.ID, input.Name)
		if err != nil {
			return nil, fmt.Errorf("provision artifact: %w", err)
		}
		client.ArtifactRef = ref
	}

	created, err := s.clients.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.log.InfoContext(ctx, "client created",
		slog.String("client_id", created.ID.String()),
		slog.String("tenant_id", created.TenantID.String()),
		slog.String("anchor", created.Anchor.String()),
	)

	return created, nil
}
