package client

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// EnableTenant switches renewal sweeps on for a tenant. The host platform
// must have the tracking feature enabled for the tenant first; the local
// flag is what the sweep's due-client query joins against.
func (s *Service) EnableTenant(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	enabled, err := s.platform.IsFeatureEnabled(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("feature check: %w", err)
	}
	if !enabled {
		return nil, domain.NewValidationError("tenant", "tracking feature is not enabled on the platform")
	}

	settings, err := s.tenants.SetEnabled(ctx, tenantID, true, actorID)
	if err != nil {
		return nil, fmt.Errorf("enable tenant: %w", err)
	}

	s.log.InfoContext(ctx, "tenant tracking enabled",
		slog.String("tenant_id", tenantID.String()),
	)

	return settings, nil
}

// DisableTenant switches renewal sweeps off for a tenant. Client records
// and their completion logs are untouched.
func (s *Service) DisableTenant(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	settings, err := s.tenants.SetEnabled(ctx, tenantID, false, actorID)
	if err != nil {
		return nil, fmt.Errorf("disable tenant: %w", err)
	}
	return settings, nil
}

// TenantSettings returns the tenant's local tracking settings.
func (s *Service) TenantSettings(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error) {
	return s.tenants.Get(ctx, tenantID)
}
