// Package tenant implements the tenant_settings repository using PostgreSQL.
package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/careplan-backend/internal/adapter/postgres"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Repo provides tenant settings persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tenant settings repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const settingsColumns = `tenant_id, enabled, enabled_at, enabled_by, updated_at`

const getSQL = `SELECT ` + settingsColumns + ` FROM tenant_settings WHERE tenant_id = $1`

const upsertSQL = `
INSERT INTO tenant_settings (tenant_id, enabled, enabled_at, enabled_by, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (tenant_id) DO UPDATE
SET enabled = EXCLUDED.enabled,
    enabled_at = EXCLUDED.enabled_at,
    enabled_by = EXCLUDED.enabled_by,
    updated_at = now()
RETURNING ` + settingsColumns

// Get returns the tenant's settings. Returns domain.ErrNotFound for tenants
// that never enabled the feature.
func (r *Repo) Get(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var s domain.TenantSettings
	err := querier.QueryRow(ctx, getSQL, tenantID).Scan(
		&s.TenantID, &s.Enabled, &s.EnabledAt, &s.EnabledBy, &s.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "tenant_settings", tenantID)
	}

	return &s, nil
}

// SetEnabled flips the feature flag for a tenant, recording who and when.
func (r *Repo) SetEnabled(ctx context.Context, tenantID uuid.UUID, enabled bool, by uuid.UUID) (*domain.TenantSettings, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var enabledAt *time.Time
	var enabledBy *uuid.UUID
	if enabled {
		now := time.Now().UTC()
		enabledAt = &now
		enabledBy = &by
	}

	var s domain.TenantSettings
	err := querier.QueryRow(ctx, upsertSQL, tenantID, enabled, enabledAt, enabledBy).Scan(
		&s.TenantID, &s.Enabled, &s.EnabledAt, &s.EnabledBy, &s.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "tenant_settings", tenantID)
	}

	return &s, nil
}
