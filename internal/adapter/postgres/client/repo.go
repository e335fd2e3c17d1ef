// Package client implements the client repository using PostgreSQL.
// Clients are never physically deleted; archival flips the status column.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/careplan-backend/internal/adapter/postgres"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Repo provides client persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new client repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const clientColumns = `id, tenant_id, name, service_type, anchor_month, anchor_day, artifact_ref, status, created_at, updated_at, updated_by`

const getByIDSQL = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

const createSQL = `
INSERT INTO clients
    (id, tenant_id, name, name_normalized, service_type, anchor_month, anchor_day, artifact_ref, status, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + clientColumns

const setStatusSQL = `
UPDATE clients
SET status = $2, updated_at = now(), updated_by = $3
WHERE id = $1
RETURNING ` + clientColumns

const renameSQL = `
UPDATE clients
SET name = $2, name_normalized = $3, updated_at = now(), updated_by = $4
WHERE id = $1
RETURNING ` + clientColumns

const setAnchorSQL = `
UPDATE clients
SET anchor_month = $2, anchor_day = $3, updated_at = now(), updated_by = $4
WHERE id = $1
RETURNING ` + clientColumns

const listByTenantSQL = `
SELECT ` + clientColumns + `
FROM clients
WHERE tenant_id = $1
ORDER BY name_normalized ASC`

// dueClientsSQL streams active clients of enabled tenants whose anniversary
// matches the given month/day, keyset-paginated on id so the sweep never
// loads the whole population at once.
const dueClientsSQL = `
SELECT ` + clientColumns + `
FROM clients c
JOIN tenant_settings ts ON ts.tenant_id = c.tenant_id AND ts.enabled
WHERE c.status = 'ACTIVE'
  AND c.anchor_month = $1
  AND c.anchor_day = $2
  AND c.id > $3
ORDER BY c.id ASC
LIMIT $4`

// GetByID returns one client. Returns domain.ErrNotFound if absent.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanClient(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "client", id)
	}

	return c, nil
}

// Create inserts a new client. A duplicate name within the tenant surfaces
// as domain.ErrAlreadyExists via the (tenant_id, name_normalized) index.
func (r *Repo) Create(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	created, err := scanClient(querier.QueryRow(ctx, createSQL,
		id,
		c.TenantID,
		c.Name,
		domain.NormalizeClientName(c.Name),
		c.ServiceType.String(),
		int(c.Anchor.Month),
		c.Anchor.Day,
		c.ArtifactRef,
		domain.ClientStatusActive.String(),
		c.UpdatedBy,
	))
	if err != nil {
		return nil, postgres.MapError(err, "client", id)
	}

	return created, nil
}

// SetStatus transitions a client between ACTIVE and ARCHIVED.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus, updatedBy uuid.UUID) (*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanClient(querier.QueryRow(ctx, setStatusSQL, id, status.String(), updatedBy))
	if err != nil {
		return nil, postgres.MapError(err, "client", id)
	}

	return c, nil
}

// Rename changes the display name, keeping the normalized uniqueness column
// in step.
func (r *Repo) Rename(ctx context.Context, id uuid.UUID, name string, updatedBy uuid.UUID) (*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanClient(querier.QueryRow(ctx, renameSQL, id, name, domain.NormalizeClientName(name), updatedBy))
	if err != nil {
		return nil, postgres.MapError(err, "client", id)
	}

	return c, nil
}

// SetAnchor performs the explicit anchor-date edit. This is an
// administrative correction, not a lifecycle event: it does not touch the
// completion ledger.
func (r *Repo) SetAnchor(ctx context.Context, id uuid.UUID, anchor domain.AnchorDate, updatedBy uuid.UUID) (*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanClient(querier.QueryRow(ctx, setAnchorSQL, id, int(anchor.Month), anchor.Day, updatedBy))
	if err != nil {
		return nil, postgres.MapError(err, "client", id)
	}

	return c, nil
}

// ListByTenant returns all clients of a tenant, ordered by name.
func (r *Repo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByTenantSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list clients by tenant: %w", err)
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// ListDueByAnniversary returns one page of active clients of enabled tenants
// whose anchor month/day equals the given day, with id > afterID, ordered by
// id. Callers page through by passing the last id of the previous page;
// uuid.Nil starts from the beginning.
func (r *Repo) ListDueByAnniversary(ctx context.Context, month time.Month, day int, afterID uuid.UUID, limit int) ([]*domain.Client, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, dueClientsSQL, int(month), day, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list due clients: %w", err)
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due clients: %w", err)
	}

	return clients, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var (
		c           domain.Client
		serviceType string
		status      string
		anchorMonth int
		anchorDay   int
	)
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&serviceType,
		&anchorMonth,
		&anchorDay,
		&c.ArtifactRef,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	c.ServiceType = domain.ServiceType(serviceType)
	c.Status = domain.ClientStatus(status)
	c.Anchor = domain.AnchorDate{Month: time.Month(anchorMonth), Day: anchorDay}

	return &c, nil
}
