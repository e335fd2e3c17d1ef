package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedTenant inserts an enabled tenant_settings row and returns the tenant ID.
func SeedTenant(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO tenant_settings (tenant_id, enabled, enabled_at, enabled_by) VALUES ($1, true, now(), $2)`,
		tenantID, uuid.New(),
	)
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	return tenantID
}

// SeedClient inserts an active client for the tenant with the given anchor
// month/day and returns the client ID.
func SeedClient(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, name string, month time.Month, day int) uuid.UUID {
	t.Helper()

	clientID := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO clients (id, tenant_id, name, name_normalized, service_type, anchor_month, anchor_day, artifact_ref, status, updated_by)
		 VALUES ($1, $2, $3, lower($3), 'RESIDENTIAL', $4, $5, $6, 'ACTIVE', $7)`,
		clientID, tenantID, name, int(month), day, "course-"+clientID.String(), uuid.New(),
	)
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}

	return clientID
}

// SeedAssignment opens an assignment row for the client and returns the
// reviewer ID.
func SeedAssignment(t *testing.T, pool *pgxpool.Pool, clientID uuid.UUID, reviewerName string) uuid.UUID {
	t.Helper()

	reviewerID := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO assignments (id, client_id, reviewer_id, reviewer_name, assigned_at, assigned_by)
		 VALUES ($1, $2, $3, $4, now(), $5)`,
		uuid.New(), clientID, reviewerID, reviewerName, uuid.New(),
	)
	if err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	return reviewerID
}
