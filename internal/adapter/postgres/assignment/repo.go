// Package assignment implements the reviewer↔client assignment repository
// using PostgreSQL. Rows are soft-closed, never deleted; the partial unique
// index assignments_open_uniq enforces one open row per pair.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/careplan-backend/internal/adapter/postgres"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Repo provides assignment persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new assignment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const assignmentColumns = `id, client_id, reviewer_id, reviewer_name, assigned_at, assigned_by, unassigned_at, unassigned_by`

const createSQL = `
INSERT INTO assignments (id, client_id, reviewer_id, reviewer_name, assigned_at, assigned_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + assignmentColumns

const listOpenByClientSQL = `
SELECT ` + assignmentColumns + `
FROM assignments
WHERE client_id = $1 AND unassigned_at IS NULL
ORDER BY reviewer_name ASC`

const getOpenSQL = `
SELECT ` + assignmentColumns + `
FROM assignments
WHERE client_id = $1 AND reviewer_id = $2 AND unassigned_at IS NULL`

const closeSQL = `
UPDATE assignments
SET unassigned_at = $2, unassigned_by = $3
WHERE client_id = $1 AND reviewer_id = $4 AND unassigned_at IS NULL
RETURNING ` + assignmentColumns

const historySQL = `
SELECT ` + assignmentColumns + `
FROM assignments
WHERE client_id = $1
ORDER BY assigned_at DESC`

const anonymizeSQL = `
UPDATE assignments
SET reviewer_id = $2, reviewer_name = $3
WHERE reviewer_id = $1`

// Create opens a new responsibility window. A second open row for the same
// (client, reviewer) pair surfaces as domain.ErrAlreadyExists via the
// partial unique index.
func (r *Repo) Create(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	created, err := scanAssignment(querier.QueryRow(ctx, createSQL,
		id, a.ClientID, a.ReviewerID, a.ReviewerName, a.AssignedAt.UTC(), a.AssignedBy,
	))
	if err != nil {
		return nil, postgres.MapError(err, "assignment", id)
	}

	return created, nil
}

// ListOpenByClient returns the client's currently-active reviewer links,
// ordered by reviewer name.
func (r *Repo) ListOpenByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listOpenByClientSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("list open assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}

	return assignments, nil
}

// GetOpen returns the open assignment for a (client, reviewer) pair.
// Returns domain.ErrNotFound if the reviewer is not currently assigned.
func (r *Repo) GetOpen(ctx context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	a, err := scanAssignment(querier.QueryRow(ctx, getOpenSQL, clientID, reviewerID))
	if err != nil {
		return nil, postgres.MapError(err, "assignment", clientID)
	}

	return a, nil
}

// Close soft-closes the open assignment for a (client, reviewer) pair.
// Returns domain.ErrNotFound if no open row exists.
func (r *Repo) Close(ctx context.Context, clientID, reviewerID uuid.UUID, at time.Time, by uuid.UUID) (*domain.Assignment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	a, err := scanAssignment(querier.QueryRow(ctx, closeSQL, clientID, at.UTC(), by, reviewerID))
	if err != nil {
		return nil, postgres.MapError(err, "assignment", clientID)
	}

	return a, nil
}

// History returns all assignment rows for a client, newest first, including
// closed windows. The audit surface for "who was ever responsible".
func (r *Repo) History(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, historySQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("assignment history: %w", err)
	}
	defer rows.Close()

	assignments := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment history: %w", err)
	}

	return assignments, nil
}

// AnonymizeReviewer replaces a reviewer's identity in place with a
// tombstone across all assignment rows. Returns the number of rows rewritten.
func (r *Repo) AnonymizeReviewer(ctx context.Context, reviewerID, tombstone uuid.UUID) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, anonymizeSQL, reviewerID, tombstone, domain.TombstoneReviewerName)
	if err != nil {
		return 0, postgres.MapError(err, "assignment", reviewerID)
	}

	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ReviewerID,
		&a.ReviewerName,
		&a.AssignedAt,
		&a.AssignedBy,
		&a.UnassignedAt,
		&a.UnassignedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
