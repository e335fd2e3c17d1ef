// Package completionlog implements the append-only completion ledger using
// PostgreSQL. Rows are inserted exactly once per (client, reviewer,
// plan_year_start) and never updated afterwards, except for in-place
// anonymization of reviewer identity on a deletion request.
package completionlog

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careloop/careplan-backend/internal/adapter/postgres"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Repo provides completion log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new completion log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const entryColumns = `id, client_id, reviewer_id, reviewer_name, plan_year_start, plan_year_end, completed_at, archived_at, notes`

const existsSQL = `
SELECT EXISTS (
    SELECT 1 FROM completion_log
    WHERE client_id = $1 AND reviewer_id = $2 AND plan_year_start = $3
)`

const appendSQL = `
INSERT INTO completion_log
    (id, client_id, reviewer_id, reviewer_name, plan_year_start, plan_year_end, completed_at, archived_at, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + entryColumns

const gapsSQL = `
SELECT ` + entryColumns + `
FROM completion_log
WHERE client_id = $1 AND completed_at IS NULL
ORDER BY plan_year_start DESC, reviewer_name ASC`

const statsSQL = `
SELECT
    count(*) AS total,
    count(*) FILTER (WHERE completed_at IS NOT NULL) AS completed,
    count(*) FILTER (WHERE completed_at IS NULL) AS gaps
FROM completion_log
WHERE client_id = $1`

const anonymizeSQL = `
UPDATE completion_log
SET reviewer_id = $2, reviewer_name = $3
WHERE reviewer_id = $1`

// Exists is the idempotency check: an exact-match lookup on the unique
// triple (client, reviewer, plan_year_start).
func (r *Repo) Exists(ctx context.Context, clientID, reviewerID uuid.UUID, planYearStart time.Time) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, existsSQL, clientID, reviewerID, planYearStart).Scan(&exists); err != nil {
		return false, fmt.Errorf("completion_log exists check: %w", err)
	}

	return exists, nil
}

// Append inserts one immutable ledger row. A duplicate triple surfaces as
// domain.ErrAlreadyExists via the unique index, so concurrent writers race
// safely: the loser observes the duplicate signal, not a second row.
func (r *Repo) Append(ctx context.Context, entry *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := querier.QueryRow(ctx, appendSQL,
		id,
		entry.ClientID,
		entry.ReviewerID,
		entry.ReviewerName,
		entry.PlanYearStart.UTC(),
		entry.PlanYearEnd.UTC(),
		entry.CompletedAt,
		entry.ArchivedAt.UTC(),
		entry.Notes,
	)

	result, err := scanEntry(row)
	if err != nil {
		return nil, postgres.MapError(err, "completion_log", entry.ClientID)
	}

	return result, nil
}

// Query returns ledger entries matching any combination of filters,
// ordered by plan year descending, then reviewer name ascending.
func (r *Repo) Query(ctx context.Context, filter domain.CompletionLogFilter) ([]*domain.CompletionLogEntry, error) {
	builder := sq.Select(
		"id", "client_id", "reviewer_id", "reviewer_name",
		"plan_year_start", "plan_year_end", "completed_at", "archived_at", "notes",
	).
		From("completion_log").
		OrderBy("plan_year_start DESC", "reviewer_name ASC").
		PlaceholderFormat(sq.Dollar)

	if filter.ClientID != nil {
		builder = builder.Where(sq.Eq{"client_id": *filter.ClientID})
	}
	if filter.ReviewerID != nil {
		builder = builder.Where(sq.Eq{"reviewer_id": *filter.ReviewerID})
	}
	if filter.PlanYearStart != nil {
		builder = builder.Where(sq.Eq{"plan_year_start": filter.PlanYearStart.UTC()})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build completion_log query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query completion_log: %w", err)
	}
	defer rows.Close()

	entries := []*domain.CompletionLogEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion_log: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion_log: %w", err)
	}

	return entries, nil
}

// Gaps returns the client's entries with no completion timestamp: reviewers
// who did not finish their assigned cycle.
func (r *Repo) Gaps(ctx context.Context, clientID uuid.UUID) ([]*domain.CompletionLogEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, gapsSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("query completion_log gaps: %w", err)
	}
	defer rows.Close()

	entries := []*domain.CompletionLogEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion_log gap: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion_log gaps: %w", err)
	}

	return entries, nil
}

// Stats returns aggregate ledger counts for a client, computed in SQL.
func (r *Repo) Stats(ctx context.Context, clientID uuid.UUID) (domain.CompletionLogStats, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var stats domain.CompletionLogStats
	err := querier.QueryRow(ctx, statsSQL, clientID).Scan(&stats.Total, &stats.Completed, &stats.Gaps)
	if err != nil {
		return domain.CompletionLogStats{}, fmt.Errorf("completion_log stats: %w", err)
	}

	return stats, nil
}

// AnonymizeReviewer replaces a reviewer's identity references in place with
// a tombstone. The rows themselves survive: compliance retention overrides
// identity-deletion requests. Returns the number of rows rewritten.
func (r *Repo) AnonymizeReviewer(ctx context.Context, reviewerID, tombstone uuid.UUID) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, anonymizeSQL, reviewerID, tombstone, domain.TombstoneReviewerName)
	if err != nil {
		return 0, postgres.MapError(err, "completion_log", reviewerID)
	}

	return tag.RowsAffected(), nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.CompletionLogEntry, error) {
	var entry domain.CompletionLogEntry
	err := row.Scan(
		&entry.ID,
		&entry.ClientID,
		&entry.ReviewerID,
		&entry.ReviewerName,
		&entry.PlanYearStart,
		&entry.PlanYearEnd,
		&entry.CompletedAt,
		&entry.ArchivedAt,
		&entry.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
