package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notes sentinels distinguishing how a completion log entry was produced.
const (
	NotesScheduledRenewal = "scheduled renewal"
	NotesManualReset      = "manual administrative reset"
)

// TombstoneReviewerName replaces the reviewer display name on anonymized
// rows.
const TombstoneReviewerName = "former staff"

// CompletionLogEntry is one immutable snapshot of a reviewer's outcome for
// one plan year of one client. The triple (ClientID, ReviewerID,
// PlanYearStart) is unique; it is the idempotency key that prevents
// archiving the same cycle twice. Rows are never updated or deleted once
// inserted; an identity-deletion request anonymizes the reviewer reference
// in place, the row itself survives for compliance retention.
type CompletionLogEntry struct {
	ID            uuid.UUID
	ClientID      uuid.UUID
	ReviewerID    uuid.UUID
	ReviewerName  string
	PlanYearStart time.Time
	PlanYearEnd   time.Time
	CompletedAt   *time.Time // nil = gap: the reviewer did not finish in time
	ArchivedAt    time.Time
	Notes         *string
}

// IsGap reports whether the reviewer missed the cycle.
func (e *CompletionLogEntry) IsGap() bool { return e.CompletedAt == nil }

// CompletionLogFilter narrows a completion log query. Nil fields are
// ignored; any combination is allowed.
type CompletionLogFilter struct {
	ClientID      *uuid.UUID
	ReviewerID    *uuid.UUID
	PlanYearStart *time.Time
}

// CompletionLogStats aggregates a client's ledger.
type CompletionLogStats struct {
	Total     int
	Completed int
	Gaps      int
}
