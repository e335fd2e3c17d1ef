package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is an outbound domain notification produced by an operation.
// Operations return events in order; the caller decides whether to dispatch
// them synchronously or hand them to a broker.
type Event interface {
	EventName() string
}

// ManualResetPerformed is emitted when an administrator triggers an
// out-of-cycle completion reset for a reviewer.
type ManualResetPerformed struct {
	ClientID    uuid.UUID
	ReviewerID  uuid.UUID
	PerformedBy uuid.UUID
	PerformedAt time.Time
}

func (ManualResetPerformed) EventName() string { return "isp.manual_reset_performed" }

// ClientArchived is emitted when a client transitions to ARCHIVED.
type ClientArchived struct {
	ClientID   uuid.UUID
	TenantID   uuid.UUID
	ArchivedBy uuid.UUID
	ArchivedAt time.Time
}

func (ClientArchived) EventName() string { return "isp.client_archived" }

// ReviewerUnassigned is emitted when an assignment is soft-closed.
type ReviewerUnassigned struct {
	ClientID     uuid.UUID
	ReviewerID   uuid.UUID
	UnassignedBy uuid.UUID
	UnassignedAt time.Time
}

func (ReviewerUnassigned) EventName() string { return "isp.reviewer_unassigned" }
