package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links a reviewer (DSP) to a client for a responsibility window.
// Rows are never deleted: removal soft-closes the row by setting
// UnassignedAt. At most one row per (client, reviewer) pair may be open at a
// time; re-assignment creates a new row after the old one is closed.
type Assignment struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	ReviewerID   uuid.UUID
	ReviewerName string // snapshot at assignment time, survives staff turnover
	AssignedAt   time.Time
	AssignedBy   uuid.UUID
	UnassignedAt *time.Time
	UnassignedBy *uuid.UUID
}

// IsOpen reports whether the reviewer is currently responsible for the client.
func (a *Assignment) IsOpen() bool { return a.UnassignedAt == nil }
