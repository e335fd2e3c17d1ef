// Package assignment implements reviewer assignment lifecycle: assign,
// soft-close unassign, and atomic reassignment. At most one open row per
// (client, reviewer) pair; the store's partial unique index backs the
// invariant under races.
package assignment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type assignmentRepo interface {
	Create(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error)
	GetOpen(ctx context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, error)
	Close(ctx context.Context, clientID, reviewerID uuid.UUID, at time.Time, by uuid.UUID) (*domain.Assignment, error)
	ListOpenByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error)
	History(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error)
}

type clientRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
}

type platformGateway interface {
	IsMember(ctx context.Context, tenantID, identityID uuid.UUID) (bool, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the assignment business logic.
type Service struct {
	log         *slog.Logger
	assignments assignmentRepo
	clients     clientRepo
	platform    platformGateway
	tx          txManager
}

// NewService creates a new assignment service.
func NewService(
	logger *slog.Logger,
	assignments assignmentRepo,
	clients clientRepo,
	platform platformGateway,
	tx txManager,
) *Service {
	return &Service{
		log:         logger.With("service", "assignment"),
		assignments: assignments,
		clients:     clients,
		platform:    platform,
		tx:          tx,
	}
}

// AssignInput identifies the reviewer taking responsibility for a client.
// ReviewerName is snapshotted onto the row so the audit trail stays
// readable after staff turnover.
type AssignInput struct {
	ClientID     uuid.UUID
	ReviewerID   uuid.UUID
	ReviewerName string
}
