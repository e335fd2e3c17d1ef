// Package planreset implements the completion reset operation: archive the
// reviewer's current-cycle outcome into the completion log, then clear the
// live completion state so a new cycle can begin. Scheduled renewals and
// manual administrative resets both go through the same code path.
package planreset

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

type auditStore interface {
	Exists(ctx context.Context, clientID, reviewerID uuid.UUID, planYearStart time.Time) (bool, error)
	Append(ctx context.Context, entry *domain.CompletionLogEntry) (*domain.CompletionLogEntry, error)
}

type clientRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
}

type assignmentRepo interface {
	GetOpen(ctx context.Context, clientID, reviewerID uuid.UUID) (*domain.Assignment, error)
}

type trainingGateway interface {
	GetCurrentCompletion(ctx context.Context, artifactRef string, reviewerID uuid.UUID) (*time.Time, error)
	ResetCompletion(ctx context.Context, artifactRef string, reviewerID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the completion reset business logic.
type Service struct {
	log         *slog.Logger
	audit       auditStore
	clients     clientRepo
	assignments assignmentRepo
	training    trainingGateway
}

// NewService creates a new plan reset service.
func NewService(
	logger *slog.Logger,
	audit auditStore,
	clients clientRepo,
	assignments assignmentRepo,
	training trainingGateway,
) *Service {
	return &Service{
		log:         logger.With("service", "planreset"),
		audit:       audit,
		clients:     clients,
		assignments: assignments,
		training:    training,
	}
}

// Result is the outcome of a reset operation.
type Result struct {
	// AlreadyDone means an entry for this (client, reviewer, plan year
	// start) triple already existed and nothing was touched. Repeated
	// scheduler runs and manual-vs-scheduled races land here.
	AlreadyDone bool
	// Entry is the persisted completion log row, nil when AlreadyDone.
	// It is set even when the operation returns an error, as long as the
	// audit write committed before the failure.
	Entry *domain.CompletionLogEntry
}
