// Package sweep implements the daily renewal batch: find every active
// client whose anniversary is today across all enabled tenants, archive and
// reset each open reviewer assignment, and hand per-tenant summaries to the
// notification boundary.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/internal/service/planreset"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type clientRepo interface {
	ListDueByAnniversary(ctx context.Context, month time.Month, day int, afterID uuid.UUID, limit int) ([]*domain.Client, error)
}

type assignmentRepo interface {
	ListOpenByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Assignment, error)
}

type resetService interface {
	ResetOne(ctx context.Context, client *domain.Client, assignment *domain.Assignment, window domain.PlanYear, notes string) (*planreset.Result, error)
}

type notifier interface {
	PublishTenantSummary(ctx context.Context, summary domain.TenantRenewalSummary) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service runs one renewal sweep to completion. The daily trigger itself is
// external (cron); the service assumes at most one concurrent sweep per
// deployment and stays correct even if that assumption breaks, because the
// reset operation is idempotent per cycle.
type Service struct {
	log         *slog.Logger
	clients     clientRepo
	assignments assignmentRepo
	resets      resetService
	notify      notifier
	cfg         config.SweepConfig
}

// NewService creates a new sweep service. notify may be nil, in which case
// tenant summaries are logged and dropped.
func NewService(
	logger *slog.Logger,
	clients clientRepo,
	assignments assignmentRepo,
	resets resetService,
	notify notifier,
	cfg config.SweepConfig,
) *Service {
	return &Service{
		log:         logger.With("service", "sweep"),
		clients:     clients,
		assignments: assignments,
		resets:      resets,
		notify:      notify,
		cfg:         cfg,
	}
}

// ---------------------------------------------------------------------------
// Run summary
// ---------------------------------------------------------------------------

// Failure is one per-client or per-reviewer error recorded during a sweep.
type Failure struct {
	ClientID   uuid.UUID  `json:"client_id"`
	ClientName string     `json:"client_name"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	Error      string     `json:"error"`
}

// RunSummary is the machine-parseable outcome of one sweep run.
type RunSummary struct {
	RunID        string                        `json:"run_id"`
	Date         string                        `json:"date"`
	StartedAt    time.Time                     `json:"started_at"`
	FinishedAt   time.Time                     `json:"finished_at"`
	Processed    int                           `json:"processed"`
	Failed       int                           `json:"failed"`
	NotifyFailed int                           `json:"notify_failed"`
	Failures     []Failure                     `json:"failures,omitempty"`
	Tenants      []domain.TenantRenewalSummary `json:"tenants,omitempty"`
}

// OK reports whether the run completed with no per-client failures.
func (s *RunSummary) OK() bool { return s.Failed == 0 }
