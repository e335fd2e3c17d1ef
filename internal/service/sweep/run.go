package sweep

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
	"github.com/careloop/careplan-backend/pkg/ctxutil"
)

// Run executes one sweep to completion. Only a failure of the due-client
// selection itself is fatal; every per-client and per-reviewer error is
// recorded in the summary and the sweep keeps going.
func (s *Service) Run(ctx context.Context) (*RunSummary, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	ctx = ctxutil.WithRunID(ctx, runID)

	now := time.Now().UTC()
	summary := &RunSummary{
		RunID:     runID,
		Date:      now.Format("2006-01-02"),
		StartedAt: now,
	}

	s.log.InfoContext(ctx, "sweep started",
		slog.String("run_id", runID),
		slog.String("date", summary.Date),
	)

	byTenant := make(map[uuid.UUID][]domain.RenewedClient)

	for _, anchor := range dueAnchors(now) {
		if err := s.sweepAnchor(ctx, anchor, now, summary, byTenant); err != nil {
			return nil, fmt.Errorf("select due clients for %s: %w", anchor, err)
		}
	}

	summary.Tenants = tenantSummaries(byTenant, runID, now)
	s.publishSummaries(ctx, summary)

	summary.FinishedAt = time.Now().UTC()
	s.log.InfoContext(ctx, "sweep finished",
		slog.String("run_id", runID),
		slog.Int("processed", summary.Processed),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

// sweepAnchor pages through clients whose anniversary matches the anchor and
// processes each one independently.
func (s *Service) sweepAnchor(ctx context.Context, anchor domain.AnchorDate, now time.Time, summary *RunSummary, byTenant map[uuid.UUID][]domain.RenewedClient) error {
	afterID := uuid.Nil
	for {
		page, err := s.clients.ListDueByAnniversary(ctx, anchor.Month, anchor.Day, afterID, s.cfg.PageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for _, client := range page {
			s.sweepClient(ctx, client, now, summary, byTenant)
		}

		afterID = page[len(page)-1].ID
		if len(page) < s.cfg.PageSize {
			return nil
		}
	}
}

// sweepClient archives every open reviewer assignment for one due client.
// Errors are recorded, never propagated.
func (s *Service) sweepClient(ctx context.Context, client *domain.Client, now time.Time, summary *RunSummary, byTenant map[uuid.UUID][]domain.RenewedClient) {
	window := client.Anchor.WindowEnding(now.Year())

	assignments, err := s.assignments.ListOpenByClient(ctx, client.ID)
	if err != nil {
		s.recordFailure(ctx, summary, client, nil, fmt.Errorf("list open assignments: %w", err))
		summary.Failed++
		return
	}

	reviewers := 0
	failed := false
	for _, assignment := range assignments {
		result, err := s.resets.ResetOne(ctx, client, assignment, window, domain.NotesScheduledRenewal)
		if err != nil {
			s.recordFailure(ctx, summary, client, &assignment.ReviewerID, err)
			failed = true
			continue
		}
		if result.AlreadyDone {
			s.log.DebugContext(ctx, "reviewer already archived for this cycle",
				slog.String("client_id", client.ID.String()),
				slog.String("reviewer_id", assignment.ReviewerID.String()),
			)
		}
		reviewers++
	}

	if failed {
		summary.Failed++
		return
	}

	summary.Processed++
	byTenant[client.TenantID] = append(byTenant[client.TenantID], domain.RenewedClient{
		ClientName:    client.Name,
		ReviewerCount: reviewers,
	})
}

func (s *Service) recordFailure(ctx context.Context, summary *RunSummary, client *domain.Client, reviewerID *uuid.UUID, err error) {
	failure := Failure{
		ClientID:   client.ID,
		ClientName: client.Name,
		ReviewerID: reviewerID,
		Error:      err.Error(),
	}
	summary.Failures = append(summary.Failures, failure)

	attrs := []any{
		slog.String("client_id", client.ID.String()),
		slog.Any("error", err),
	}
	if reviewerID != nil {
		attrs = append(attrs, slog.String("reviewer_id", reviewerID.String()))
	}
	s.log.ErrorContext(ctx, "sweep unit failed", attrs...)
}

// publishSummaries hands one message per tenant to the notification
// boundary. Delivery failures are counted but never fail the run; the audit
// entries behind them are already durable.
func (s *Service) publishSummaries(ctx context.Context, summary *RunSummary) {
	if s.notify == nil {
		if len(summary.Tenants) > 0 {
			s.log.DebugContext(ctx, "notifications disabled, dropping tenant summaries",
				slog.Int("tenants", len(summary.Tenants)),
			)
		}
		return
	}

	for _, ts := range summary.Tenants {
		if err := s.notify.PublishTenantSummary(ctx, ts); err != nil {
			summary.NotifyFailed++
			s.log.ErrorContext(ctx, "tenant summary publish failed",
				slog.String("tenant_id", ts.TenantID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// dueAnchors returns the anchor dates a sweep on this day must cover. On
// Feb 28 of a non-leap year that includes Feb 29 anchors, so leap-day
// clients still renew annually.
func dueAnchors(now time.Time) []domain.AnchorDate {
	anchors := []domain.AnchorDate{{Month: now.Month(), Day: now.Day()}}
	if now.Month() == time.February && now.Day() == 28 {
		leap := domain.AnchorDate{Month: time.February, Day: 29}
		if !leap.Matches(now) {
			return anchors
		}
		anchors = append(anchors, leap)
	}
	return anchors
}

func tenantSummaries(byTenant map[uuid.UUID][]domain.RenewedClient, runID string, now time.Time) []domain.TenantRenewalSummary {
	if len(byTenant) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(byTenant))
	for id := range byTenant {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	out := make([]domain.TenantRenewalSummary, 0, len(ids))
	for _, id := range ids {
		clients := byTenant[id]
		sort.Slice(clients, func(i, j int) bool {
			return clients[i].ClientName < clients[j].ClientName
		})
		out = append(out, domain.TenantRenewalSummary{
			TenantID:  id,
			RunID:     runID,
			SweepDate: now,
			Clients:   clients,
		})
	}
	return out
}
