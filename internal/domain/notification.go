package domain

import (
	"time"

	"github.com/google/uuid"
)

// RenewedClient is one client processed by a sweep, with the number of
// reviewers whose cycles were archived.
type RenewedClient struct {
	ClientName    string `json:"client_name"`
	ReviewerCount int    `json:"reviewer_count"`
}

// TenantRenewalSummary is the per-tenant digest a sweep hands to the
// notification boundary. Delivery beyond the queue is external.
type TenantRenewalSummary struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	RunID     string          `json:"run_id"`
	SweepDate time.Time       `json:"sweep_date"`
	Clients   []RenewedClient `json:"clients"`
}
