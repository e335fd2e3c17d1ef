package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantSettings is the per-tenant feature toggle for ISP tracking.
// Clients of a disabled tenant are skipped by the renewal sweep.
type TenantSettings struct {
	TenantID  uuid.UUID
	Enabled   bool
	EnabledAt *time.Time
	EnabledBy *uuid.UUID
	UpdatedAt time.Time
}
