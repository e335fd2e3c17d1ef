package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a tracked compliance subject. Every client belongs to exactly
// one tenant and carries an opaque reference to the training artifact (the
// ISP course) provisioned for it by the artifact builder.
type Client struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	ServiceType ServiceType
	Anchor      AnchorDate
	ArtifactRef string
	Status      ClientStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UpdatedBy   uuid.UUID
}

// IsActive reports whether the client participates in renewal sweeps.
func (c *Client) IsActive() bool { return c.Status == ClientStatusActive }

// ValidateNewClient checks construction input before persistence.
// The anchor must not lie in the future relative to now: a plan year cannot
// start before the client exists.
func ValidateNewClient(name string, serviceType ServiceType, anchor time.Time, now time.Time) error {
	var errs []FieldError

	if strings.TrimSpace(name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	if !serviceType.IsValid() {
		errs = append(errs, FieldError{Field: "service_type", Message: "unknown service type"})
	}
	if anchor.IsZero() {
		errs = append(errs, FieldError{Field: "anchor_date", Message: "is required"})
	} else if anchor.After(now) {
		errs = append(errs, FieldError{Field: "anchor_date", Message: "must not be in the future"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// NormalizeClientName lowercases and trims a client name for the per-tenant
// case-insensitive uniqueness check.
func NormalizeClientName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
