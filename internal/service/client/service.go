// Package client implements the client record lifecycle: creation with
// anchor validation and artifact provisioning, archive/unarchive, rename
// and anchor edits, and tenant tracking enablement. Clients are never
// physically deleted.
package client

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

type clientRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	Create(ctx context.Context, c *domain.Client) (*domain.Client, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.ClientStatus, updatedBy uuid.UUID) (*domain.Client, error)
	Rename(ctx context.Context, id uuid.UUID, name string, updatedBy uuid.UUID) (*domain.Client, error)
	SetAnchor(ctx context.Context, id uuid.UUID, anchor domain.AnchorDate, updatedBy uuid.UUID) (*domain.Client, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Client, error)
}

type tenantRepo interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*domain.TenantSettings, error)
	SetEnabled(ctx context.Context, tenantID uuid.UUID, enabled bool, by uuid.UUID) (*domain.TenantSettings, error)
}

type platformGateway interface {
	IsMember(ctx context.Context, tenantID, identityID uuid.UUID) (bool, error)
	IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

// artifactProvisioner builds the companion training artifact for a new
// client. Provisioning itself happens in the external artifact builder; the
// engine only stores the opaque reference it hands back.
type artifactProvisioner interface {
	Provision(ctx context.Context, tenantID, clientID uuid.UUID, name string) (string, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the client lifecycle business logic.
type Service struct {
	log         *slog.Logger
	clients     clientRepo
	tenants     tenantRepo
	platform    platformGateway
	provisioner artifactProvisioner
}

// NewService creates a new client service. provisioner may be nil, in which
// case CreateInput.ArtifactRef is required.
func NewService(
	logger *slog.Logger,
	clients clientRepo,
	tenants tenantRepo,
	platform platformGateway,
	provisioner artifactProvisioner,
) *Service {
	return &Service{
		log:         logger.With("service", "client"),
		clients:     clients,
		tenants:     tenants,
		platform:    platform,
		provisioner: provisioner,
	}
}

// CreateInput is the construction request for a new client.
type CreateInput struct {
	TenantID    uuid.UUID
	Name        string
	ServiceType domain.ServiceType
	AnchorDate  time.Time
	// ArtifactRef is the pre-provisioned training artifact reference.
	// Ignored when the service has a provisioner.
	ArtifactRef string
}
