// Package platform is the HTTP adapter for the host identity/tenant
// platform. The engine only asks two questions of it: is this identity a
// member of this tenant, and is ISP tracking enabled for this tenant.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/auth"
	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Client calls the host platform's service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	minter     *auth.ServiceTokenMinter
	log        *slog.Logger
}

// NewClient creates a platform client from configuration.
func NewClient(cfg config.PlatformConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		minter:     auth.NewServiceTokenMinter(cfg.ServiceSecret, cfg.TokenIssuer, cfg.TokenTTL),
		log:        logger.With("adapter", "platform"),
	}
}

// NewClientWithURL creates a platform client with a custom base URL (for testing).
func NewClientWithURL(baseURL, secret string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		minter:     auth.NewServiceTokenMinter(secret, "careplan", 5*time.Minute),
		log:        logger.With("adapter", "platform"),
	}
}

type membershipResponse struct {
	Member bool `json:"member"`
}

type featureResponse struct {
	Enabled bool `json:"enabled"`
}

// IsMember reports whether the identity belongs to the tenant.
func (c *Client) IsMember(ctx context.Context, tenantID, identityID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/api/tenants/%s/members/%s", c.baseURL, tenantID, identityID)

	var resp membershipResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return false, domain.NewExternalError("platform", "membership check", err)
	}

	return resp.Member, nil
}

// IsFeatureEnabled reports whether ISP tracking is switched on for the tenant.
func (c *Client) IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/api/tenants/%s/features/isp-tracking", c.baseURL, tenantID)

	var resp featureResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return false, domain.NewExternalError("platform", "feature check", err)
	}

	return resp.Enabled, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	token, err := c.minter.Mint("platform")
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}
