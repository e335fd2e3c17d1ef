// Package training is the HTTP adapter for the external completion-tracking
// system that owns the live "has this reviewer finished the current cycle"
// state. The engine reads a snapshot and issues reset commands; it never
// owns that state.
package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/auth"
	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Client calls the training system's service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	minter     *auth.ServiceTokenMinter
	log        *slog.Logger
}

// NewClient creates a training client from configuration.
func NewClient(cfg config.TrainingConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		minter:     auth.NewServiceTokenMinter(cfg.ServiceSecret, cfg.TokenIssuer, cfg.TokenTTL),
		log:        logger.With("adapter", "training"),
	}
}

// NewClientWithURL creates a training client with a custom base URL (for testing).
func NewClientWithURL(baseURL, secret string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		minter:     auth.NewServiceTokenMinter(secret, "careplan", 5*time.Minute),
		log:        logger.With("adapter", "training"),
	}
}

type completionResponse struct {
	CompletedAt *time.Time `json:"completed_at"`
}

// GetCurrentCompletion returns the reviewer's live completion timestamp for
// the artifact, or nil if the reviewer has not completed the current cycle.
func (c *Client) GetCurrentCompletion(ctx context.Context, artifactRef string, reviewerID uuid.UUID) (*time.Time, error) {
	reqURL := fmt.Sprintf("%s/api/artifacts/%s/completions/%s",
		c.baseURL, url.PathEscape(artifactRef), reviewerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewExternalError("training", "get completion", err)
	}
	defer resp.Body.Close()

	// 404 = no completion recorded: a gap, not an error.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalError("training", "get completion",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewExternalError("training", "get completion", err)
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewExternalError("training", "get completion", err)
	}

	return parsed.CompletedAt, nil
}

// ResetCompletion clears the reviewer's live completion state for the
// artifact so a new cycle can begin. Failures are retryable: the caller's
// audit write is already durable and is never rolled back on account of a
// failed reset.
func (c *Client) ResetCompletion(ctx context.Context, artifactRef string, reviewerID uuid.UUID) error {
	reqURL := fmt.Sprintf("%s/api/artifacts/%s/completions/%s/reset",
		c.baseURL, url.PathEscape(artifactRef), reviewerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewExternalError("training", "reset completion", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return domain.NewExternalError("training", "reset completion",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	c.log.DebugContext(ctx, "completion reset",
		slog.String("artifact", artifactRef),
		slog.String("reviewer_id", reviewerID.String()),
	)

	return nil
}

func (c *Client) authorize(req *http.Request) error {
	token, err := c.minter.Mint("training")
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
