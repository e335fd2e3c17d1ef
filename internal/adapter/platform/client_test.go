package platform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIsMember(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	identityID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/api/tenants/" + tenantID.String() + "/members/" + identityID.String()
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"member":true}`))
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	ok, err := client.IsMember(context.Background(), tenantID, identityID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected membership")
	}
}

func TestIsFeatureEnabled_Disabled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"enabled":false}`))
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	enabled, err := client.IsFeatureEnabled(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enabled {
		t.Error("expected feature to be disabled")
	}
}

func TestIsMember_ServerErrorIsExternal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	_, err := client.IsMember(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, domain.ErrExternal) {
		t.Errorf("expected ErrExternal, got %v", err)
	}
}
