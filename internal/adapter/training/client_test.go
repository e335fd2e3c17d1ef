package training

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGetCurrentCompletion_Completed(t *testing.T) {
	t.Parallel()

	reviewerID := uuid.New()
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if !strings.Contains(r.URL.Path, "course-42/completions/"+reviewerID.String()) {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"completed_at":"2025-01-02T15:04:05Z"}`))
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	got, err := client.GetCurrentCompletion(context.Background(), "course-42", reviewerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a completion timestamp")
	}
	want := time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
}

func TestGetCurrentCompletion_NotCompletedIsNil(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	got, err := client.GetCurrentCompletion(context.Background(), "course-42", uuid.New())
	if err != nil {
		t.Fatalf("404 must not be an error, got: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil timestamp for an incomplete cycle, got %v", got)
	}
}

func TestGetCurrentCompletion_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	_, err := client.GetCurrentCompletion(context.Background(), "course-42", uuid.New())
	if !errors.Is(err, domain.ErrExternal) {
		t.Errorf("expected ErrExternal, got %v", err)
	}
}

func TestResetCompletion(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/reset") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	if err := client.ResetCompletion(context.Background(), "course-42", uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestResetCompletion_FailureIsExternal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL, testSecret, slog.Default())

	err := client.ResetCompletion(context.Background(), "course-42", uuid.New())
	if !errors.Is(err, domain.ErrExternal) {
		t.Errorf("expected ErrExternal, got %v", err)
	}
}
