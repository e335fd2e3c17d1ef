// Command anonymize handles an identity-deletion request for a reviewer:
// every reference in the completion log and assignment history is rewritten
// to a tombstone UUID with a neutral display name. The rows themselves
// survive; the audit trail is legally retained.
//
// Usage: anonymize <reviewer-uuid>
//
// The result is printed to stdout as JSON.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/careplan-backend/internal/adapter/postgres"
	assignmentrepo "github.com/careloop/careplan-backend/internal/adapter/postgres/assignment"
	"github.com/careloop/careplan-backend/internal/adapter/postgres/completionlog"
	"github.com/careloop/careplan-backend/internal/app"
	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/service/audit"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <reviewer-uuid>", os.Args[0])
	}
	reviewerID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("invalid reviewer id %q: %v", os.Args[1], err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	auditSvc := audit.NewService(
		logger,
		completionlog.New(pool),
		assignmentrepo.New(pool),
		postgres.NewTxManager(pool),
	)

	result, err := auditSvc.AnonymizeReviewer(ctx, reviewerID)
	if err != nil {
		logger.Error("anonymize failed",
			slog.String("reviewer_id", reviewerID.String()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
