// Command sweep runs one daily renewal sweep: every active client of an
// enabled tenant whose anniversary is today gets its open reviewer
// assignments archived and reset. Intended to be invoked by an external
// cron job once per day; re-running is safe, already-archived cycles are
// skipped.
//
// The run summary is printed to stdout as JSON for ops tooling; logs go to
// stderr.
//
// Exit codes: 0 = success, 1 = fatal error or any per-client failure.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"github.com/careloop/careplan-backend/internal/adapter/notify"
	"github.com/careloop/careplan-backend/internal/adapter/postgres"
	assignmentrepo "github.com/careloop/careplan-backend/internal/adapter/postgres/assignment"
	clientrepo "github.com/careloop/careplan-backend/internal/adapter/postgres/client"
	"github.com/careloop/careplan-backend/internal/adapter/postgres/completionlog"
	"github.com/careloop/careplan-backend/internal/adapter/training"
	"github.com/careloop/careplan-backend/internal/app"
	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/service/planreset"
	"github.com/careloop/careplan-backend/internal/service/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("sweep starting", slog.String("version", app.BuildVersion()))

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	clientRepo := clientrepo.New(pool)
	assignmentRepo := assignmentrepo.New(pool)
	logRepo := completionlog.New(pool)
	trainingClient := training.NewClient(cfg.Training, logger)

	resetSvc := planreset.NewService(logger, logRepo, clientRepo, assignmentRepo, trainingClient)

	sweepSvc := sweep.NewService(logger, clientRepo, assignmentRepo, resetSvc, nil, cfg.Sweep)
	if cfg.Notify.Enabled {
		publisher, err := notify.NewPublisher(cfg.Notify, logger)
		if err != nil {
			logger.Error("connect to broker", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		sweepSvc = sweep.NewService(logger, clientRepo, assignmentRepo, resetSvc, publisher, cfg.Sweep)
	}

	summary, err := sweepSvc.Run(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Error("encode summary", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if !summary.OK() {
		os.Exit(1)
	}
}
