package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yuzpew2/casadbendang/internal/app/bookings"
	"github.com/yuzpew2/casadbendang/internal/infra/config"
	mongostore "github.com/yuzpew2/casadbendang/internal/infra/db/mongo"
	"github.com/yuzpew2/casadbendang/internal/infra/obs"
)

// One-shot expiry sweep for scheduled runs (cron, Kubernetes CronJob). The
// HTTP route serves the same purpose for hosted schedulers; both hit the
// same guarded update.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	if cfg.Store != "mongo" {
		logger.Error("sweeper needs the shared store", "store", cfg.Store)
		os.Exit(1)
	}

	client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}()

	reclaimer := bookings.NewReclaimer(logger,
		mongostore.NewBookingRepository(client.DB),
		mongostore.NewPropertyRepository(client.DB),
	)

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	results, err := reclaimer.SweepAll(runCtx)
	if err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
	var cancelled int64
	for _, r := range results {
		cancelled += r.Affected
	}
	logger.Info("sweep finished", "properties", len(results), "cancelled", cancelled)
}
