// Package main implements the entry point for the notification worker.
// It consumes task and user events from the durable queue, writes the
// idempotent notification log, and serves a small operator API with the
// processed log and statistics.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/tasktrack-api/internal/api"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/consumer"
	"github.com/phrazzld/tasktrack-api/internal/platform/database"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/platform/rabbit"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("notification-worker failed: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := database.Open(cfg.Database, appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateUp(db, appLogger); err != nil {
		return err
	}

	conn, err := rabbit.Connect(ctx, cfg.Broker, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	notificationStore := postgres.NewPostgresNotificationStore(db, appLogger)
	subscriber := rabbit.NewSubscriber(conn)
	processor := consumer.NewProcessor(
		subscriber,
		notificationStore,
		consumer.RetryPolicyFromConfig(cfg.Consumer),
		cfg.Consumer.ProcessingTimeout(),
		appLogger,
	)

	notificationHandler := api.NewNotificationHandler(notificationStore)
	router := api.NewWorkerRouter(notificationHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// The consumer loop and the operator API run side by side; either one
	// failing brings the worker down so the orchestrator restarts it whole.
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		appLogger.Info("starting consumer", "queue", cfg.Broker.Queue)
		if err := processor.Run(groupCtx); err != nil && err != context.Canceled {
			return fmt.Errorf("consumer failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		appLogger.Info("starting operator API", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	appLogger.Info("worker shutdown completed")
	return nil
}
