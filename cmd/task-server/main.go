// Package main implements the entry point for the task server. It manages
// tasks over HTTP, verifies caller identity locally from the shared
// signing key, and publishes task lifecycle events to the broker with
// delivery confirmation.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/phrazzld/tasktrack-api/internal/api"
	apimiddleware "github.com/phrazzld/tasktrack-api/internal/api/middleware"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/database"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/platform/rabbit"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("task-server failed: %v", err)
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

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	// Task events carry the notification contract, so the broker is a hard
	// dependency here, unlike in the auth server.
	conn, err := rabbit.Connect(ctx, cfg.Broker, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	publisher, err := rabbit.NewPublisher(conn)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer func() { _ = publisher.Close() }()

	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	taskHandler := api.NewTaskHandler(taskStore, publisher)
	authMiddleware := apimiddleware.NewAuthMiddleware(jwtService)
	router := api.NewTaskRouter(taskHandler, authMiddleware)

	return serveHTTP(ctx, cfg.Server.Port, router, appLogger)
}
