// Package main implements the entry point for the auth server, which
// registers users and issues the signed tokens the other services verify
// locally.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/phrazzld/tasktrack-api/internal/api"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/database"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/platform/rabbit"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("auth-server failed: %v", err)
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

	verifier := auth.NewBcryptVerifier()
	userStore := postgres.NewPostgresUserStore(db, verifier, appLogger)

	// Registration events are best effort; the server still runs if the
	// broker is down at startup.
	var publisher *rabbit.Publisher
	if conn, err := rabbit.Connect(ctx, cfg.Broker, appLogger); err != nil {
		appLogger.Warn("starting without event publisher", "error", err)
	} else {
		defer func() { _ = conn.Close() }()
		publisher, err = rabbit.NewPublisher(conn)
		if err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}
		defer func() { _ = publisher.Close() }()
	}

	authHandler := api.NewAuthHandler(userStore, jwtService, verifier, publisherOrNil(publisher))
	router := api.NewAuthRouter(authHandler)

	return serveHTTP(ctx, cfg.Server.Port, router, appLogger)
}
