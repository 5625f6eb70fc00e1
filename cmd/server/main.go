package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/labelshare/pkg/adapters/handler"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/storage"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/core/password"
	"github.com/wadjakorntonsri/labelshare/pkg/core/services"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewConsoleLogger(logging.LogLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux, cleanup, err := buildHandler(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize: %s", err)
		os.Exit(1)
	}
	defer cleanup()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Server starting on port %s (storage: %s)", cfg.Port, cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server stopped: %s", err)
		os.Exit(1)
	}
}

// buildHandler wires repository, byte store and service into the router.
func buildHandler(ctx context.Context, cfg *config.Config, logger logging.Logger) (http.Handler, func(), error) {
	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	blobs, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = repo.Close()
		return nil, nil, err
	}

	// Initialize Service
	service := services.NewShareService(repo, blobs, services.NewOwnerScope(blobs),
		services.ShareServiceConfig{
			BaseURL:            cfg.BaseURL,
			PurgeOrphanedFiles: cfg.PurgeOrphanedFiles,
		},
		services.WithPasswordHasher(password.NewBcryptHasher(cfg.BcryptCost)),
		services.WithLogger(logger),
	)

	return handler.NewRouter(cfg, logger, service, blobs), func() { _ = repo.Close() }, nil
}
