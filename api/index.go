package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/labelshare/pkg/adapters/handler"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/labelshare/pkg/adapters/storage"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/core/password"
	"github.com/wadjakorntonsri/labelshare/pkg/core/services"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger := logging.NewConsoleLogger(logging.LogLevel(cfg.LogLevel))

	// Note: On Vercel, db.sqlite and local storage are ephemeral; use a Turso
	// DATABASE_URL and an s3 or minio STORAGE_DRIVER there.
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	blobs, err := storage.Open(context.Background(), cfg)
	if err != nil {
		panic(err)
	}

	service := services.NewShareService(repo, blobs, services.NewOwnerScope(blobs),
		services.ShareServiceConfig{
			BaseURL:            cfg.BaseURL,
			PurgeOrphanedFiles: cfg.PurgeOrphanedFiles,
		},
		services.WithPasswordHasher(password.NewBcryptHasher(cfg.BcryptCost)),
		services.WithLogger(logger),
	)
	mux = handler.NewRouter(cfg, logger, service, blobs)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
