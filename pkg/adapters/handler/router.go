package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
	"github.com/wadjakorntonsri/labelshare/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, logger logging.Logger, service ports.ShareService, blobs ports.BlobStore) http.Handler {
	// Initialize Handlers
	h := NewShareHandler(service)
	fh := NewFileHandler(blobs, cfg.MaxUploadBytes)

	// Initialize Middleware
	mw := NewMiddleware(cfg, logger)

	// Setup Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "ok",
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public Routes, rate limited per client
	mux.Handle("GET /shared/{token}", mw.RateLimit(http.HandlerFunc(h.Info)))
	mux.Handle("POST /shared/{token}/download", mw.RateLimit(http.HandlerFunc(h.Download)))

	// Protected Routes
	protected := func(fn http.HandlerFunc) http.Handler {
		return mw.AuthMiddleware(fn)
	}
	mux.Handle("POST /share/create", protected(h.Create))
	mux.Handle("GET /share/list", protected(h.List))
	mux.Handle("PATCH /share/{id}/deactivate", protected(h.Deactivate))
	mux.Handle("DELETE /share/{id}", protected(h.Delete))
	mux.Handle("PUT /files/{path...}", protected(fh.Upload))

	return mw.AccessLog(mux)
}
