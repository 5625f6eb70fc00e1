package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/labelshare/pkg/config"
	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
)

const correlationHeader = "X-Correlation-ID"

type Middleware struct {
	jwtSecret []byte
	logger    logging.Logger
	limiter   *ipLimiter
}

func NewMiddleware(cfg *config.Config, logger logging.Logger) *Middleware {
	m := &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger,
	}
	if cfg.RateLimitPerSecond > 0 {
		m.limiter = newIPLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
	return m
}

// AuthMiddleware verifies the bearer JWT and stores its subject as the owner
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}

		owner, err := ownerFromToken(tokenString, m.jwtSecret)
		if err != nil {
			logging.FromContext(r.Context()).Debug("Rejected token: %s", err)
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// RateLimit throttles requests per client IP. A nil limiter lets everything through.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error: "too many requests",
				Code:  "rate_limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccessLog tags the request with a correlation ID and a scoped logger, and
// logs it once it is served.
func (m *Middleware) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)

		l := m.logger.CopyWithPrefix("[" + id + "]")
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.NewContext(r.Context(), l)))

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		logging.Request(l, rec.status, r.Method, clientIP(r), r.URL.Path, start)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
