// Package api serves the dashboard views over HTTP and pushes live card
// updates over websockets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/observability"
	"bridge-flow-lab/internal/registry"
	"bridge-flow-lab/internal/storage"
)

// Options configures a Server.
type Options struct {
	Cache        storage.Cache // optional response cache
	CacheTTL     time.Duration
	RateLimit    float64 // requests per second, 0 disables limiting
	Burst        int
	LiveInterval time.Duration
	Logger       zerolog.Logger
}

// Server exposes the dashboard service over HTTP.
type Server struct {
	service  *dashboard.Service
	cache    storage.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
	live     *LiveHub
	logger   zerolog.Logger
	started  time.Time
}

// NewServer creates a new API server.
func NewServer(service *dashboard.Service, opts Options) *Server {
	logger := opts.Logger.With().Str("component", "api").Logger()

	s := &Server{
		service:  service,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
		started:  time.Now(),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	s.live = NewLiveHub(service, opts.LiveInterval, logger)
	return s
}

// Live returns the websocket hub. Its Run loop must be started by the caller.
func (s *Server) Live() *LiveHub {
	return s.live
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	// Dashboard API
	mux.HandleFunc("GET /api/volume", s.cached(s.handleVolume))
	mux.HandleFunc("GET /api/volume.csv", s.handleVolumeCSV)
	mux.HandleFunc("GET /api/volume/flow", s.cached(s.handleFlow))
	mux.HandleFunc("GET /api/volume/hourly", s.cached(s.handleHourly))
	mux.HandleFunc("GET /api/cards", s.cached(s.handleCards))
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/transactions/{digest}", s.handleTransaction)
	mux.HandleFunc("GET /api/snapshots", func(w http.ResponseWriter, r *http.Request) {
		s.serveJSON(w, r, s.handleSnapshots)
	})
	mux.HandleFunc("GET /api/tokens", s.handleTokens)
	mux.HandleFunc("GET /api/intervals", s.handleIntervals)
	mux.HandleFunc("GET /api/live", s.live.ServeHTTP)

	return withRequestID(withAccessLog(s.logger, withRateLimit(s.limiter, mux)))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string   `json:"status"`
	Uptime      string   `json:"uptime"`
	Networks    []string `json:"networks"`
	LiveClients int      `json:"live_clients"`
	CacheActive bool     `json:"cache_active"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.started).Round(time.Second).String()

	networks := []string{}
	for _, n := range s.service.Networks() {
		networks = append(networks, string(n))
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      "running",
		Uptime:      uptime,
		Networks:    networks,
		LiveClients: s.live.Clients(),
		CacheActive: s.cache != nil,
	})
}

// jsonHandler computes a response body or fails with an error.
type jsonHandler func(r *http.Request) (any, error)

// cached serves a JSON handler through the response cache. Cache failures
// are logged and the request is served uncached.
func (s *Server) cached(h jsonHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cache == nil {
			s.serveJSON(w, r, h)
			return
		}

		key := "bridge:" + r.URL.Path + "?" + r.URL.Query().Encode()
		if body, ok, err := s.cache.Get(r.Context(), key); err != nil {
			observability.RecordCache(observability.CacheError)
			s.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if ok {
			observability.RecordCache(observability.CacheHit)
			writeRaw(w, http.StatusOK, body)
			return
		}
		observability.RecordCache(observability.CacheMiss)

		payload, err := h(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		body, err := json.Marshal(payload)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.cache.Set(r.Context(), key, body, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
		writeRaw(w, http.StatusOK, body)
	}
}

func (s *Server) serveJSON(w http.ResponseWriter, r *http.Request, h jsonHandler) {
	payload, err := h(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// fail maps an error to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, r, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, registry.ErrUnknownNetwork),
		errors.Is(err, aggregation.ErrUnknownPeriod),
		errors.Is(err, aggregation.ErrUnknownGranularity),
		errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, dashboard.ErrNoSource),
		errors.Is(err, dashboard.ErrNoSnapshots):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: RequestID(r.Context())})
}
