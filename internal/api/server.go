// Package api exposes the HTTP interface for the tracker service: the
// dashboard endpoints and the webhook the scrape worker reports into.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/config"
	"github.com/socialscope/tracker/internal/metrics"
	"github.com/socialscope/tracker/internal/provider"
	"github.com/socialscope/tracker/internal/tracker"
)

// Analyzer starts a scrape run for a profile.
type Analyzer interface {
	Analyze(ctx context.Context, profile tracker.Profile) (string, error)
}

// ResultProcessor applies a worker result to the database.
type ResultProcessor interface {
	ProcessScrapingResult(ctx context.Context, payload tracker.ResultPayload) error
}

// Server wires HTTP handlers to the stores, the launcher and the reconciler.
type Server struct {
	router    chi.Router
	profiles  tracker.ProfileStore
	history   tracker.HistoryStore
	settings  tracker.SettingsStore
	registry  *provider.Registry
	analyzer  Analyzer
	processor ResultProcessor
	images    *http.Client
	logger    *zap.Logger
	cfg       config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	profiles tracker.ProfileStore,
	history tracker.HistoryStore,
	settings tracker.SettingsStore,
	registry *provider.Registry,
	analyzer Analyzer,
	processor ResultProcessor,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		profiles:  profiles,
		history:   history,
		settings:  settings,
		registry:  registry,
		analyzer:  analyzer,
		processor: processor,
		images:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
		cfg:       cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// The worker posts here; the path is part of the wire protocol.
	r.Post("/webhook/scraping-completed", s.scrapingCompleted)

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.listProfiles)
			r.Post("/", s.createProfile)
			r.Route("/{profile_id}", func(r chi.Router) {
				r.Get("/", s.getProfile)
				r.Delete("/", s.deleteProfile)
				r.Post("/analyze", s.analyzeProfile)
				r.Get("/history", s.profileHistory)
			})
		})
		r.Get("/history", s.listHistory)
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", s.listProviders)
			r.Put("/default", s.setDefaultProvider)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The profile store is the hard dependency; probe it with a cheap read.
	if _, err := s.profiles.ProfileExists(r.Context(), "readyz", "readyz", 0); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
