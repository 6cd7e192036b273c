// internal/server/server.go

// Package server exposes the matching pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/engine"
	"sourcing-match/internal/matchstore"
	"sourcing-match/internal/notify"
)

type Server struct {
	engine   *engine.Service
	store    *matchstore.Store
	notifier *notify.Notifier // nil disables notifications
	logger   logger.Logger
	http     *http.Server
}

func New(addr string, eng *engine.Service, store *matchstore.Store, notifier *notify.Notifier, log logger.Logger) *Server {
	s := &Server{
		engine:   eng,
		store:    store,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "server"}),
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Routes builds the chi router; exported so tests can mount it on httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/match", s.handleMatch)
		r.Get("/requests/{id}/matches", s.handleGetMatches)
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/new-request", s.handleNewRequest)
			r.Post("/new-listing", s.handleNewListing)
		})
	})

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.http.Addr,
	})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
