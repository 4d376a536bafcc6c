// Package server exposes the roller over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DaanHessen/rollwright/internal/metrics"
	"github.com/DaanHessen/rollwright/internal/roller"
)

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 10 * time.Second

// maxBodyBytes limits request bodies; presets are the only bodies accepted.
const maxBodyBytes = 64 << 10

type Server struct {
	httpServer *http.Server
	svc        roller.Service
}

// NewServer creates a Server listening on port.
func NewServer(port int, version string, svc roller.Service) *Server {
	s := &Server{svc: svc}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.routes(version),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) routes(version string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestSizeLimit(maxBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handleHealthz())
	r.Get("/version", handleVersion(version))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/roll", handleRoll(s.svc))
		r.Get("/dist", handleDist(s.svc))
		r.Get("/functions", handleFunctions(s.svc))
		r.Get("/history", handleHistory(s.svc))

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", handleListPresets(s.svc))
			r.Put("/{name}", handleSavePreset(s.svc))
			r.Delete("/{name}", handleDeletePreset(s.svc))
		})
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
