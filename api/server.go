// Package api provides the HTTP server for sovwatch.
//
// It exposes the rating catalog, per-country series, the regional matrices
// and the loader status as JSON under /api/v1, the HTML dashboard at / and a
// WebSocket stream of cache population events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/seenimoa/sovwatch/internal/config"
	"github.com/seenimoa/sovwatch/internal/loader"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/internal/report"
	"github.com/seenimoa/sovwatch/web"
)

// Version is reported by the health endpoint; set by the CLI at startup.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	catalog *rating.Catalog
	loader  *loader.Loader
	agg     *region.Aggregator
	reports *report.Builder
	wsHub   *WSHub
	log     zerolog.Logger
	started time.Time
}

// NewServer creates a configured API server with all routes and middleware.
// Every cache population of the loader is broadcast to WebSocket clients.
func NewServer(cfg *config.Config, catalog *rating.Catalog, l *loader.Loader, agg *region.Aggregator, reports *report.Builder, log zerolog.Logger) *Server {
	srv := &Server{
		cfg:     cfg,
		catalog: catalog,
		loader:  l,
		agg:     agg,
		reports: reports,
		wsHub:   NewWSHub(),
		log:     log.With().Str("component", "api").Logger(),
		started: time.Now(),
	}

	l.OnLoad(func(ev loader.Event) {
		srv.wsHub.Broadcast(WSMessage{Type: "series.loaded", Data: ev})
	})

	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled (the CLI cancels on SIGINT/SIGTERM).
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&requestLogger{log: s.log}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Catalog and series
		r.Get("/countries", s.handleCountries)
		r.Get("/countries/{code}", s.handleCountry)
		r.Get("/countries/{code}/{agency}", s.handleSeries)

		// Scales
		r.Get("/scales", s.handleScales)

		// Regional matrices
		r.Get("/matrix", s.handleMatrix)
		r.Get("/matrix/letters", s.handleLetterMatrix)

		// Loader status and configuration
		r.Get("/status", s.handleStatus)
		r.Get("/config", s.handleGetConfig)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	// HTML dashboard
	r.Get("/", s.handleRegionPage)
	r.Get("/countries/{code}", s.handleCountryPage)
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler()))

	return r
}

func staticHandler() http.Handler {
	files := http.FileServerFS(web.StaticFS())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

// ============================================================
// Response envelope
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// Request logging
// ============================================================

// requestLogger adapts zerolog to chi's RequestLogger middleware.
type requestLogger struct {
	log zerolog.Logger
}

func (l *requestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{
		log: l.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger(),
	}
}

type requestLogEntry struct {
	log zerolog.Logger
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.log.Debug().
		Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("request")
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.log.Error().
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("request panic")
}
