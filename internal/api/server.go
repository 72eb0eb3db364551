package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"reposcope/internal/platform/config"
	"reposcope/internal/platform/logger"
	"reposcope/internal/snapshot/cache"
	"reposcope/internal/snapshot/domain"
	"reposcope/internal/snapshot/service"
)

// Fetcher runs one fetch to completion. Satisfied by *service.Service
type Fetcher interface {
	Fetch(ctx context.Context, req service.Request, onProgress domain.ProgressFunc) (*domain.UserSnapshot, error)
}

// SnapshotStore is the read/maintenance surface over the snapshot cache
type SnapshotStore interface {
	Load(username string) (*domain.UserSnapshot, bool)
	List() ([]cache.Entry, error)
	InvalidateOlderThan(age time.Duration) (int, error)
}

// Server wires the HTTP surface over chi + the stdlib http.Server
type Server struct {
	addr    string
	fetcher Fetcher
	store   SnapshotStore
	jobs    *jobTable
	mux     *chi.Mux
	srv     *http.Server
	log     *logger.Logger
}

func NewServer(cfg config.Conf, fetcher Fetcher, store SnapshotStore) *Server {
	addr := cfg.MayString("ADDR", "127.0.0.1:8090")

	s := &Server{
		addr:    addr,
		fetcher: fetcher,
		store:   store,
		jobs:    newJobTable(),
		log:     logger.Named("api"),
	}

	m := chi.NewRouter()
	m.Use(middleware.RequestID)
	m.Use(middleware.RealIP)
	m.Use(middleware.Recoverer)
	m.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	m.Use(s.requestLog)

	m.Get("/healthz", s.handleHealth)
	m.Route("/v1", func(r chi.Router) {
		r.Post("/users/{username}/fetch", s.handleStartFetch)
		r.Get("/users/{username}/snapshot", s.handleGetSnapshot)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleCancelJob)
		r.Get("/cache", s.handleListCache)
		r.Delete("/cache", s.handlePurgeCache)
	})

	s.mux = m
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run starts the server and blocks until Shutdown or a listener error
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.addr).Msg("http listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// requestLog emits one line per request with status and latency
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
