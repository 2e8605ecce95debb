package introspect

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/relaycode/codeagent/internal/agentloop"
	"github.com/relaycode/codeagent/internal/vcs"
)

// Config controls the introspection endpoint's bind address and whether
// CORS is opened up for browser-based dashboards.
type Config struct {
	Addr       string
	EnableCORS bool
}

// DefaultConfig mirrors the teacher's server defaults, narrowed to a
// loopback-friendly bind address since this is an operator surface, not a
// public API.
func DefaultConfig() *Config {
	return &Config{Addr: "127.0.0.1:4117", EnableCORS: true}
}

// Server is the read-only introspection HTTP endpoint: it reports what the
// Agent Loop (C1) has already recorded and, when the workspace is a git
// repo, the branch the Git Session Manager (C6) currently has checked out.
// It never drives a task — there is no POST route here.
type Server struct {
	cfg     *Config
	router  *chi.Mux
	httpSrv *http.Server
	loop    *agentloop.Loop
	watcher *vcs.Watcher
	started time.Time
}

// New wires a Server around an already-constructed Agent Loop. watcher may
// be nil (non-git workspace, or the caller chose not to start one) — the
// /status branch field is simply omitted in that case.
func New(cfg *Config, loop *agentloop.Loop, watcher *vcs.Watcher) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{cfg: cfg, router: chi.NewRouter(), loop: loop, watcher: watcher, started: time.Now()}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.cfg.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/status", s.handleStatus)
}

// Start blocks serving on cfg.Addr until Shutdown is called. Grounded on
// the teacher's internal/server.Server.Start/Shutdown split.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadTimeout: 10 * time.Second}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("introspect: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the chi mux for tests.
func (s *Server) Router() *chi.Mux { return s.router }
