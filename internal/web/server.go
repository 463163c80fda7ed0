// Package web serves exploration sessions over HTTP. Each session owns its
// own cleaned table; clients pick a column and receive the shaped chart data.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KaramelBytes/edascope/internal/logging"
	"github.com/KaramelBytes/edascope/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Server is the HTTP presentation layer.
type Server struct {
	base   session.Options
	store  *Store
	router *chi.Mux
	server *http.Server
}

// NewServer creates a server that starts every session with base.
// maxSessions bounds how many sessions are kept at once.
func NewServer(base session.Options, maxSessions int) *Server {
	s := &Server{
		base:   base,
		store:  NewStore(maxSessions),
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", s.handleHealth)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Get("/", s.handleGetSession)
			r.Get("/report", s.handleReport)
			r.Get("/charts", s.handleCharts)
			r.Delete("/", s.handleDeleteSession)
		})
	})
}

// Start begins listening for HTTP requests on addr. It returns
// http.ErrServerClosed once Shutdown has been called, even if Shutdown ran
// before Start.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	logging.FromContext(context.Background()).Info("starting server", "addr", ln.Addr().String(), "dataset", s.base.Path)
	return s.server.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// requestLogger logs one line per request through slog, tagged with the
// chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}
