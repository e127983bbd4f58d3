package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/internal/httputil"
	"github.com/allyourbase/dialplan/internal/realtime"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the dialplan HTTP API.
type Server struct {
	cfg       *config.Config
	router    *chi.Mux
	http      *http.Server
	logger    *slog.Logger
	engine    *phonenumber.Engine
	sessions  *sessionStore
	events    *realtime.Hub
	stream    *realtime.Handler
	limiter   *RateLimiter // nil when server.rate_limit is 0
	startTime time.Time
	logBuffer *LogBuffer // nil when not using buffered logging
}

// New creates a new Server with middleware and routes configured.
func New(cfg *config.Config, logger *slog.Logger, engine *phonenumber.Engine) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))

	s := &Server{
		cfg:       cfg,
		router:    r,
		logger:    logger,
		engine:    engine,
		sessions:  newSessionStore(engine, logger, cfg.SessionTTLDuration(), cfg.Server.MaxSessions),
		startTime: time.Now(),
	}
	s.events = realtime.NewHub(logger)
	s.stream = realtime.NewHandler(s.events, logger)
	s.sessions.onRemove = s.events.CloseSession
	if cfg.Server.RateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		r.Get("/numbers", s.handleNumber)
		r.Get("/numbers/match", s.handleMatch)

		r.Get("/regions", s.handleListRegions)
		r.Get("/regions/{region}", s.handleGetRegion)
		r.Get("/regions/{region}/example", s.handleRegionExample)

		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Get("/{id}/events", s.handleSessionEvents)
			r.Post("/{id}/input", s.handleSessionInput)
			r.Post("/{id}/clear", s.handleClearSession)
			r.Delete("/{id}", s.handleDeleteSession)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/logs", s.handleLogs)
	})

	return s
}

// SetLogBuffer attaches a log buffer for the /api/v1/logs endpoint.
func (s *Server) SetLogBuffer(lb *LogBuffer) {
	s.logBuffer = lb
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	ready := make(chan struct{})
	return s.StartWithReady(ready)
}

// StartWithReady begins listening. It closes the ready channel once the
// listener is bound, then blocks serving requests.
func (s *Server) StartWithReady(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ln, ready)
}

// Serve serves requests on ln. ready, if non-nil, is closed before serving begins.
func (s *Server) Serve(ln net.Listener, ready chan<- struct{}) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.sessions.startJanitor(janitorInterval(s.cfg.SessionTTLDuration()))

	s.logger.Info("server starting", "address", ln.Addr().String())
	if ready != nil {
		close(ready)
	}

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("shutting down server", "timeout", timeout)
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.sessions.close()
	// Open event streams would otherwise hold Shutdown until the timeout.
	s.events.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(shutdownCtx)
}

// janitorInterval sweeps a few times per TTL, bounded to [1s, 1m].
func janitorInterval(ttl time.Duration) time.Duration {
	d := ttl / 4
	switch {
	case d < time.Second:
		return time.Second
	case d > time.Minute:
		return time.Minute
	}
	return d
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
