package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Options are the runtime settings of the HTTP server.
type Options struct {
	Addr string
	// ConflictRetries bounds how often a mutating request is recomputed
	// after losing a concurrent write.
	ConflictRetries int
	ReadTimeout     time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Addr:            "localhost:8080",
		ConflictRetries: 3,
		ReadTimeout:     15 * time.Second,
	}
}

// Server exposes the game service over HTTP and the spectator hub over
// websockets.
type Server struct {
	cfg     Options
	service *GameService
	hub     *Hub
	logger  *log.Logger
	mux     *http.ServeMux
	http    *http.Server
}

// NewServer creates a server. The hub must already be subscribed to service.
func NewServer(service *GameService, hub *Hub, logger *log.Logger, cfg Options) *Server {
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	s := &Server{
		cfg:     cfg,
		service: service,
		hub:     hub,
		logger:  logger.WithPrefix("server"),
		mux:     http.NewServeMux(),
	}
	s.routes(s.mux)
	s.http = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.mux,
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting server", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and disconnects watchers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.http.Shutdown(ctx)
}
