// Package server exposes the hint engine over HTTP and WebSocket: session
// CRUD, piece placement, hint requests, and a push channel that streams
// progress and hint events to connected rendering clients.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lyz-njeri/Jigsaw-game/config"
	"github.com/lyz-njeri/Jigsaw-game/session"
)

// Server wires the session registry to HTTP handlers and fans engine
// events out to WebSocket clients.
type Server struct {
	cfg      config.ServerConfig
	registry *session.Registry
	store    *session.Store // nil = in-memory only
	db       *sql.DB

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan *Event

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *zap.SugaredLogger
}

// Event is one push message to rendering clients.
type Event struct {
	Type      string      `json:"type"` // "progress" or "hint"
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
}

// New creates a server. The store may be nil for in-memory play.
func New(cfg config.ServerConfig, registry *session.Registry, store *session.Store, database *sql.DB, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		registry:   registry,
		store:      store,
		db:         database,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, 256),
		limiters:   make(map[string]*rate.Limiter),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Handler returns the HTTP handler with all routes registered, for tests
// and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return mux
}

// Start runs the event loop and serves HTTP on the configured port. It
// blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	port := config.DefaultServerPort
	if s.cfg.Port != nil {
		port = *s.cfg.Port
	}

	s.wg.Add(1)
	go s.run()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Infow("Server listening", "port", port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener, disconnects clients, and waits for the
// event loop to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.cancel()
	s.wg.Wait()
	return err
}

// run is the hub loop: client registration and event fan-out.
func (s *Server) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			for client := range s.clients {
				close(client.send)
				delete(s.clients, client)
			}
			return

		case client := <-s.register:
			s.clients[client] = true
			s.logger.Debugw("Client connected", "client_id", client.id, "clients", len(s.clients))

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.logger.Debugw("Client disconnected", "client_id", client.id, "clients", len(s.clients))

		case event := <-s.events:
			for client := range s.clients {
				select {
				case client.send <- event:
				default:
					// Slow consumer: drop the client rather than block the hub.
					delete(s.clients, client)
					close(client.send)
					s.logger.Warnw("Dropped slow client", "client_id", client.id)
				}
			}
		}
	}
}

// publish queues an event for fan-out; drops when the hub is saturated.
func (s *Server) publish(event *Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Warnw("Event queue full, dropping event",
			"type", event.Type,
			"session_id", event.SessionID,
		)
	}
}

// limiterFor returns the per-client request limiter, creating it on first
// sight. A zero requests-per-minute config disables limiting.
func (s *Server) limiterFor(clientIP string) *rate.Limiter {
	if s.cfg.RequestsPerMinute <= 0 {
		return nil
	}
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	limiter, ok := s.limiters[clientIP]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(s.cfg.RequestsPerMinute)/60.0), s.cfg.RequestsPerMinute)
		s.limiters[clientIP] = limiter
	}
	return limiter
}

// clientIP extracts the caller address without the port.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}

// checkOrigin validates WebSocket origin against configured allowed
// origins. Requests with no Origin header (direct clients, tests) pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		// Prefix matching admits any port number.
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}
