package api

import (
	"log"
	"net/http"
	"time"

	"cityviz/internal/viz"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with the WebSocket renderer feed.
type Server struct {
	scene       SceneInterface
	scheduler   SchedulerInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter

	broadcastInterval time.Duration
}

// ServerOptions tunes the server beyond its required dependencies.
type ServerOptions struct {
	// Painter enables /preview.png when non-nil
	Painter *viz.Painter

	// ExtraOrigins are allowed for CORS and WebSocket upgrades alongside
	// localhost
	ExtraOrigins []string

	// BroadcastInterval is the period of the WebSocket frame feed.
	// Zero means 100ms.
	BroadcastInterval time.Duration
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(sc SceneInterface, sched SchedulerInterface, opts ServerOptions) *Server {
	s := &Server{
		scene:             sc,
		scheduler:         sched,
		wsHub:             NewWebSocketHub(opts.ExtraOrigins),
		broadcastInterval: opts.BroadcastInterval,
	}

	// Create rate limiter (we track it for cleanup on Stop)
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	var corsOrigins []string
	if len(opts.ExtraOrigins) > 0 {
		corsOrigins = append([]string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}, opts.ExtraOrigins...)
	}

	s.router = NewRouter(RouterConfig{
		Scene:       sc,
		Scheduler:   sched,
		Painter:     opts.Painter,
		RateLimiter: s.rateLimiter,
		CORSOrigins: corsOrigins,
	})

	// WebSocket route needs the hub instance, so it can't be part of the
	// pure NewRouter factory.
	s.router.Get("/ws", s.handleWS)

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
//
// Call this method only once. To stop the server, signal the process.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.scene, s.scheduler, s.broadcastInterval)

	log.Printf("🌐 Viewer API starting on %s", addr)
	log.Printf("🗺️ Preview: http://localhost%s/preview.png", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub, for wiring external broadcasts.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
