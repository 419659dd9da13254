package api

import (
	"net/http"

	"cityviz/internal/scene"
	"cityviz/internal/viz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SceneInterface defines the scene engine methods used by the API.
// This interface enables mocking for tests without spinning up the full
// reconciliation loop. Keep this minimal - only include methods the API
// layer actually calls.
type SceneInterface interface {
	viz.SceneSource
	// Settled reports whether an agent has no active tweens
	Settled(id string) (settled, ok bool)
	// GetStats returns a point-in-time summary of the scene tables
	GetStats() scene.Stats
}

// SchedulerInterface defines the cycle scheduler methods used by the API.
type SchedulerInterface interface {
	// Progress returns cycle progress in [0,1]
	Progress() float64
	// State reports the scheduler's current phase
	State() scene.CycleState
	// GetStats returns refresh counters
	GetStats() map[string]uint64
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Scene:     fakeScene,
//	    Scheduler: fakeScheduler,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Scene is the reconciled agent scene (required)
	Scene SceneInterface

	// Scheduler is the cycle scheduler (required)
	Scheduler SchedulerInterface

	// Painter renders /preview.png. If nil the route returns 404.
	Painter *viz.Painter

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, localhost origins are allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	scene     SceneInterface
	scheduler SchedulerInterface
	painter   *viz.Painter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	h := &routerHandlers{
		scene:     cfg.Scene,
		scheduler: cfg.Scheduler,
		painter:   cfg.Painter,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Per-frame renderer payload
		r.Get("/frame", h.handleGetFrame)

		// Scene introspection
		r.Get("/stats", h.handleGetStats)
		r.Get("/signals", h.handleGetSignals)
		r.Get("/agents/{id}/settled", h.handleGetSettled)
	})

	// Top-down debug snapshot
	r.Get("/preview.png", h.handlePreview)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/frame", http.StatusFound)
	})

	return r
}
