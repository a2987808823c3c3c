package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spriteworld/internal/recorder"
	"spriteworld/internal/world"
)

// EngineInterface defines the simulation engine methods used by the API.
// This interface enables mocking for tests without spinning up the full
// tick loop. Keep this minimal - only include methods the API layer
// actually calls.
type EngineInterface interface {
	// Snapshot returns the latest world snapshot for API responses
	Snapshot() world.WorldSnapshot
	// Running reports whether the tick loop is active
	Running() bool
	// Start begins the tick loop (idempotent)
	Start()
	// Stop halts the tick loop (idempotent)
	Stop()
	// Tick advances the simulation by exactly one step
	Tick()
	// TickRate returns the configured steps per second
	TickRate() int
	// Locked runs fn with exclusive access to the world
	Locked(fn func(w *world.World))
	// LockedRead runs fn with shared read access to the world
	LockedRead(fn func(w *world.World))
}

// RecorderInterface defines the collision history queries used by the
// API. Nil means recording is disabled and the routes return 404.
type RecorderInterface interface {
	Summarize() (recorder.Summary, error)
	RecentCollisions(limit int) ([]recorder.CollisionRow, error)
	BusiestPairs(limit int) ([]recorder.PairCount, error)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation engine (required)
	Engine EngineInterface

	// Recorder is the optional collision recorder. Nil disables the
	// /api/recorder routes.
	Recorder RecorderInterface

	// Auth protects the mutating routes. Nil leaves them open, which
	// is only acceptable in tests.
	Auth *TokenAuth

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default localhost origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	recorder RecorderInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started (beyond the rate limiter's own cleanup)
//   - No network listeners are opened
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

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:   cfg.Engine,
		recorder: cfg.Recorder,
	}

	// Auth middleware for mutating routes. Identity passthrough when
	// no auth is configured so tests can hit the routes directly.
	protect := func(next http.Handler) http.Handler { return next }
	if cfg.Auth != nil {
		protect = cfg.Auth.Middleware
	}

	r.Route("/api", func(r chi.Router) {
		// World state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)

		// Collision history
		r.Get("/recorder/collisions", h.handleRecorderCollisions)
		r.Get("/recorder/pairs", h.handleRecorderPairs)

		// Debug rendering
		r.Get("/debug/frame.png", h.handleDebugFrame)

		if cfg.Auth != nil {
			r.Post("/auth/login", cfg.Auth.HandleLogin)
		}

		// Mutating routes
		r.Group(func(r chi.Router) {
			r.Use(protect)

			r.Post("/sprites", h.handleSpriteCreate)
			r.Post("/sprites/batch", h.handleSpriteBatch)

			r.Post("/sim/start", h.handleSimStart)
			r.Post("/sim/stop", h.handleSimStop)
			r.Post("/sim/step", h.handleSimStep)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}
