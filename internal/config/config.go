// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the world and step-loop settings shared between the
// engine, the debug renderer and the websocket broadcaster.
type SimConfig struct {
	WorldWidth  float64 // world bounds width in units
	WorldHeight float64 // world bounds height in units
	TickRate    int     // simulation steps per second
	MaxSprites  int     // hard cap on live sprites

	UseSpatialIndex bool // quadtree broad-phase pruning
	QuadCapacity    int  // items per quadtree node before subdivision
	QuadMaxDepth    int  // quadtree recursion cap
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		WorldWidth:      1280,
		WorldHeight:     720,
		TickRate:        30,
		MaxSprites:      1000,
		UseSpatialIndex: false,
		QuadCapacity:    4,
		QuadMaxDepth:    8,
	}
}

// SimFromEnv returns simulation configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if w := getEnvFloat("WORLD_WIDTH", 0); w > 0 {
		cfg.WorldWidth = w
	}
	if h := getEnvFloat("WORLD_HEIGHT", 0); h > 0 {
		cfg.WorldHeight = h
	}
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if ms := getEnvInt("MAX_SPRITES", 0); ms > 0 {
		cfg.MaxSprites = ms
	}
	if os.Getenv("SPATIAL_INDEX") == "true" {
		cfg.UseSpatialIndex = true
	}
	if c := getEnvInt("QUAD_CAPACITY", 0); c > 0 {
		cfg.QuadCapacity = c
	}
	if d := getEnvInt("QUAD_MAX_DEPTH", 0); d > 0 {
		cfg.QuadMaxDepth = d
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int
	DebugPort     int    // localhost-only pprof and metrics listener
	AdminUser     string // admin login for mutating routes
	AdminPassword string // bcrypt-checked at login; empty disables auth routes
	JWTSecret     string
	RateLimitRPS  float64 // per-IP request budget
	RateBurst     int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		DebugPort:    6060,
		AdminUser:    "admin",
		RateLimitRPS: 10,
		RateBurst:    20,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides. Secrets only ever come from the environment.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if p := getEnvInt("DEBUG_PORT", 0); p > 0 {
		cfg.DebugPort = p
	}
	if u := os.Getenv("ADMIN_USER"); u != "" {
		cfg.AdminUser = u
	}
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if r := getEnvFloat("RATE_LIMIT_RPS", 0); r > 0 {
		cfg.RateLimitRPS = r
	}
	if b := getEnvInt("RATE_BURST", 0); b > 0 {
		cfg.RateBurst = b
	}

	return cfg
}

// =============================================================================
// RECORDER CONFIGURATION
// =============================================================================

// RecorderConfig holds the sqlite step recorder settings.
type RecorderConfig struct {
	Enabled   bool
	Path      string // sqlite database file
	BatchSize int    // rows buffered before a write transaction
	QueueSize int    // pending-event channel depth; overflow is dropped
}

// DefaultRecorder returns the default recorder configuration.
func DefaultRecorder() RecorderConfig {
	return RecorderConfig{
		Enabled:   true,
		Path:      "spriteworld.db",
		BatchSize: 64,
		QueueSize: 1024,
	}
}

// RecorderFromEnv returns recorder configuration with environment
// variable overrides.
func RecorderFromEnv() RecorderConfig {
	cfg := DefaultRecorder()

	if os.Getenv("RECORDER_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if p := os.Getenv("RECORDER_PATH"); p != "" {
		cfg.Path = p
	}
	if b := getEnvInt("RECORDER_BATCH_SIZE", 0); b > 0 {
		cfg.BatchSize = b
	}
	if q := getEnvInt("RECORDER_QUEUE_SIZE", 0); q > 0 {
		cfg.QueueSize = q
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim      SimConfig
	Server   ServerConfig
	Recorder RecorderConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:      SimFromEnv(),
		Server:   ServerFromEnv(),
		Recorder: RecorderFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
