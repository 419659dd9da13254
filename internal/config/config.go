// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all viewer and scene settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SIMULATION SNAPSHOT SOURCE
// =============================================================================

// SimConfig holds settings for the authoritative simulation endpoint.
type SimConfig struct {
	BaseURL        string        // Base URL of the simulation HTTP API
	RequestTimeout time.Duration // Per-request timeout for snapshot calls
	PollRate       float64       // Snapshot polls allowed per second
	PollBurst      int           // Poll limiter burst size
	AgentCount     int           // NAgents sent on /init
	WorldWidth     int           // Grid width sent on /init
	WorldHeight    int           // Grid height sent on /init
}

// DefaultSim returns the default simulation source configuration.
// The port matches the reference simulation server.
func DefaultSim() SimConfig {
	return SimConfig{
		BaseURL:        "http://localhost:8585",
		RequestTimeout: 5 * time.Second,
		PollRate:       2, // polls per second; the cycle midpoint is the real pacer
		PollBurst:      4,
		AgentCount:     10,
		WorldWidth:     36,
		WorldHeight:    35,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if url := os.Getenv("SIM_URL"); url != "" {
		cfg.BaseURL = url
	}
	if d := getEnvDuration("SIM_TIMEOUT_MS", 0); d > 0 {
		cfg.RequestTimeout = d
	}
	if r := getEnvFloat("SIM_POLL_RATE", 0); r > 0 {
		cfg.PollRate = r
	}
	if n := getEnvInt("SIM_AGENTS", 0); n > 0 {
		cfg.AgentCount = n
	}
	if w := getEnvInt("SIM_WIDTH", 0); w > 0 {
		cfg.WorldWidth = w
	}
	if h := getEnvInt("SIM_HEIGHT", 0); h > 0 {
		cfg.WorldHeight = h
	}

	return cfg
}

// =============================================================================
// SCENE & MOTION
// =============================================================================

// SceneConfig holds all motion, animation and lighting tuning for the scene
// engine. Durations pace the tweens; the cycle duration paces the background
// snapshot refresh.
type SceneConfig struct {
	CycleDuration    time.Duration // Repeating animation cycle D
	PositionDuration time.Duration // Position tween length
	RotationDuration time.Duration // Rotation tween length (shorter than position)
	HopHeight        float64       // Peak of the sin(pi*t) gait bounce, world units
	SnapDistance     float64       // Planar displacement beyond which a record snaps, no tween
	MoveEpsilon      float64       // Planar displacement below which a record counts as idle
	AngleEpsilon     float64       // Angular difference below which no turn is started

	GaitFrameDuration time.Duration // Per-frame duration of the walk cycle
	GaitFrameCount    int           // Frames in the walk cycle
	GaitIdleFrame     int           // Frame shown while idle

	VariantCount int // Cosmetic variants (body colors) to choose from at creation

	LightRadius float64 // Reach of a dynamic signal light, world units
	LightOffset float64 // Vertical offset of a dynamic light above its signal
}

// DefaultScene returns the default scene configuration.
// Rotation is half the position duration so a turn lands before the midpoint
// of the corresponding move.
func DefaultScene() SceneConfig {
	return SceneConfig{
		CycleDuration:    1000 * time.Millisecond,
		PositionDuration: 1000 * time.Millisecond,
		RotationDuration: 500 * time.Millisecond,
		HopHeight:        0.18,
		SnapDistance:     5.0,
		MoveEpsilon:      1e-3,
		AngleEpsilon:     1e-4,

		GaitFrameDuration: 90 * time.Millisecond,
		GaitFrameCount:    8,
		GaitIdleFrame:     0,

		VariantCount: 6,

		LightRadius: 6.0,
		LightOffset: 2.5,
	}
}

// SceneFromEnv returns scene configuration with environment variable overrides.
func SceneFromEnv() SceneConfig {
	cfg := DefaultScene()

	if d := getEnvDuration("CYCLE_MS", 0); d > 0 {
		cfg.CycleDuration = d
		cfg.PositionDuration = d
		cfg.RotationDuration = d / 2
	}
	if h := getEnvFloat("HOP_HEIGHT", -1); h >= 0 {
		cfg.HopHeight = h
	}
	if s := getEnvFloat("SNAP_DISTANCE", 0); s > 0 {
		cfg.SnapDistance = s
	}
	if r := getEnvFloat("LIGHT_RADIUS", 0); r > 0 {
		cfg.LightRadius = r
	}

	return cfg
}

// =============================================================================
// VIEWER SERVER
// =============================================================================

// ServerConfig holds HTTP server settings for the viewer API.
type ServerConfig struct {
	Port int
	FPS  int // Display/advance rate of the frame loop
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		FPS:  30,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if fps := getEnvInt("VIEWER_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}

	return cfg
}

// =============================================================================
// PREVIEW RENDERING
// =============================================================================

// PreviewConfig holds settings for the top-down debug painter.
type PreviewConfig struct {
	Width  int     // Preview image width in pixels
	Height int     // Preview image height in pixels
	Scale  float64 // Pixels per world unit
}

// DefaultPreview returns the default preview configuration.
func DefaultPreview() PreviewConfig {
	return PreviewConfig{
		Width:  720,
		Height: 720,
		Scale:  18,
	}
}

// PreviewFromEnv returns preview configuration with environment variable overrides.
func PreviewFromEnv() PreviewConfig {
	cfg := DefaultPreview()

	if w := getEnvInt("PREVIEW_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("PREVIEW_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if s := getEnvFloat("PREVIEW_SCALE", 0); s > 0 {
		cfg.Scale = s
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim     SimConfig
	Scene   SceneConfig
	Server  ServerConfig
	Preview PreviewConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:     SimFromEnv(),
		Scene:   SceneFromEnv(),
		Server:  ServerFromEnv(),
		Preview: PreviewFromEnv(),
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

// getEnvDuration reads a millisecond count from the environment.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
