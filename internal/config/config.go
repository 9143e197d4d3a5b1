// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all engine settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// AUDIO DEVICE CONFIGURATION
// =============================================================================

// DeviceConfig holds the settings used to open the default output device.
type DeviceConfig struct {
	SampleRate int // Output sample rate in Hz
	Channels   int // Always 2 (stereo); kept explicit for clarity at call sites
}

// DefaultDevice returns the default device configuration.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		SampleRate: 44100,
		Channels:   2,
	}
}

// DeviceFromEnv returns device configuration with environment variable overrides.
func DeviceFromEnv() DeviceConfig {
	cfg := DefaultDevice()

	if sr := getEnvInt("AUDIO_SAMPLE_RATE", 0); sr > 0 {
		cfg.SampleRate = sr
	}

	return cfg
}

// =============================================================================
// ENGINE TICK CONFIGURATION
// =============================================================================

// EngineConfig holds the tick cadence and fade-table constants described by
// the engine loop design. The audio engine runs on its own compiled-in
// constants and does not read this struct; cmd/soundscape-engine uses
// TickInterval (overridable with ENGINE_TICK_MS) only to size the output
// buffer and for its startup log.
type EngineConfig struct {
	TickInterval       int // milliseconds between engine ticks
	SchedulerTicksPerS int // ticks per scheduler-timer second (20 * 50ms = 1s)
	DuckFadeSpeed      float64
}

// DefaultEngine returns the default engine cadence.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TickInterval:       50,
		SchedulerTicksPerS: 20,
		DuckFadeSpeed:      0.15,
	}
}

// EngineFromEnv returns engine configuration with environment variable overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if ms := getEnvInt("ENGINE_TICK_MS", 0); ms > 0 {
		cfg.TickInterval = ms
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY SURFACE CONFIGURATION
// =============================================================================

// ObsConfig holds settings for the read-only debug/metrics HTTP surface.
type ObsConfig struct {
	Enabled           bool
	Port              int
	RequestsPerSecond float64
	Burst             int
}

// DefaultObs returns the default observability configuration.
func DefaultObs() ObsConfig {
	return ObsConfig{
		Enabled:           true,
		Port:              9090,
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// ObsFromEnv returns observability configuration with environment variable overrides.
func ObsFromEnv() ObsConfig {
	cfg := DefaultObs()

	if os.Getenv("OBS_DISABLED") == "true" {
		cfg.Enabled = false
	}
	if p := getEnvInt("OBS_PORT", 0); p > 0 {
		cfg.Port = p
	}
	if rps := getEnvFloat("OBS_RATE_LIMIT", 0); rps > 0 {
		cfg.RequestsPerSecond = rps
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Device DeviceConfig
	Engine EngineConfig
	Obs    ObsConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Device: DeviceFromEnv(),
		Engine: EngineFromEnv(),
		Obs:    ObsFromEnv(),
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
