package relay

import (
	"os"
	"strconv"
	"time"
)

// Config holds the tunable parameters of the relay engine.
type Config struct {
	MaxHistory    int           // retained entries per room history
	MaxAge        time.Duration // retained entry lifetime
	SweepInterval time.Duration // periodic history eviction
	ProbeInterval time.Duration // liveness probe period
	OutboxSize    int           // per-connection send queue capacity
	MaxFrameSize  int64         // inbound frame size limit in bytes
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		MaxHistory:    50,
		MaxAge:        15 * time.Minute,
		SweepInterval: 60 * time.Second,
		ProbeInterval: 30 * time.Second,
		OutboxSize:    64,
		MaxFrameSize:  8192,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for unset or unparseable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.MaxHistory = envInt("RELAY_MAX_HISTORY", cfg.MaxHistory)
	cfg.MaxAge = envDuration("RELAY_MAX_AGE", cfg.MaxAge)
	cfg.SweepInterval = envDuration("RELAY_SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.ProbeInterval = envDuration("RELAY_PROBE_INTERVAL", cfg.ProbeInterval)
	cfg.OutboxSize = envInt("RELAY_OUTBOX_SIZE", cfg.OutboxSize)
	if v := envInt("RELAY_MAX_FRAME_SIZE", int(cfg.MaxFrameSize)); v > 0 {
		cfg.MaxFrameSize = int64(v)
	}

	return cfg.sanitized()
}

// sanitized replaces non-positive fields with their defaults.
func (c Config) sanitized() Config {
	def := DefaultConfig()
	if c.MaxHistory <= 0 {
		c.MaxHistory = def.MaxHistory
	}
	if c.MaxAge <= 0 {
		c.MaxAge = def.MaxAge
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = def.ProbeInterval
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = def.OutboxSize
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = def.MaxFrameSize
	}
	return c
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
