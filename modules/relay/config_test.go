package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg := ConfigFromEnv()
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("RELAY_MAX_HISTORY", "10")
	t.Setenv("RELAY_MAX_AGE", "5m")
	t.Setenv("RELAY_SWEEP_INTERVAL", "30s")
	t.Setenv("RELAY_PROBE_INTERVAL", "15s")
	t.Setenv("RELAY_OUTBOX_SIZE", "8")
	t.Setenv("RELAY_MAX_FRAME_SIZE", "4096")

	cfg := ConfigFromEnv()
	assert.Equal(t, 10, cfg.MaxHistory)
	assert.Equal(t, 5*time.Minute, cfg.MaxAge)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 15*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 8, cfg.OutboxSize)
	assert.Equal(t, int64(4096), cfg.MaxFrameSize)
}

func TestConfigFromEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("RELAY_MAX_HISTORY", "not-a-number")
	t.Setenv("RELAY_MAX_AGE", "yesterday")
	t.Setenv("RELAY_OUTBOX_SIZE", "-5")

	cfg := ConfigFromEnv()
	assert.Equal(t, DefaultConfig().MaxHistory, cfg.MaxHistory)
	assert.Equal(t, DefaultConfig().MaxAge, cfg.MaxAge)
	assert.Equal(t, DefaultConfig().OutboxSize, cfg.OutboxSize)
}

func TestConfigSanitized(t *testing.T) {
	cfg := Config{}.sanitized()
	assert.Equal(t, DefaultConfig(), cfg)

	cfg = Config{MaxHistory: 5, MaxAge: -time.Minute}.sanitized()
	assert.Equal(t, 5, cfg.MaxHistory)
	assert.Equal(t, DefaultConfig().MaxAge, cfg.MaxAge)
}
