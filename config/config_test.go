package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12*time.Second, cfg.Simulator.Timeout)
	assert.Equal(t, 12, cfg.Simulator.BatchSize)
	assert.Equal(t, 16, cfg.Network.Nodes)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
simulator:
  timeout: 2s
  batch_size: 4
  phrase: "custom phrase"
network:
  nodes: 8
metrics:
  enabled: true
  addr: ":9999"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Simulator.Timeout)
	assert.Equal(t, 4, cfg.Simulator.BatchSize)
	assert.Equal(t, "custom phrase", cfg.Simulator.Phrase)
	assert.Equal(t, 8, cfg.Network.Nodes)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)

	// Untouched fields keep their defaults.
	assert.Equal(t, 0.2, cfg.Simulator.DelayMinFrac)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulator:\n  timeout: 2s\n"), 0o600))

	t.Setenv("PROMPTSIM_SIMULATOR_TIMEOUT", "7s")
	t.Setenv("PROMPTSIM_NETWORK_NODES", "3")
	t.Setenv("PROMPTSIM_LOG_LEVEL", "debug")
	t.Setenv("PROMPTSIM_METRICS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, cfg.Simulator.Timeout)
	assert.Equal(t, 3, cfg.Network.Nodes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_InvalidEnvValueIgnored(t *testing.T) {
	t.Setenv("PROMPTSIM_SIMULATOR_BATCH_SIZE", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Simulator.BatchSize, cfg.Simulator.BatchSize)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.Simulator.Timeout = 0 }},
		{"zero batch size", func(c *Config) { c.Simulator.BatchSize = 0 }},
		{"negative delay frac", func(c *Config) { c.Simulator.DelayMinFrac = -0.1 }},
		{"inverted delay fracs", func(c *Config) { c.Simulator.DelayMinFrac = 0.6; c.Simulator.DelayMaxFrac = 0.4 }},
		{"negative nodes", func(c *Config) { c.Network.Nodes = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
