// Package config provides configuration loading for the prompting
// simulator: coded defaults, overridden by a YAML file, overridden by
// environment variables with the PROMPTSIM_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment overrides.
const EnvPrefix = "PROMPTSIM"

// Config is the complete simulator configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Network   NetworkConfig   `yaml:"network"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// SimulatorConfig controls call-outcome and streaming behavior.
type SimulatorConfig struct {
	// Timeout is the default per-call timeout.
	Timeout time.Duration `yaml:"timeout"`
	// BatchSize is the number of tokens per stream chunk.
	BatchSize int `yaml:"batch_size"`
	// DelayMinFrac and DelayMaxFrac bound the simulated per-batch
	// processing delay as fractions of the timeout.
	DelayMinFrac float64 `yaml:"delay_min_frac"`
	DelayMaxFrac float64 `yaml:"delay_max_frac"`
	// Seed drives the delay source; 0 means seed from the clock.
	Seed int64 `yaml:"seed"`
	// Phrase is the echoed completion text.
	Phrase string `yaml:"phrase"`
}

// NetworkConfig controls the simulated topology.
type NetworkConfig struct {
	// Nodes is the number of serving nodes to register.
	Nodes int `yaml:"nodes"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Default returns the coded defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Simulator: SimulatorConfig{
			Timeout:      12 * time.Second,
			BatchSize:    12,
			DelayMinFrac: 0.2,
			DelayMaxFrac: 0.5,
			Phrase:       "Simulated model output",
		},
		Network: NetworkConfig{
			Nodes: 16,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Addr:      ":9090",
			Namespace: "promptsim",
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			ServiceName:  "promptsim",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path when
// path is non-empty, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Simulator.Timeout <= 0 {
		return fmt.Errorf("simulator.timeout must be positive, got %v", c.Simulator.Timeout)
	}
	if c.Simulator.BatchSize <= 0 {
		return fmt.Errorf("simulator.batch_size must be positive, got %d", c.Simulator.BatchSize)
	}
	if c.Simulator.DelayMinFrac < 0 || c.Simulator.DelayMaxFrac < c.Simulator.DelayMinFrac {
		return fmt.Errorf("simulator delay fractions invalid: min=%v max=%v",
			c.Simulator.DelayMinFrac, c.Simulator.DelayMaxFrac)
	}
	if c.Network.Nodes < 0 {
		return fmt.Errorf("network.nodes must not be negative, got %d", c.Network.Nodes)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.Log.Level, "LOG_LEVEL")
	envString(&cfg.Log.Format, "LOG_FORMAT")
	envDuration(&cfg.Simulator.Timeout, "SIMULATOR_TIMEOUT")
	envInt(&cfg.Simulator.BatchSize, "SIMULATOR_BATCH_SIZE")
	envFloat(&cfg.Simulator.DelayMinFrac, "SIMULATOR_DELAY_MIN_FRAC")
	envFloat(&cfg.Simulator.DelayMaxFrac, "SIMULATOR_DELAY_MAX_FRAC")
	envInt64(&cfg.Simulator.Seed, "SIMULATOR_SEED")
	envString(&cfg.Simulator.Phrase, "SIMULATOR_PHRASE")
	envInt(&cfg.Network.Nodes, "NETWORK_NODES")
	envBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	envString(&cfg.Metrics.Addr, "METRICS_ADDR")
	envString(&cfg.Metrics.Namespace, "METRICS_NAMESPACE")
	envBool(&cfg.Telemetry.Enabled, "TELEMETRY_ENABLED")
	envString(&cfg.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	envString(&cfg.Telemetry.OTLPEndpoint, "TELEMETRY_OTLP_ENDPOINT")
	envFloat(&cfg.Telemetry.SampleRate, "TELEMETRY_SAMPLE_RATE")
}

func lookup(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + "_" + key)
}

func envString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(dst *int64, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v, ok := lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
