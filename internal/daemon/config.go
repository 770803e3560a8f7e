// Package daemon holds the process-level configuration for the risk
// inference service: nested struct-of-structs sections with defaults
// baked in, optionally overlaid from a TOML file on disk.
package daemon

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	MetricsEnabled bool   `toml:"metrics_enabled"`
}

// WindowConfig configures the rolling prediction history bound (§3
// WINDOW_SIZE).
type WindowConfig struct {
	Size int `toml:"size"`
}

// RateGateConfig configures the real-time ingestion rate gate (§4.G
// MAX_INFERENCE_RATE).
type RateGateConfig struct {
	MaxPerSecond float64 `toml:"max_per_second"`
}

// ResilienceConfig configures the resilience-score weights (§3).
type ResilienceConfig struct {
	WeightEnv    float64 `toml:"weight_env"`
	WeightHealth float64 `toml:"weight_health"`
	WeightFood   float64 `toml:"weight_food"`
}

// ConfidenceConfig configures the per-domain confidence blend (§4.C).
type ConfidenceConfig struct {
	NegentropyWeight float64 `toml:"negentropy_weight"`
	MarginWeight     float64 `toml:"margin_weight"`
}

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Window     WindowConfig     `toml:"window"`
	RateGate   RateGateConfig   `toml:"rate_gate"`
	Resilience ResilienceConfig `toml:"resilience"`
	Confidence ConfidenceConfig `toml:"confidence"`
}

// DefaultConfig returns the configuration fixed by the specification.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8099,
			MetricsEnabled: false,
		},
		Window: WindowConfig{
			Size: 60,
		},
		RateGate: RateGateConfig{
			MaxPerSecond: 2.0,
		},
		Resilience: ResilienceConfig{
			WeightEnv:    0.35,
			WeightHealth: 0.40,
			WeightFood:   0.25,
		},
		Confidence: ConfidenceConfig{
			NegentropyWeight: 0.6,
			MarginWeight:     0.4,
		},
	}
}

// LoadConfig returns the default configuration overlaid with whatever
// fields are present in the TOML file at path. A missing file is not an
// error — the defaults are returned unmodified, matching a fresh install
// with no config file written yet.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
