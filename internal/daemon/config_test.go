package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8099 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8099)
	}
	if cfg.Window.Size != 60 {
		t.Errorf("Window.Size = %d, want 60", cfg.Window.Size)
	}
	if cfg.RateGate.MaxPerSecond != 2.0 {
		t.Errorf("RateGate.MaxPerSecond = %v, want 2.0", cfg.RateGate.MaxPerSecond)
	}
	if cfg.Resilience.WeightEnv != 0.35 || cfg.Resilience.WeightHealth != 0.40 || cfg.Resilience.WeightFood != 0.25 {
		t.Errorf("Resilience weights = %+v, want {0.35, 0.40, 0.25}", cfg.Resilience)
	}
	if cfg.Confidence.NegentropyWeight != 0.6 || cfg.Confidence.MarginWeight != 0.4 {
		t.Errorf("Confidence weights = %+v, want {0.6, 0.4}", cfg.Confidence)
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("expected defaults when no file is present, got %+v", cfg)
	}
}

func TestLoadConfig_OverlaysPresentFieldsOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[server]
port = 9000

[rate_gate]
max_per_second = 5.0
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want overlaid 9000", cfg.Server.Port)
	}
	if cfg.RateGate.MaxPerSecond != 5.0 {
		t.Errorf("RateGate.MaxPerSecond = %v, want overlaid 5.0", cfg.RateGate.MaxPerSecond)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want untouched default %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Window.Size != 60 {
		t.Errorf("Window.Size = %d, want untouched default 60", cfg.Window.Size)
	}
}

func TestLoadConfig_MalformedFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("not = [valid toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected an error for malformed TOML")
	}
}
