package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSimulatorConfig(t *testing.T) {
	cfg := DefaultSimulatorConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Temperature.Min != 10 || cfg.Temperature.Max != 40 {
		t.Errorf("unexpected temperature range: %+v", cfg.Temperature)
	}
	if cfg.TickMin != time.Second || cfg.TickMax != 2*time.Second {
		t.Errorf("unexpected tick range: %v - %v", cfg.TickMin, cfg.TickMax)
	}
}

func TestLoadSimulatorConfigMissingFile(t *testing.T) {
	cfg, err := LoadSimulatorConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if cfg.Humidity.Max != 80 {
		t.Errorf("expected default humidity max 80, got %v", cfg.Humidity.Max)
	}
}

func TestLoadSimulatorConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulator.yaml")
	content := `
temperature:
  min: -5
  max: 45
tick_min: 500ms
tick_max: 1s
retention_days: 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadSimulatorConfig(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.Temperature.Min != -5 || cfg.Temperature.Max != 45 {
		t.Errorf("unexpected temperature range: %+v", cfg.Temperature)
	}
	if cfg.TickMin != 500*time.Millisecond || cfg.TickMax != time.Second {
		t.Errorf("unexpected tick range: %v - %v", cfg.TickMin, cfg.TickMax)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("expected retention days 7, got %d", cfg.RetentionDays)
	}
	// 지정하지 않은 필드는 기본값 유지
	if cfg.Rainfall.Max != 10 {
		t.Errorf("expected default rainfall max 10, got %v", cfg.Rainfall.Max)
	}
}

func TestSimulatorConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SimulatorConfig)
	}{
		{"inverted range", func(c *SimulatorConfig) { c.Temperature = Range{Min: 40, Max: 10} }},
		{"zero tick min", func(c *SimulatorConfig) { c.TickMin = 0 }},
		{"tick max below min", func(c *SimulatorConfig) { c.TickMax = c.TickMin - 1 }},
		{"negative retention", func(c *SimulatorConfig) { c.RetentionDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimulatorConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
