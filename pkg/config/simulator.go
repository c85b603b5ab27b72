// Package config 시뮬레이터 설정
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Range 난수 생성 범위 [Min, Max)
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SimulatorConfig 센서 시뮬레이터 설정
type SimulatorConfig struct {
	Temperature Range `yaml:"temperature"` // °C
	Humidity    Range `yaml:"humidity"`    // %
	WindSpeed   Range `yaml:"wind_speed"`  // km/h
	Rainfall    Range `yaml:"rainfall"`    // mm

	// 틱 간격 범위. 틱마다 [TickMin, TickMax) 구간에서 지터를 뽑는다.
	TickMin time.Duration `yaml:"tick_min"`
	TickMax time.Duration `yaml:"tick_max"`

	// 보존 기간이 지난 측정값은 retention 잡이 삭제한다. 0이면 비활성화.
	RetentionDays int    `yaml:"retention_days"`
	RetentionCron string `yaml:"retention_cron"`
}

// DefaultSimulatorConfig 기본 시뮬레이터 설정
func DefaultSimulatorConfig() *SimulatorConfig {
	return &SimulatorConfig{
		Temperature:   Range{Min: 10, Max: 40},
		Humidity:      Range{Min: 30, Max: 80},
		WindSpeed:     Range{Min: 0, Max: 30},
		Rainfall:      Range{Min: 0, Max: 10},
		TickMin:       time.Second,
		TickMax:       2 * time.Second,
		RetentionDays: 0,
		RetentionCron: "0 * * * *",
	}
}

// UnmarshalYAML 틱 간격을 "500ms" 형태의 기간 문자열로 받는다.
func (c *SimulatorConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		Temperature   *Range `yaml:"temperature"`
		Humidity      *Range `yaml:"humidity"`
		WindSpeed     *Range `yaml:"wind_speed"`
		Rainfall      *Range `yaml:"rainfall"`
		TickMin       string `yaml:"tick_min"`
		TickMax       string `yaml:"tick_max"`
		RetentionDays *int   `yaml:"retention_days"`
		RetentionCron string `yaml:"retention_cron"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Temperature != nil {
		c.Temperature = *raw.Temperature
	}
	if raw.Humidity != nil {
		c.Humidity = *raw.Humidity
	}
	if raw.WindSpeed != nil {
		c.WindSpeed = *raw.WindSpeed
	}
	if raw.Rainfall != nil {
		c.Rainfall = *raw.Rainfall
	}
	if raw.TickMin != "" {
		d, err := time.ParseDuration(raw.TickMin)
		if err != nil {
			return fmt.Errorf("tick_min: %w", err)
		}
		c.TickMin = d
	}
	if raw.TickMax != "" {
		d, err := time.ParseDuration(raw.TickMax)
		if err != nil {
			return fmt.Errorf("tick_max: %w", err)
		}
		c.TickMax = d
	}
	if raw.RetentionDays != nil {
		c.RetentionDays = *raw.RetentionDays
	}
	if raw.RetentionCron != "" {
		c.RetentionCron = raw.RetentionCron
	}
	return nil
}

// LoadSimulatorConfig 시뮬레이터 설정 파일 로드. 파일이 없으면 기본값 반환.
func LoadSimulatorConfig(path string) (*SimulatorConfig, error) {
	cfg := DefaultSimulatorConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 설정값 검증
func (c *SimulatorConfig) Validate() error {
	for name, r := range map[string]Range{
		"temperature": c.Temperature,
		"humidity":    c.Humidity,
		"wind_speed":  c.WindSpeed,
		"rainfall":    c.Rainfall,
	} {
		if r.Max <= r.Min {
			return fmt.Errorf("%s: max must be greater than min", name)
		}
	}
	if c.TickMin <= 0 {
		return fmt.Errorf("tick_min must be positive")
	}
	if c.TickMax < c.TickMin {
		return fmt.Errorf("tick_max must not be less than tick_min")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative")
	}
	return nil
}
