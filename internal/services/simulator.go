// Package services 센서 시뮬레이터 및 부가 서비스
package services

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/weatherdeck/weatherdeck/pkg/config"
	"github.com/weatherdeck/weatherdeck/pkg/models"
)

// Simulator 합성 측정값 생성기 + 프로세스 전역 실행 플래그.
// 플래그는 제어 핸들러와 스트림 핸들러에 주입되어 공유된다.
type Simulator struct {
	cfg *config.SimulatorConfig

	mu      sync.RWMutex
	running bool
}

// NewSimulator 시뮬레이터 생성. 초기 상태는 정지.
func NewSimulator(cfg *config.SimulatorConfig) *Simulator {
	if cfg == nil {
		cfg = config.DefaultSimulatorConfig()
	}
	return &Simulator{cfg: cfg}
}

// IsRunning 실행 중 여부
func (s *Simulator) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Start 시뮬레이터 시작. 이미 실행 중이면 false 반환 (멱등).
func (s *Simulator) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Stop 시뮬레이터 정지. 이미 정지 상태면 false 반환 (멱등).
// 열려 있는 스트림 연결은 강제 종료하지 않는다.
func (s *Simulator) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	return true
}

// Generate 측정값 1건 생성. 각 필드는 설정 범위 [min, max)에서 독립 균등 추출.
func (s *Simulator) Generate() *models.Reading {
	return &models.Reading{
		Temperature: roundTenth(uniform(s.cfg.Temperature)),
		Humidity:    roundTenth(uniform(s.cfg.Humidity)),
		WindSpeed:   roundTenth(uniform(s.cfg.WindSpeed)),
		Rainfall:    roundTenth(uniform(s.cfg.Rainfall)),
		Timestamp:   time.Now().UTC(),
	}
}

// NextTick 다음 틱까지 대기 시간. 연결마다 틱마다 독립적으로 추출한 지터.
func (s *Simulator) NextTick() time.Duration {
	if s.cfg.TickMax <= s.cfg.TickMin {
		return s.cfg.TickMin
	}
	return s.cfg.TickMin + rand.N(s.cfg.TickMax-s.cfg.TickMin)
}

func uniform(r config.Range) float64 {
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

// roundTenth 소수 첫째 자리 반올림
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
