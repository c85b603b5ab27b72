package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/weatherdeck/weatherdeck/pkg/config"
	"github.com/weatherdeck/weatherdeck/pkg/database"
)

// RetentionService 보존 기간이 지난 측정값을 주기적으로 삭제하는 서비스
type RetentionService struct {
	db     *database.DB
	cfg    *config.SimulatorConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewRetentionService 보존 서비스 생성
func NewRetentionService(db *database.DB, cfg *config.SimulatorConfig, logger *slog.Logger) *RetentionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionService{
		db:     db,
		cfg:    cfg,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// Start 보존 잡 등록 및 시작. retention_days가 0이면 아무것도 하지 않는다.
func (s *RetentionService) Start() error {
	if s.cfg.RetentionDays <= 0 {
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.RetentionCron, s.purge)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Retention job started",
		"cron", s.cfg.RetentionCron, "retention_days", s.cfg.RetentionDays)
	return nil
}

// Stop 보존 잡 정지. 실행 중인 잡이 끝날 때까지 대기한다.
func (s *RetentionService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *RetentionService) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted, err := s.db.Readings.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to purge old readings", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("Purged old readings", "deleted", deleted, "cutoff", cutoff)
	}
}
