package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

const (
	latestReadingKey  = "readings:latest"
	liveChannel       = "readings:live"
	latestReadingTTL  = 5 * time.Minute
	redisDialTimeout  = 3 * time.Second
	redisWriteTimeout = 2 * time.Second
)

// RedisService 최신 측정값 캐시 + 라이브 채널 발행.
// 연결 실패 시 서버는 Redis 없이 동작한다 (선택적 서비스).
type RedisService struct {
	client *redis.Client
}

// RedisServiceConfig Redis 서비스 설정
type RedisServiceConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisService Redis 서비스 생성. 연결 확인 실패 시 에러 반환.
func NewRedisService(cfg *RedisServiceConfig) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisDialTimeout,
		WriteTimeout: redisWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

// CacheReading 최신 측정값 캐시 갱신 + 라이브 채널 발행
func (s *RedisService) CacheReading(ctx context.Context, reading *models.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	if err := s.client.Set(ctx, latestReadingKey, payload, latestReadingTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache reading: %w", err)
	}
	if err := s.client.Publish(ctx, liveChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish reading: %w", err)
	}
	return nil
}

// LatestReading 캐시된 최신 측정값 조회. 캐시 미스 시 NotFoundError.
func (s *RedisService) LatestReading(ctx context.Context) (*models.Reading, error) {
	payload, err := s.client.Get(ctx, latestReadingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, types.NewNotFoundError("reading", "latest")
		}
		return nil, fmt.Errorf("failed to get cached reading: %w", err)
	}

	var reading models.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached reading: %w", err)
	}
	return &reading, nil
}

// Close 연결 종료
func (s *RedisService) Close() error {
	return s.client.Close()
}
