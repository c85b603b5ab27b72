package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/weatherdeck/weatherdeck/internal/api"
	"github.com/weatherdeck/weatherdeck/internal/services"
	"github.com/weatherdeck/weatherdeck/pkg/config"
	"github.com/weatherdeck/weatherdeck/pkg/database"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Config 서버 설정
type Config struct {
	// MongoDB
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DBName   string `env:"DB_NAME" envDefault:"weatherdeck"`

	// Redis (선택적)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka (선택적)
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:""`

	// Server
	Port      int    `env:"PORT" envDefault:"5000"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"your-secret-key"`

	// Simulator Config
	SimulatorConfigPath string `env:"SIMULATOR_CONFIG_PATH" envDefault:""`

	// Flags (not from env)
	ShowVersion bool
}

func main() {
	cfg := Config{}

	// 환경변수에서 설정 로드
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing environment variables: %v\n", err)
		os.Exit(1)
	}

	// 명령행 인자 파싱 (환경변수보다 우선)
	flag.StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "MongoDB connection URI")
	flag.StringVar(&cfg.DBName, "db-name", cfg.DBName, "Database name")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address (optional)")
	flag.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database number")
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "Kafka brokers, comma separated (optional)")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "JWT secret key")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "API server port")
	flag.StringVar(&cfg.SimulatorConfigPath, "simulator-config", cfg.SimulatorConfigPath, "Simulator config file path (YAML)")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version")

	flag.Parse()

	if cfg.ShowVersion {
		fmt.Printf("Weatherdeck %s (built: %s)\n", version, buildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 시뮬레이터 설정 로드 (파일이 없으면 기본값)
	simCfg := config.DefaultSimulatorConfig()
	if cfg.SimulatorConfigPath != "" {
		loaded, err := config.LoadSimulatorConfig(cfg.SimulatorConfigPath)
		if err != nil {
			logger.Warn("Failed to load simulator config, using defaults",
				"path", cfg.SimulatorConfigPath, "error", err)
		} else {
			simCfg = loaded
		}
	}

	// 데이터베이스 연결 (부팅 시 실패는 치명적)
	ctx := context.Background()
	db, err := database.New(ctx, &database.Config{
		URI:    cfg.MongoURI,
		DBName: cfg.DBName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure indexes", "error", err)
	}

	// Redis 서비스 생성 (선택적 - 실패해도 서버 시작)
	var redisService *services.RedisService
	if cfg.RedisAddr != "" {
		redisService, err = services.NewRedisService(&services.RedisServiceConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("Redis connection failed, continuing without cache", "error", err)
			redisService = nil
		} else {
			defer func() { _ = redisService.Close() }()
		}
	}

	// Kafka 팬아웃 서비스 생성 (선택적)
	var kafkaService *services.KafkaService
	if cfg.KafkaBrokers != "" {
		kafkaService = services.NewKafkaService(&services.KafkaServiceConfig{
			Brokers: strings.Split(cfg.KafkaBrokers, ","),
			Logger:  logger,
		})
		if kafkaService != nil {
			if err := kafkaService.EnsureTopic(ctx); err != nil {
				logger.Warn("Failed to ensure kafka topic, continuing without fan-out", "error", err)
				kafkaService = nil
			} else {
				defer func() { _ = kafkaService.Close() }()
			}
		}
	}

	// 센서 시뮬레이터 (초기 상태: 정지)
	sim := services.NewSimulator(simCfg)

	// 측정값 보존 잡 시작
	retention := services.NewRetentionService(db, simCfg, logger)
	if err := retention.Start(); err != nil {
		logger.Warn("Retention job failed to start", "error", err)
	} else {
		defer retention.Stop()
	}

	// API 서버 생성
	server := api.NewServer(db, sim, kafkaService, redisService, services.NewLogMailer(logger), cfg.JWTSecret)

	// 서버 시작
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("Server listening", "addr", addr, "version", version)
		if err := server.Run(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 시그널 대기
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, shutting down", "signal", sig.String())
}
