package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/weatherdeck/weatherdeck/pkg/models"
)

// DefaultReadingsTopic 측정값 팬아웃 기본 토픽
const DefaultReadingsTopic = "weather.readings"

// KafkaService 측정값 Kafka 팬아웃 서비스.
// 브로커가 설정되지 않으면 생성되지 않으며 서버는 팬아웃 없이 동작한다.
type KafkaService struct {
	brokers []string
	topic   string
	writer  *kafka.Writer
	logger  *slog.Logger
}

// KafkaServiceConfig Kafka 서비스 설정
type KafkaServiceConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// NewKafkaService KafkaService 생성. 브로커가 없으면 nil 반환.
func NewKafkaService(cfg *KafkaServiceConfig) *KafkaService {
	if cfg == nil {
		cfg = &KafkaServiceConfig{}
	}

	brokers := cfg.Brokers
	if len(brokers) == 0 {
		// 환경변수에서 읽기
		if brokersEnv := os.Getenv("KAFKA_BROKERS"); brokersEnv != "" {
			brokers = strings.Split(brokersEnv, ",")
		}
	}
	if len(brokers) == 0 {
		return nil
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultReadingsTopic
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaService{
		brokers: brokers,
		topic:   topic,
		writer:  writer,
		logger:  logger,
	}
}

// EnsureTopic 측정값 토픽이 없으면 생성
func (s *KafkaService) EnsureTopic(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", s.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to connect to controller: %w", err)
	}
	defer func() { _ = controllerConn.Close() }()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             s.topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	s.logger.Info("Kafka readings topic ready", "topic", s.topic, "brokers", s.brokers)
	return nil
}

// PublishReading 측정값 1건 발행. 실패는 호출자가 로그만 남기고 넘어간다.
func (s *KafkaService) PublishReading(ctx context.Context, reading *models.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(reading.Timestamp.UTC().Format(time.RFC3339Nano)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish reading: %w", err)
	}
	return nil
}

// Close writer 종료
func (s *KafkaService) Close() error {
	return s.writer.Close()
}
