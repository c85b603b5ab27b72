// Package database MongoDB 연결 및 컬렉션 저장소
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config 데이터베이스 설정
type Config struct {
	URI     string
	DBName  string
	Timeout time.Duration
}

// DB 데이터베이스 인스턴스
type DB struct {
	client *mongo.Client
	db     *mongo.Database

	Flows    *FlowRepository
	Readings *ReadingRepository
	Users    *UserRepository
}

// New 새 데이터베이스 연결 생성
func New(ctx context.Context, cfg *Config) (*DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.DBName)

	d := &DB{
		client: client,
		db:     db,
	}
	d.Flows = &FlowRepository{coll: db.Collection("flows")}
	d.Readings = &ReadingRepository{coll: db.Collection("readings")}
	d.Users = &UserRepository{coll: db.Collection("users")}

	return d, nil
}

// EnsureIndexes 필요한 인덱스 생성
func (d *DB) EnsureIndexes(ctx context.Context) error {
	// 측정값: timestamp 내림차순 (범위 조회/최신 조회용)
	_, err := d.db.Collection("readings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_desc"),
	})
	if err != nil {
		return fmt.Errorf("failed to create readings index: %w", err)
	}

	// 사용자: 이메일 유니크
	_, err = d.db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// 플로우: 카테고리별 목록 조회
	_, err = d.db.Collection("flows").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "weatherType", Value: 1}, {Key: "updatedAt", Value: -1}},
		Options: options.Index().SetName("weather_type_updated"),
	})
	if err != nil {
		return fmt.Errorf("failed to create flows index: %w", err)
	}

	return nil
}

// Health 연결 상태 확인
func (d *DB) Health(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.client.Ping(pingCtx, nil)
}

// Close 연결 종료
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
