package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// ReadingRepository 센서 측정값 저장소. 측정값은 저장 후 불변.
type ReadingRepository struct {
	coll *mongo.Collection
}

// Insert 측정값 1건 저장
func (r *ReadingRepository) Insert(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, reading); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// HistoricalQuery 히스토리 조회 조건
type HistoricalQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// normalize 페이지/리밋 기본값 적용
func (q *HistoricalQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 100
	}
}

// filter 조회 조건을 bson 필터로 변환. 시작/종료가 모두 있을 때만 범위 필터 적용.
func (q *HistoricalQuery) filter() bson.M {
	if q.StartDate != nil && q.EndDate != nil {
		return bson.M{"timestamp": bson.M{
			"$gte": *q.StartDate,
			"$lte": *q.EndDate,
		}}
	}
	return bson.M{}
}

// TotalPages 전체 페이지 수 계산
func TotalPages(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Historical 시간 범위 + 페이지네이션 조회. 최신 순 정렬.
func (r *ReadingRepository) Historical(ctx context.Context, q HistoricalQuery) ([]models.Reading, types.Pagination, error) {
	q.normalize()
	filter := q.filter()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to count readings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to query readings: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	data := []models.Reading{}
	if err := cursor.All(ctx, &data); err != nil {
		return nil, types.Pagination{}, fmt.Errorf("failed to decode readings: %w", err)
	}

	pagination := types.Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: TotalPages(total, q.Limit),
	}
	return data, pagination, nil
}

// Latest 가장 최근 측정값 조회
func (r *ReadingRepository) Latest(ctx context.Context) (*models.Reading, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var reading models.Reading
	err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&reading)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.NewNotFoundError("reading", "latest")
		}
		return nil, fmt.Errorf("failed to find latest reading: %w", err)
	}
	return &reading, nil
}

// DeleteOlderThan 기준 시각 이전 측정값 일괄 삭제 (retention 잡 전용)
func (r *ReadingRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old readings: %w", err)
	}
	return result.DeletedCount, nil
}
