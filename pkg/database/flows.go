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

// FlowRepository 플로우 문서 CRUD 저장소
type FlowRepository struct {
	coll *mongo.Collection
}

// Create 플로우 생성. 구조 검증 실패 시 아무것도 저장하지 않는다.
func (r *FlowRepository) Create(ctx context.Context, draft *models.FlowDraft) (*models.Flow, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	draft.Normalize()

	now := time.Now().UTC()
	flow := &models.Flow{
		ID:          uuid.New().String(),
		Name:        draft.Name,
		Description: draft.Description,
		WeatherType: draft.WeatherType,
		Nodes:       draft.Nodes,
		Edges:       draft.Edges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.coll.InsertOne(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to insert flow: %w", err)
	}
	return flow, nil
}

// GetByID ID로 플로우 조회
func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	var flow models.Flow
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&flow)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.NewNotFoundError("flow", id)
		}
		return nil, fmt.Errorf("failed to find flow: %w", err)
	}
	return &flow, nil
}

// ListByType 카테고리별 플로우 목록. 최근 수정 순 정렬.
func (r *FlowRepository) ListByType(ctx context.Context, weatherType models.WeatherType) ([]models.Flow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"weatherType": weatherType}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	flows := []models.Flow{}
	if err := cursor.All(ctx, &flows); err != nil {
		return nil, fmt.Errorf("failed to decode flows: %w", err)
	}
	return flows, nil
}

// UpdatePatch 플로우 수정 페이로드. weatherType은 생성 시 고정된다.
type UpdatePatch struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Nodes       []models.Node `json:"nodes"`
	Edges       []models.Edge `json:"edges"`
}

// Update 플로우 전체 교체 수정. 병합 결과에 생성과 동일한 검증을 적용한다.
func (r *FlowRepository) Update(ctx context.Context, id string, patch *UpdatePatch) (*models.Flow, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := &models.FlowDraft{
		Name:        patch.Name,
		Description: patch.Description,
		WeatherType: existing.WeatherType,
		Nodes:       patch.Nodes,
		Edges:       patch.Edges,
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	merged.Normalize()

	update := bson.M{"$set": bson.M{
		"name":        merged.Name,
		"description": merged.Description,
		"nodes":       merged.Nodes,
		"edges":       merged.Edges,
		"updatedAt":   time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Flow
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.NewNotFoundError("flow", id)
		}
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return &updated, nil
}

// DeleteByID 플로우 삭제
func (r *FlowRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if result.DeletedCount == 0 {
		return types.NewNotFoundError("flow", id)
	}
	return nil
}

// DeleteNode 노드 삭제 + 연결된 엣지 연쇄 삭제.
// 노드가 존재하지 않으면 쓰기 없이 현재 플로우를 그대로 반환한다.
func (r *FlowRepository) DeleteNode(ctx context.Context, flowID, nodeID string) (*models.Flow, error) {
	flow, err := r.GetByID(ctx, flowID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, node := range flow.Nodes {
		if node.ID == nodeID {
			found = true
			break
		}
	}
	if !found {
		return flow, nil
	}

	update := bson.M{
		"$pull": bson.M{
			"nodes": bson.M{"id": nodeID},
			"edges": bson.M{"$or": []bson.M{
				{"source": nodeID},
				{"target": nodeID},
			}},
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Flow
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": flowID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.NewNotFoundError("flow", flowID)
		}
		return nil, fmt.Errorf("failed to delete node: %w", err)
	}
	return &updated, nil
}
