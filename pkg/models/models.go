// Package models 플로우/센서 도메인 모델
package models

import (
	"fmt"
	"time"

	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// WeatherType 플로우 날씨 카테고리
type WeatherType string

const (
	WeatherTypeTemperature WeatherType = "temperature"
	WeatherTypeHumidity    WeatherType = "humidity"
	WeatherTypeWind        WeatherType = "wind"
	WeatherTypeRainfall    WeatherType = "rainfall"
	WeatherTypeGeneral     WeatherType = "general"
)

// Valid 알려진 카테고리 여부
func (w WeatherType) Valid() bool {
	switch w {
	case WeatherTypeTemperature, WeatherTypeHumidity, WeatherTypeWind, WeatherTypeRainfall, WeatherTypeGeneral:
		return true
	}
	return false
}

// NodeType 노드 유형
type NodeType string

const (
	NodeTypeWeather     NodeType = "weather"
	NodeTypeTemperature NodeType = "temperature"
	NodeTypeRainfall    NodeType = "rainfall"
	NodeTypeHumidity    NodeType = "humidity"
	NodeTypeWind        NodeType = "wind"
)

// Valid 알려진 노드 유형 여부
func (n NodeType) Valid() bool {
	switch n {
	case NodeTypeWeather, NodeTypeTemperature, NodeTypeRainfall, NodeTypeHumidity, NodeTypeWind:
		return true
	}
	return false
}

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
	maxLabelLen       = 100
)

// DefaultMarkerEnd 엣지 화살표 기본 스타일
const DefaultMarkerEnd = "arrowclosed"

// Position 캔버스 좌표
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// NodeData 노드 상세 데이터
type NodeData struct {
	Label       string      `json:"label" bson:"label"`
	WeatherType WeatherType `json:"weatherType,omitempty" bson:"weatherType,omitempty"`
	// Editing 편집 중 플래그. 저장/로드 시 항상 false로 초기화된다.
	Editing bool `json:"editing,omitempty" bson:"-"`
}

// Node 다이어그램 정점
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Type     NodeType `json:"type" bson:"type"`
	Position Position `json:"position" bson:"position"`
	Data     NodeData `json:"data" bson:"data"`
}

// Edge 노드 간 방향 연결
type Edge struct {
	ID        string `json:"id" bson:"id"`
	Source    string `json:"source" bson:"source"`
	Target    string `json:"target" bson:"target"`
	MarkerEnd string `json:"markerEnd,omitempty" bson:"markerEnd,omitempty"`
}

// Flow 저장된 다이어그램 문서
type Flow struct {
	ID          string      `json:"_id" bson:"_id"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	WeatherType WeatherType `json:"weatherType" bson:"weatherType"`
	Nodes       []Node      `json:"nodes" bson:"nodes"`
	Edges       []Edge      `json:"edges" bson:"edges"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// FlowDraft 저장 전 플로우 페이로드
type FlowDraft struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	WeatherType WeatherType `json:"weatherType"`
	Nodes       []Node      `json:"nodes"`
	Edges       []Edge      `json:"edges"`
}

// Validate 플로우 구조 검증. 위반 시 *types.ValidationError 반환.
func (d *FlowDraft) Validate() error {
	if d.Name == "" {
		return types.NewValidationError("name", "name is required")
	}
	if len(d.Name) > maxNameLen {
		return types.NewValidationError("name", fmt.Sprintf("name must be at most %d characters", maxNameLen))
	}
	if len(d.Description) > maxDescriptionLen {
		return types.NewValidationError("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen))
	}
	if !d.WeatherType.Valid() {
		return types.NewValidationError("weatherType", fmt.Sprintf("unknown weather type %q", d.WeatherType))
	}
	if len(d.Nodes) == 0 {
		return types.NewValidationError("nodes", "flow must contain at least one node")
	}

	nodeIDs := make(map[string]bool, len(d.Nodes))
	for i, node := range d.Nodes {
		if node.ID == "" {
			return types.NewValidationError(fmt.Sprintf("nodes[%d].id", i), "node id is required")
		}
		if nodeIDs[node.ID] {
			return types.NewValidationError(fmt.Sprintf("nodes[%d].id", i), fmt.Sprintf("duplicate node id %q", node.ID))
		}
		nodeIDs[node.ID] = true
		if !node.Type.Valid() {
			return types.NewValidationError(fmt.Sprintf("nodes[%d].type", i), fmt.Sprintf("unknown node type %q", node.Type))
		}
		if node.Data.Label == "" {
			return types.NewValidationError(fmt.Sprintf("nodes[%d].data.label", i), "node label is required")
		}
		if len(node.Data.Label) > maxLabelLen {
			return types.NewValidationError(fmt.Sprintf("nodes[%d].data.label", i), fmt.Sprintf("label must be at most %d characters", maxLabelLen))
		}
		if node.Data.WeatherType != "" && !node.Data.WeatherType.Valid() {
			return types.NewValidationError(fmt.Sprintf("nodes[%d].data.weatherType", i), fmt.Sprintf("unknown weather type %q", node.Data.WeatherType))
		}
	}

	edgeIDs := make(map[string]bool, len(d.Edges))
	for i, edge := range d.Edges {
		if edge.ID == "" {
			return types.NewValidationError(fmt.Sprintf("edges[%d].id", i), "edge id is required")
		}
		if edgeIDs[edge.ID] {
			return types.NewValidationError(fmt.Sprintf("edges[%d].id", i), fmt.Sprintf("duplicate edge id %q", edge.ID))
		}
		edgeIDs[edge.ID] = true
		if !nodeIDs[edge.Source] {
			return types.NewValidationError(fmt.Sprintf("edges[%d].source", i), fmt.Sprintf("source references unknown node %q", edge.Source))
		}
		if !nodeIDs[edge.Target] {
			return types.NewValidationError(fmt.Sprintf("edges[%d].target", i), fmt.Sprintf("target references unknown node %q", edge.Target))
		}
	}

	return nil
}

// Normalize 저장 전 정규화. 편집 플래그를 리셋하고 엣지 기본 스타일을 채운다.
func (d *FlowDraft) Normalize() {
	for i := range d.Nodes {
		d.Nodes[i].Data.Editing = false
	}
	for i := range d.Edges {
		if d.Edges[i].MarkerEnd == "" {
			d.Edges[i].MarkerEnd = DefaultMarkerEnd
		}
	}
}

// Reading 센서 샘플 1건. 저장 후 불변.
type Reading struct {
	ID          string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Temperature float64   `json:"temperature" bson:"temperature"`
	Humidity    float64   `json:"humidity" bson:"humidity"`
	WindSpeed   float64   `json:"windSpeed" bson:"windSpeed"`
	Rainfall    float64   `json:"rainfall" bson:"rainfall"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// OTP 이메일 인증 코드
type OTP struct {
	Code      string    `json:"code" bson:"code"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// User 사용자 계정
type User struct {
	ID         string    `json:"_id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Password   string    `json:"-" bson:"password"`
	OTP        *OTP      `json:"-" bson:"otp,omitempty"`
	IsVerified bool      `json:"isVerified" bson:"isVerified"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}
