// Package flowsession 플로우 1개를 미러링하는 클라이언트 측 편집 상태.
// 로컬 편집은 저장소에 닿지 않으며 SaveFlow 호출 시점에만 영속화된다.
package flowsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weatherdeck/weatherdeck/pkg/database"
	"github.com/weatherdeck/weatherdeck/pkg/models"
)

// 복제 노드의 위치 오프셋. 원본과 겹치지 않도록 고정 델타를 적용한다.
const duplicateOffset = 50

// Repository 세션이 의존하는 플로우 저장소 계약
type Repository interface {
	Create(ctx context.Context, draft *models.FlowDraft) (*models.Flow, error)
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	Update(ctx context.Context, id string, patch *database.UpdatePatch) (*models.Flow, error)
}

// Session 플로우 편집 세션. 한 번에 최대 하나의 플로우를 바인딩한다.
type Session struct {
	repo Repository

	mu           sync.Mutex
	nodes        []models.Node
	edges        []models.Edge
	weatherType  models.WeatherType
	selectedFlow *models.Flow
	selectedNode *models.Node
	selectedEdge *models.Edge
}

// NewSession 새 편집 세션 생성
func NewSession(repo Repository, weatherType models.WeatherType) *Session {
	return &Session{
		repo:        repo,
		weatherType: weatherType,
	}
}

// Nodes 로컬 노드 목록 복사본
func (s *Session) Nodes() []models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Edges 로컬 엣지 목록 복사본
func (s *Session) Edges() []models.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// BoundFlow 현재 바인딩된 플로우. 미바인딩이면 nil.
func (s *Session) BoundFlow() *models.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedFlow
}

// SelectedNode 현재 선택된 노드 스냅샷. 없으면 nil.
func (s *Session) SelectedNode() *models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedNode == nil {
		return nil
	}
	snapshot := *s.selectedNode
	return &snapshot
}

// SelectedEdge 현재 선택된 엣지 스냅샷. 없으면 nil.
func (s *Session) SelectedEdge() *models.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedEdge == nil {
		return nil
	}
	snapshot := *s.selectedEdge
	return &snapshot
}

// SelectNode 노드 선택. 존재하지 않으면 false.
func (s *Session) SelectNode(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes {
		if s.nodes[i].ID == nodeID {
			snapshot := s.nodes[i]
			s.selectedNode = &snapshot
			return true
		}
	}
	return false
}

// SelectEdge 엣지 선택. 존재하지 않으면 false.
func (s *Session) SelectEdge(edgeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.edges {
		if s.edges[i].ID == edgeID {
			snapshot := s.edges[i]
			s.selectedEdge = &snapshot
			return true
		}
	}
	return false
}

// AddNode 로컬 노드 추가. 저장소에 닿지 않는다.
func (s *Session) AddNode(node models.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, node)
}

// DeleteNode 로컬 노드 삭제 + 해당 노드를 참조하는 로컬 엣지 연쇄 삭제.
// 삭제된 노드가 선택 상태면 선택을 해제한다.
func (s *Session) DeleteNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.nodes[:0]
	for _, node := range s.nodes {
		if node.ID != nodeID {
			kept = append(kept, node)
		}
	}
	s.nodes = kept

	keptEdges := s.edges[:0]
	for _, edge := range s.edges {
		if edge.Source != nodeID && edge.Target != nodeID {
			keptEdges = append(keptEdges, edge)
		}
	}
	s.edges = keptEdges

	if s.selectedNode != nil && s.selectedNode.ID == nodeID {
		s.selectedNode = nil
	}
}

// NodeUpdate 노드 부분 수정 페이로드
type NodeUpdate struct {
	Type        *models.NodeType
	Position    *models.Position
	Label       *string
	WeatherType *models.WeatherType
	Editing     *bool
}

// UpdateNode 노드 필드 병합. 선택된 노드였다면 선택 스냅샷도 갱신한다.
func (s *Session) UpdateNode(nodeID string, update NodeUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.nodes {
		if s.nodes[i].ID != nodeID {
			continue
		}
		applyNodeUpdate(&s.nodes[i], update)
		if s.selectedNode != nil && s.selectedNode.ID == nodeID {
			snapshot := s.nodes[i]
			s.selectedNode = &snapshot
		}
		return
	}
}

func applyNodeUpdate(node *models.Node, update NodeUpdate) {
	if update.Type != nil {
		node.Type = *update.Type
	}
	if update.Position != nil {
		node.Position = *update.Position
	}
	if update.Label != nil {
		node.Data.Label = *update.Label
	}
	if update.WeatherType != nil {
		node.Data.WeatherType = *update.WeatherType
	}
	if update.Editing != nil {
		node.Data.Editing = *update.Editing
	}
}

// DuplicateNode 노드 복제. 원본 id에 유니크 토큰을 붙인 새 id를 할당하고
// 위치를 고정 델타만큼 이동한 복사본을 추가한다. 원본이 없으면 nil 반환.
func (s *Session) DuplicateNode(nodeID string) *models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.nodes {
		if s.nodes[i].ID != nodeID {
			continue
		}
		clone := s.nodes[i]
		clone.ID = fmt.Sprintf("%s-copy-%d", nodeID, time.Now().UnixMilli())
		clone.Position.X += duplicateOffset
		clone.Position.Y += duplicateOffset
		s.nodes = append(s.nodes, clone)
		result := clone
		return &result
	}
	return nil
}

// AddEdge 로컬 엣지 추가
func (s *Session) AddEdge(edge models.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edge.MarkerEnd == "" {
		edge.MarkerEnd = models.DefaultMarkerEnd
	}
	s.edges = append(s.edges, edge)
}

// DeleteEdge 로컬 엣지 삭제. 선택 상태였다면 선택 해제.
func (s *Session) DeleteEdge(edgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.edges[:0]
	for _, edge := range s.edges {
		if edge.ID != edgeID {
			kept = append(kept, edge)
		}
	}
	s.edges = kept

	if s.selectedEdge != nil && s.selectedEdge.ID == edgeID {
		s.selectedEdge = nil
	}
}

// EdgeUpdate 엣지 부분 수정 페이로드
type EdgeUpdate struct {
	Source    *string
	Target    *string
	MarkerEnd *string
}

// UpdateEdge 엣지 필드 병합. 선택된 엣지였다면 선택 스냅샷도 갱신한다.
func (s *Session) UpdateEdge(edgeID string, update EdgeUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.edges {
		if s.edges[i].ID != edgeID {
			continue
		}
		if update.Source != nil {
			s.edges[i].Source = *update.Source
		}
		if update.Target != nil {
			s.edges[i].Target = *update.Target
		}
		if update.MarkerEnd != nil {
			s.edges[i].MarkerEnd = *update.MarkerEnd
		}
		if s.selectedEdge != nil && s.selectedEdge.ID == edgeID {
			snapshot := s.edges[i]
			s.selectedEdge = &snapshot
		}
		return
	}
}

// SaveFlow 로컬 상태 영속화. 바인딩된 플로우가 있으면 update, 없으면 create.
// 저장소 실패 시 로컬 상태는 그대로 유지되고 에러가 전파된다.
func (s *Session) SaveFlow(ctx context.Context, name, description string) (*models.Flow, error) {
	s.mu.Lock()
	nodes := make([]models.Node, len(s.nodes))
	copy(nodes, s.nodes)
	edges := make([]models.Edge, len(s.edges))
	copy(edges, s.edges)
	bound := s.selectedFlow
	weatherType := s.weatherType
	s.mu.Unlock()

	var saved *models.Flow
	var err error
	if bound != nil {
		saved, err = s.repo.Update(ctx, bound.ID, &database.UpdatePatch{
			Name:        name,
			Description: description,
			Nodes:       nodes,
			Edges:       edges,
		})
	} else {
		saved, err = s.repo.Create(ctx, &models.FlowDraft{
			Name:        name,
			Description: description,
			WeatherType: weatherType,
			Nodes:       nodes,
			Edges:       edges,
		})
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selectedFlow = saved
	s.mu.Unlock()
	return saved, nil
}

// LoadFlow 플로우 로드. 로컬 노드/엣지를 통째로 교체하고 선택을 초기화한다.
// 저장소 실패 시 로컬 상태는 변경되지 않는다.
func (s *Session) LoadFlow(ctx context.Context, flowID string) error {
	flow, err := s.repo.GetByID(ctx, flowID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make([]models.Node, len(flow.Nodes))
	copy(s.nodes, flow.Nodes)
	s.edges = make([]models.Edge, len(flow.Edges))
	copy(s.edges, flow.Edges)
	for i := range s.nodes {
		s.nodes[i].Data.Editing = false
	}
	s.weatherType = flow.WeatherType
	s.selectedFlow = flow
	s.selectedNode = nil
	s.selectedEdge = nil
	return nil
}

// ResetFlow 모든 로컬 상태를 초기 조건으로 되돌린다. 항상 성공.
func (s *Session) ResetFlow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = nil
	s.edges = nil
	s.selectedFlow = nil
	s.selectedNode = nil
	s.selectedEdge = nil
}
