package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/pkg/database"
	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// FlowStore 플로우 핸들러가 의존하는 저장소 계약
type FlowStore interface {
	Create(ctx context.Context, draft *models.FlowDraft) (*models.Flow, error)
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	ListByType(ctx context.Context, weatherType models.WeatherType) ([]models.Flow, error)
	Update(ctx context.Context, id string, patch *database.UpdatePatch) (*models.Flow, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteNode(ctx context.Context, flowID, nodeID string) (*models.Flow, error)
}

// FlowHandler 플로우 API 핸들러
type FlowHandler struct {
	flows  FlowStore
	logger *slog.Logger
}

// NewFlowHandler 핸들러 생성
func NewFlowHandler(flows FlowStore) *FlowHandler {
	return &FlowHandler{
		flows:  flows,
		logger: slog.Default(),
	}
}

// SaveFlow POST /flow/save
func (h *FlowHandler) SaveFlow(c *gin.Context) {
	var draft models.FlowDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	flow, err := h.flows.Create(c.Request.Context(), &draft)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.APIResponse[*models.Flow]{
		Success:   true,
		Data:      flow,
		Message:   "Flow saved successfully",
		RequestID: middleware.GetRequestID(c),
	})
}

// LoadFlowsByType GET /flow/load/:weatherType
func (h *FlowHandler) LoadFlowsByType(c *gin.Context) {
	weatherType := models.WeatherType(c.Param("weatherType"))

	flows, err := h.flows.ListByType(c.Request.Context(), weatherType)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponse(c, flows)
}

// GetFlow GET /flow/:id
func (h *FlowHandler) GetFlow(c *gin.Context) {
	flow, err := h.flows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponse(c, flow)
}

// UpdateFlow PUT /flow/update/:id
func (h *FlowHandler) UpdateFlow(c *gin.Context) {
	var patch database.UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	flow, err := h.flows.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponse(c, flow)
}

// DeleteFlow DELETE /flow/delete/:id
func (h *FlowHandler) DeleteFlow(c *gin.Context) {
	id := c.Param("id")

	if err := h.flows.DeleteByID(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}

	h.logger.Info("Flow deleted", "flow_id", id)
	c.JSON(http.StatusOK, types.APIResponse[any]{
		Success:   true,
		Message:   "Flow deleted successfully",
		RequestID: middleware.GetRequestID(c),
	})
}

// DeleteNode PUT /flow/:id/delete-node/:nodeId
// 노드와 해당 노드를 참조하는 모든 엣지를 함께 제거한다.
func (h *FlowHandler) DeleteNode(c *gin.Context) {
	flow, err := h.flows.DeleteNode(c.Request.Context(), c.Param("id"), c.Param("nodeId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponse(c, flow)
}
