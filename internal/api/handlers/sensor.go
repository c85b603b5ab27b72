package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/internal/services"
	"github.com/weatherdeck/weatherdeck/pkg/database"
	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// ReadingStore 센서 핸들러가 의존하는 저장소 계약
type ReadingStore interface {
	Insert(ctx context.Context, reading *models.Reading) error
	Historical(ctx context.Context, q database.HistoricalQuery) ([]models.Reading, types.Pagination, error)
	Latest(ctx context.Context) (*models.Reading, error)
}

// SensorHandler 센서 스트림/히스토리 API 핸들러
type SensorHandler struct {
	readings ReadingStore
	sim      *services.Simulator
	kafka    *services.KafkaService // 선택적, nil 허용
	redis    *services.RedisService // 선택적, nil 허용
	logger   *slog.Logger
}

// NewSensorHandler 핸들러 생성
func NewSensorHandler(readings ReadingStore, sim *services.Simulator, kafka *services.KafkaService, redis *services.RedisService) *SensorHandler {
	return &SensorHandler{
		readings: readings,
		sim:      sim,
		kafka:    kafka,
		redis:    redis,
		logger:   slog.Default(),
	}
}

// StreamSSE GET /sse
// 시뮬레이터 정지 상태의 연결 시도는 스트림을 열지 않고 즉시 거부한다.
// 연결마다 자체 타이머를 가지며 연결 종료 시 타이머를 해제한다.
func (h *SensorHandler) StreamSSE(c *gin.Context) {
	if !h.sim.IsRunning() {
		c.String(http.StatusBadRequest, "Simulator is not running")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// 최초 1건 즉시 발행
	h.emit(c)

	timer := time.NewTimer(h.sim.NextTick())
	defer timer.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			// 정지 상태에서는 새 측정값을 생성하지 않는다. 연결은 유지된다.
			if h.sim.IsRunning() {
				h.emit(c)
			}
			timer.Reset(h.sim.NextTick())
		}
	}
}

// emit 측정값 1건 생성 + 영속화 + 스트림 전송. 영속화 실패는 스케줄을 멈추지 않는다.
func (h *SensorHandler) emit(c *gin.Context) {
	ctx := c.Request.Context()
	reading := h.sim.Generate()

	if err := h.readings.Insert(ctx, reading); err != nil {
		h.logger.Error("Failed to persist reading", "error", err)
	}
	if h.redis != nil {
		if err := h.redis.CacheReading(ctx, reading); err != nil {
			h.logger.Warn("Failed to cache reading", "error", err)
		}
	}
	if h.kafka != nil {
		if err := h.kafka.PublishReading(ctx, reading); err != nil {
			h.logger.Warn("Failed to publish reading", "error", err)
		}
	}

	if err := sse.Encode(c.Writer, sse.Event{Data: reading}); err != nil {
		return
	}
	c.Writer.Flush()
}

// ControlRequest 시뮬레이터 제어 요청
type ControlRequest struct {
	Action string `json:"action" binding:"required"`
}

// Control POST /api/control
// start/stop 모두 멱등: 이미 해당 상태면 already-* 상태를 보고한다.
func (h *SensorHandler) Control(c *gin.Context) {
	var req ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	switch req.Action {
	case "start":
		if h.sim.Start() {
			h.logger.Info("Simulator started")
			c.JSON(http.StatusOK, types.ControlResult{Status: "started", Message: "Simulator started"})
			return
		}
		c.JSON(http.StatusOK, types.ControlResult{Status: "already-running", Message: "Simulator already running"})
	case "stop":
		if h.sim.Stop() {
			h.logger.Info("Simulator stopped")
			c.JSON(http.StatusOK, types.ControlResult{Status: "stopped", Message: "Simulator stopped"})
			return
		}
		c.JSON(http.StatusOK, types.ControlResult{Status: "already-stopped", Message: "Simulator already stopped"})
	default:
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidAction, "Invalid action")
	}
}

// HistoricalResponse 히스토리 조회 응답
type HistoricalResponse struct {
	Data       []models.Reading `json:"data"`
	Pagination types.Pagination `json:"pagination"`
}

// Historical GET /api/historical
func (h *SensorHandler) Historical(c *gin.Context) {
	q := database.HistoricalQuery{Page: 1, Limit: 100}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		q.Limit = limit
	}

	startDate, endDate := c.Query("startDate"), c.Query("endDate")
	if startDate != "" && endDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeBadRequest, "invalid startDate")
			return
		}
		end, err := parseDate(endDate)
		if err != nil {
			middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeBadRequest, "invalid endDate")
			return
		}
		q.StartDate, q.EndDate = &start, &end
	}

	data, pagination, err := h.readings.Historical(c.Request.Context(), q)
	if err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusInternalServerError, types.ErrCodeDatabaseError, err.Error())
		return
	}

	c.JSON(http.StatusOK, HistoricalResponse{Data: data, Pagination: pagination})
}

// Status GET /api/status
func (h *SensorHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, types.SimulatorStatus{IsRunning: h.sim.IsRunning()})
}

// Latest GET /api/latest
// Redis 캐시 우선, 캐시 미스/장애 시 저장소에서 조회.
func (h *SensorHandler) Latest(c *gin.Context) {
	ctx := c.Request.Context()

	if h.redis != nil {
		if reading, err := h.redis.LatestReading(ctx); err == nil {
			middleware.SuccessResponse(c, reading)
			return
		}
	}

	reading, err := h.readings.Latest(ctx)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	middleware.SuccessResponse(c, reading)
}

// parseDate RFC3339 우선, 날짜만 있는 형식 허용
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
