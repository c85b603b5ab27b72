package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weatherdeck/weatherdeck/internal/services"
	"github.com/weatherdeck/weatherdeck/pkg/config"
	"github.com/weatherdeck/weatherdeck/pkg/database"
	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// fakeReadingStore 인메모리 측정값 저장소
type fakeReadingStore struct {
	mu       sync.Mutex
	readings []models.Reading
}

func (f *fakeReadingStore) Insert(ctx context.Context, reading *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, *reading)
	return nil
}

func (f *fakeReadingStore) Historical(ctx context.Context, q database.HistoricalQuery) ([]models.Reading, types.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 100
	}

	filtered := []models.Reading{}
	for _, r := range f.readings {
		if q.StartDate != nil && q.EndDate != nil {
			if r.Timestamp.Before(*q.StartDate) || r.Timestamp.After(*q.EndDate) {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Timestamp.After(filtered[j].Timestamp) })

	total := int64(len(filtered))
	start := (q.Page - 1) * q.Limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + q.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], types.Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: database.TotalPages(total, q.Limit),
	}, nil
}

func (f *fakeReadingStore) Latest(ctx context.Context) (*models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.readings) == 0 {
		return nil, types.NewNotFoundError("reading", "latest")
	}
	latest := f.readings[0]
	for _, r := range f.readings[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return &latest, nil
}

func (f *fakeReadingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings)
}

func setupSensorRouter(store ReadingStore, sim *services.Simulator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSensorHandler(store, sim, nil, nil)

	router.GET("/sse", h.StreamSSE)
	api := router.Group("/api")
	api.POST("/control", h.Control)
	api.GET("/historical", h.Historical)
	api.GET("/status", h.Status)
	api.GET("/latest", h.Latest)
	return router
}

func TestControlStartStop(t *testing.T) {
	sim := services.NewSimulator(nil)
	router := setupSensorRouter(&fakeReadingStore{}, sim)

	tests := []struct {
		action     string
		wantStatus string
	}{
		{"start", "started"},
		{"start", "already-running"},
		{"stop", "stopped"},
		{"stop", "already-stopped"},
	}

	for _, tt := range tests {
		w := doJSON(t, router, http.MethodPost, "/api/control", map[string]string{"action": tt.action})
		if w.Code != http.StatusOK {
			t.Fatalf("action %q: expected status 200, got %d", tt.action, w.Code)
		}

		var result types.ControlResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("action %q: failed to decode response: %v", tt.action, err)
		}
		if result.Status != tt.wantStatus {
			t.Errorf("action %q: expected status %q, got %q", tt.action, tt.wantStatus, result.Status)
		}
	}
}

func TestControlInvalidAction(t *testing.T) {
	router := setupSensorRouter(&fakeReadingStore{}, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodPost, "/api/control", map[string]string{"action": "pause"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	resp := decodeResponse[any](t, w)
	if resp.Error == nil || resp.Error.Code != types.ErrCodeInvalidAction {
		t.Errorf("expected invalid action error code, got %+v", resp.Error)
	}
}

func TestControlMissingAction(t *testing.T) {
	router := setupSensorRouter(&fakeReadingStore{}, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodPost, "/api/control", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestStatusReflectsSimulator(t *testing.T) {
	sim := services.NewSimulator(nil)
	router := setupSensorRouter(&fakeReadingStore{}, sim)

	w := doJSON(t, router, http.MethodGet, "/api/status", nil)
	var status types.SimulatorStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.IsRunning {
		t.Error("expected isRunning false before start")
	}

	sim.Start()
	w = doJSON(t, router, http.MethodGet, "/api/status", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if !status.IsRunning {
		t.Error("expected isRunning true after start")
	}
}

func TestStreamSSERejectedWhenStopped(t *testing.T) {
	router := setupSensorRouter(&fakeReadingStore{}, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodGet, "/sse", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if body := w.Body.String(); body != "Simulator is not running" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestStreamSSEEmitsReadings(t *testing.T) {
	cfg := config.DefaultSimulatorConfig()
	cfg.TickMin = 5 * time.Millisecond
	cfg.TickMax = 10 * time.Millisecond
	sim := services.NewSimulator(cfg)
	sim.Start()

	store := &fakeReadingStore{}
	router := setupSensorRouter(store, sim)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not terminate after context cancellation")
	}

	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("unexpected content type: %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "data:") {
		t.Error("expected at least one SSE data frame")
	}
	if store.count() < 1 {
		t.Error("expected emitted readings to be persisted")
	}

	// 발행된 측정값 범위 확인
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, r := range store.readings {
		if r.Temperature < 10 || r.Temperature > 40 {
			t.Errorf("temperature out of range: %v", r.Temperature)
		}
		if r.Humidity < 30 || r.Humidity > 80 {
			t.Errorf("humidity out of range: %v", r.Humidity)
		}
	}
}

func TestStreamSSEStopsEmittingWhenStopped(t *testing.T) {
	cfg := config.DefaultSimulatorConfig()
	cfg.TickMin = 5 * time.Millisecond
	cfg.TickMax = 10 * time.Millisecond
	sim := services.NewSimulator(cfg)
	sim.Start()

	store := &fakeReadingStore{}
	router := setupSensorRouter(store, sim)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	sim.Stop()
	time.Sleep(30 * time.Millisecond)
	countAfterStop := store.count()
	time.Sleep(50 * time.Millisecond)

	// 정지 이후에는 새 측정값이 생성되지 않는다. 연결은 아직 열려 있다.
	if got := store.count(); got != countAfterStop {
		t.Errorf("expected no new readings after stop, got %d -> %d", countAfterStop, got)
	}
	select {
	case <-done:
		t.Fatal("expected stream to stay open after stop")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not terminate after context cancellation")
	}
}

func TestHistoricalPagination(t *testing.T) {
	store := &fakeReadingStore{}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		store.readings = append(store.readings, models.Reading{
			ID:          fmt.Sprintf("r%d", i),
			Temperature: 20,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	router := setupSensorRouter(store, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodGet, "/api/historical?page=2&limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp HistoricalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Data) != 10 {
		t.Fatalf("expected 10 records on page 2, got %d", len(resp.Data))
	}
	if resp.Pagination.Page != 2 || resp.Pagination.Limit != 10 {
		t.Errorf("unexpected pagination: %+v", resp.Pagination)
	}
	if resp.Pagination.Total != 25 || resp.Pagination.TotalPages != 3 {
		t.Errorf("expected total 25 / 3 pages, got %+v", resp.Pagination)
	}
	// 최신순 정렬: 페이지 2의 첫 항목은 11번째로 최신인 r14
	if resp.Data[0].ID != "r14" {
		t.Errorf("expected first record r14, got %q", resp.Data[0].ID)
	}
	if !resp.Data[0].Timestamp.After(resp.Data[9].Timestamp) {
		t.Error("expected records sorted newest first")
	}
}

func TestHistoricalDateRange(t *testing.T) {
	store := &fakeReadingStore{}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		store.readings = append(store.readings, models.Reading{
			ID:        fmt.Sprintf("r%d", i),
			Timestamp: base.AddDate(0, 0, i),
		})
	}

	router := setupSensorRouter(store, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodGet, "/api/historical?startDate=2026-03-03&endDate=2026-03-05", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp HistoricalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 3 {
		t.Errorf("expected 3 records in range, got %d", len(resp.Data))
	}
}

func TestHistoricalInvalidDate(t *testing.T) {
	router := setupSensorRouter(&fakeReadingStore{}, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodGet, "/api/historical?startDate=notadate&endDate=2026-03-05", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestLatestFallsBackToStore(t *testing.T) {
	store := &fakeReadingStore{}
	store.readings = append(store.readings, models.Reading{ID: "r1", Temperature: 21.5, Timestamp: time.Now().UTC()})

	router := setupSensorRouter(store, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodGet, "/api/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	resp := decodeResponse[models.Reading](t, w)
	if resp.Data.ID != "r1" {
		t.Errorf("expected latest reading r1, got %q", resp.Data.ID)
	}
}

func TestLatestEmptyStore(t *testing.T) {
	router := setupSensorRouter(&fakeReadingStore{}, services.NewSimulator(nil))

	w := doJSON(t, router, http.MethodGet, "/api/latest", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
