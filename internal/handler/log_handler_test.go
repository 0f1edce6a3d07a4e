package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/engine"
	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

func newLogRouter(t *testing.T) (*gin.Engine, storage.LogRepository) {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logs := storage.NewLogRepository(db)
	h := NewLogHandler(logs, zap.NewNop())

	router := gin.New()
	router.GET("/logs", h.List)
	router.DELETE("/logs", h.Clear)
	return router, logs
}

func seedLog(t *testing.T, logs storage.LogRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := &model.LogEntry{
			Team1:           "A1",
			Team2:           "B1",
			PredictedWinner: "A1",
			Confidence:      60,
			RiskLevel:       "medium",
			KeyFactors:      "[]",
		}
		if err := logs.Append(context.Background(), entry); err != nil {
			t.Fatalf("seeding log: %v", err)
		}
	}
}

func TestLogList(t *testing.T) {
	router, logs := newLogRouter(t)
	seedLog(t, logs, 3)

	req := httptest.NewRequest("GET", "/logs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Entries []model.LogEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(resp.Entries))
	}
}

func TestLogList_LimitApplied(t *testing.T) {
	router, logs := newLogRouter(t)
	seedLog(t, logs, 5)

	req := httptest.NewRequest("GET", "/logs?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Entries []model.LogEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(resp.Entries))
	}
}

func TestLogList_InvalidLimit(t *testing.T) {
	router, _ := newLogRouter(t)

	for _, q := range []string{"limit=0", "limit=1001", "limit=abc"} {
		req := httptest.NewRequest("GET", "/logs?"+q, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestLogClear(t *testing.T) {
	router, logs := newLogRouter(t)
	seedLog(t, logs, 2)

	req := httptest.NewRequest("DELETE", "/logs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	count, err := logs.Count(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty log, got %d entries", count)
	}
}

func TestAdminStats(t *testing.T) {
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logs := storage.NewLogRepository(db)
	seedLog(t, logs, 2)

	msg := "provider down"
	failed := &model.LogEntry{Team1: "C1", Team2: "D1", KeyFactors: "[]", Error: &msg}
	if err := logs.Append(context.Background(), failed); err != nil {
		t.Fatalf("seeding failed entry: %v", err)
	}

	sessions := engine.NewManager(func(sink engine.Sink) *engine.Engine {
		return engine.New(stubPredict, sink, nil, zap.NewNop())
	})
	sessions.Create("https://example.com", nil)

	h := NewAdminHandler(logs, sessions, zap.NewNop())
	router := gin.New()
	router.GET("/admin/stats", h.Stats)

	req := httptest.NewRequest("GET", "/admin/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Predictions struct {
			Total     int64 `json:"total"`
			Succeeded int64 `json:"succeeded"`
			Failed    int64 `json:"failed"`
		} `json:"predictions"`
		Sessions int `json:"sessions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Predictions.Total != 3 || resp.Predictions.Succeeded != 2 || resp.Predictions.Failed != 1 {
		t.Errorf("unexpected prediction stats %+v", resp.Predictions)
	}
	if resp.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", resp.Sessions)
	}
}
