package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

func newSettingsRouter(t *testing.T, defaults model.Settings) *gin.Engine {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := storage.NewSettingsRepository(db)
	resolver := storage.NewSettingsResolver(repo, defaults)
	h := NewSettingsHandler(repo, resolver, zap.NewNop())

	router := gin.New()
	router.GET("/settings", h.Get)
	router.PUT("/settings", h.Update)
	return router
}

func TestSettingsGet_MasksSecrets(t *testing.T) {
	router := newSettingsRouter(t, model.Settings{
		CompletionAPIKey: "sk-secret",
		ModelID:          "anthropic/claude-3.5-sonnet",
		ShowConfidence:   true,
	})

	req := httptest.NewRequest("GET", "/settings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if strings.Contains(w.Body.String(), "sk-secret") {
		t.Error("API key leaked in settings response")
	}

	var resp struct {
		CompletionKeySet bool   `json:"completion_key_set"`
		SearchKeySet     bool   `json:"search_key_set"`
		ModelID          string `json:"model_id"`
		ShowConfidence   bool   `json:"show_confidence"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.CompletionKeySet {
		t.Error("expected completion_key_set true")
	}
	if resp.SearchKeySet {
		t.Error("expected search_key_set false")
	}
	if resp.ModelID != "anthropic/claude-3.5-sonnet" {
		t.Errorf("unexpected model id %q", resp.ModelID)
	}
	if !resp.ShowConfidence {
		t.Error("expected show_confidence true")
	}
}

func TestSettingsUpdate_PartialFields(t *testing.T) {
	router := newSettingsRouter(t, model.Settings{ShowConfidence: true, IncludeRankings: true})

	body := `{"search_api_key": "tvly-new", "include_rankings": false}`
	req := httptest.NewRequest("PUT", "/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		SearchKeySet    bool `json:"search_key_set"`
		ShowConfidence  bool `json:"show_confidence"`
		IncludeRankings bool `json:"include_rankings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.SearchKeySet {
		t.Error("expected search key stored")
	}
	if resp.IncludeRankings {
		t.Error("expected include_rankings updated to false")
	}
	// Field absent from the payload keeps its default.
	if !resp.ShowConfidence {
		t.Error("expected show_confidence untouched")
	}
}

func TestSettingsUpdate_InvalidPayload(t *testing.T) {
	router := newSettingsRouter(t, model.Settings{})

	req := httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"auto_predict": "yes"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for type mismatch, got %d", w.Code)
	}
}
