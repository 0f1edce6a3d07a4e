package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/storage"
)

// SettingsHandler is the options-page analogue: read and update the
// runtime-editable settings record. API keys are write-only; reads report
// only whether a key is present.
type SettingsHandler struct {
	repo     storage.SettingsRepository
	resolver *storage.SettingsResolver
	logger   *zap.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(repo storage.SettingsRepository, resolver *storage.SettingsResolver, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{repo: repo, resolver: resolver, logger: logger}
}

// Get returns the effective settings with secrets masked.
// Route: GET /api/v1/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.resolver.Effective(c.Request.Context())
	if err != nil {
		h.logger.Error("resolving settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"completion_key_set": settings.CompletionAPIKey != "",
		"search_key_set":     settings.SearchAPIKey != "",
		"model_id":           settings.ModelID,
		"auto_predict":       settings.AutoPredict,
		"show_confidence":    settings.ShowConfidence,
		"include_rankings":   settings.IncludeRankings,
	})
}

type updateSettingsRequest struct {
	CompletionAPIKey *string `json:"completion_api_key"`
	SearchAPIKey     *string `json:"search_api_key"`
	ModelID          *string `json:"model_id"`
	AutoPredict      *bool   `json:"auto_predict"`
	ShowConfidence   *bool   `json:"show_confidence"`
	IncludeRankings  *bool   `json:"include_rankings"`
}

// Update persists the provided fields; absent fields are left untouched.
// Provider API key changes take effect on the next restart; the toggles
// apply immediately.
// Route: PUT /api/v1/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	ctx := c.Request.Context()
	updates := map[string]*string{
		storage.KeyCompletionAPIKey: req.CompletionAPIKey,
		storage.KeySearchAPIKey:     req.SearchAPIKey,
		storage.KeyModelID:          req.ModelID,
	}
	for key, value := range updates {
		if value == nil {
			continue
		}
		if err := h.repo.Set(ctx, key, *value); err != nil {
			h.logger.Error("saving setting", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	boolUpdates := map[string]*bool{
		storage.KeyAutoPredict:     req.AutoPredict,
		storage.KeyShowConfidence:  req.ShowConfidence,
		storage.KeyIncludeRankings: req.IncludeRankings,
	}
	for key, value := range boolUpdates {
		if value == nil {
			continue
		}
		if err := h.repo.Set(ctx, key, strconv.FormatBool(*value)); err != nil {
			h.logger.Error("saving setting", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	h.Get(c)
}
