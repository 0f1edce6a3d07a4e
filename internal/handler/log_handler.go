package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/storage"
)

// LogHandler exposes the append-only prediction log.
type LogHandler struct {
	logs   storage.LogRepository
	logger *zap.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logs storage.LogRepository, logger *zap.Logger) *LogHandler {
	return &LogHandler{logs: logs, logger: logger}
}

// List returns recent log entries, newest first.
// Route: GET /api/v1/logs?limit=50
func (h *LogHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-1000"})
		return
	}

	entries, err := h.logs.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing log entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Clear deletes the whole log.
// Route: DELETE /api/v1/logs
func (h *LogHandler) Clear(c *gin.Context) {
	if err := h.logs.Clear(c.Request.Context()); err != nil {
		h.logger.Error("clearing log", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
