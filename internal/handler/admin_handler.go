package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/engine"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	logs     storage.LogRepository
	sessions *engine.Manager
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(logs storage.LogRepository, sessions *engine.Manager, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{logs: logs, sessions: sessions, logger: logger}
}

// Stats returns prediction counts and session statistics.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.logs.Count(ctx)
	if err != nil {
		h.logger.Error("counting log entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	failed, err := h.logs.CountErrors(ctx)
	if err != nil {
		h.logger.Error("counting failed entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": gin.H{
			"total":     total,
			"succeeded": total - failed,
			"failed":    failed,
		},
		"sessions": h.sessions.Count(),
	})
}
