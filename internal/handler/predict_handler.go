package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/predict"
)

// PredictHandler serves one-off single-match predictions, bypassing
// sessions and round gating.
type PredictHandler struct {
	service *predict.Service
	logger  *zap.Logger
}

// NewPredictHandler creates a PredictHandler.
func NewPredictHandler(service *predict.Service, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{service: service, logger: logger}
}

type predictRequest struct {
	Team1      string `json:"team1" binding:"required"`
	Team2      string `json:"team2" binding:"required"`
	Tournament string `json:"tournament"`
	MatchType  string `json:"match_type"`
}

// Predict runs a single prediction.
// Route: POST /api/v1/predict
func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team1 and team2 are required"})
		return
	}

	result, err := h.service.Predict(c.Request.Context(), model.PredictionRequest{
		Team1:      req.Team1,
		Team2:      req.Team2,
		Tournament: req.Tournament,
		MatchType:  req.MatchType,
	})
	if err != nil {
		if errors.Is(err, predict.ErrNoAPIKey) {
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("prediction failed",
			zap.String("team1", req.Team1),
			zap.String("team2", req.Team2),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
