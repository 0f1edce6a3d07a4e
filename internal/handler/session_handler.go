package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/engine"
	"github.com/csmajors/bracket-predictor/internal/extract"
	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/predict"
)

// SessionHandler manages page sessions: scan a bracket page, run round-gated
// prediction passes against it, and expose the status board.
type SessionHandler struct {
	fetcher   *extract.Fetcher
	extractor *extract.Extractor
	sessions  *engine.Manager
	settings  predict.SettingsSource
	logger    *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(fetcher *extract.Fetcher, extractor *extract.Extractor, sessions *engine.Manager, settings predict.SettingsSource, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		fetcher:   fetcher,
		extractor: extractor,
		sessions:  sessions,
		settings:  settings,
		logger:    logger,
	}
}

type createSessionRequest struct {
	URL string `json:"url" binding:"required"`
}

// Create fetches and scans a bracket page, then opens a session for it.
// Route: POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be http(s)"})
		return
	}

	// The session opens before the fetch so its board can report the
	// scanning phase; a failed fetch leaves it in the error state, still
	// addressable for a rescan.
	session := h.sessions.Create(req.URL, nil)
	session.Board().PassStatusChanged(model.PassScanning, "")

	doc, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		session.Board().PassStatusChanged(model.PassError, "")
		h.logger.Warn("fetching bracket page", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "fetching page: " + err.Error(),
			"session_id": session.ID,
		})
		return
	}

	session.Replace(h.extractor.Scan(doc))
	session.Board().PassStatusChanged(model.PassIdle, "")

	// With auto-predict on, the first pass starts immediately in the
	// background; the board endpoint picks up results as they settle.
	if settings, err := h.settings.Effective(c.Request.Context()); err == nil && settings.AutoPredict {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := session.Engine().RunPass(ctx, session.Descriptors()); err != nil {
				h.logger.Warn("auto-predict pass", zap.String("session", session.ID), zap.Error(err))
			}
		}()
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"url":        session.URL,
		"matches":    session.Descriptors(),
	})
}

// Predict runs exactly one round-gated prediction pass for the session.
// Callers invoke it repeatedly to advance round by round.
// Route: POST /api/v1/sessions/:id/predict
func (h *SessionHandler) Predict(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	summary, err := session.Engine().RunPass(c.Request.Context(), session.Descriptors())
	if err != nil {
		h.logger.Error("prediction pass", zap.String("session", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction pass failed"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Rescan refreshes the session's descriptors from a fresh fetch, keeping
// the session's prediction cache.
// Route: POST /api/v1/sessions/:id/rescan
func (h *SessionHandler) Rescan(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	session.Board().PassStatusChanged(model.PassScanning, "")

	doc, err := h.fetcher.Fetch(c.Request.Context(), session.URL)
	if err != nil {
		session.Board().PassStatusChanged(model.PassError, "")
		c.JSON(http.StatusBadGateway, gin.H{"error": "fetching page: " + err.Error()})
		return
	}

	session.Replace(h.extractor.Scan(doc))
	session.Board().PassStatusChanged(model.PassIdle, "")
	c.JSON(http.StatusOK, gin.H{"matches": session.Descriptors()})
}

// Get returns the session's descriptors and the status board.
// Route: GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	states, status, label := session.Board().Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"url":        session.URL,
		"created_at": session.CreatedAt,
		"status":     status,
		"round":      label,
		"matches":    session.Descriptors(),
		"states":     states,
	})
}
