// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/config"
	"github.com/csmajors/bracket-predictor/internal/engine"
	"github.com/csmajors/bracket-predictor/internal/extract"
	"github.com/csmajors/bracket-predictor/internal/handler"
	"github.com/csmajors/bracket-predictor/internal/middleware"
	"github.com/csmajors/bracket-predictor/internal/predict"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

// Deps carries the wired dependencies the routes need.
type Deps struct {
	Fetcher      *extract.Fetcher
	Extractor    *extract.Extractor
	Sessions     *engine.Manager
	Predictor    *predict.Service
	LogRepo      storage.LogRepository
	SettingsRepo storage.SettingsRepository
	Resolver     *storage.SettingsResolver
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	sessionHandler := handler.NewSessionHandler(deps.Fetcher, deps.Extractor, deps.Sessions, deps.Resolver, logger)
	predictHandler := handler.NewPredictHandler(deps.Predictor, logger)
	logHandler := handler.NewLogHandler(deps.LogRepo, logger)
	settingsHandler := handler.NewSettingsHandler(deps.SettingsRepo, deps.Resolver, logger)
	adminHandler := handler.NewAdminHandler(deps.LogRepo, deps.Sessions, logger)

	// Public endpoint (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/sessions", sessionHandler.Create)
		authed.GET("/sessions/:id", sessionHandler.Get)
		authed.POST("/sessions/:id/predict", sessionHandler.Predict)
		authed.POST("/sessions/:id/rescan", sessionHandler.Rescan)

		authed.POST("/predict", predictHandler.Predict)

		authed.GET("/logs", logHandler.List)
		authed.DELETE("/logs", logHandler.Clear)

		authed.GET("/settings", settingsHandler.Get)
		authed.PUT("/settings", settingsHandler.Update)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
	}
}
