// Package main is the entry point for the bracket-predictor HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/config"
	"github.com/csmajors/bracket-predictor/internal/engine"
	"github.com/csmajors/bracket-predictor/internal/extract"
	"github.com/csmajors/bracket-predictor/internal/llm"
	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/predict"
	"github.com/csmajors/bracket-predictor/internal/search"
	"github.com/csmajors/bracket-predictor/internal/server"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("PREDICTOR_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stdout/stderr; not a real problem.
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	logRepo := storage.NewLogRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)
	resolver := storage.NewSettingsResolver(settingsRepo, model.Settings{
		CompletionAPIKey: cfg.LLM.OpenRouter.APIKey,
		SearchAPIKey:     cfg.Search.APIKey,
		ModelID:          cfg.LLM.OpenRouter.Model,
		AutoPredict:      cfg.Predict.AutoPredict,
		ShowConfidence:   cfg.Predict.ShowConfidence,
		IncludeRankings:  cfg.Predict.IncludeRankings,
	})

	// Stored API keys and model override the config file. Clients are built
	// once at startup; key changes in the settings store apply on restart.
	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Second)
	settings, err := resolver.Effective(startCtx)
	startCancel()
	if err != nil {
		logger.Warn("loading stored settings, using config defaults", zap.Error(err))
		settings = model.Settings{
			CompletionAPIKey: cfg.LLM.OpenRouter.APIKey,
			SearchAPIKey:     cfg.Search.APIKey,
			ModelID:          cfg.LLM.OpenRouter.Model,
			IncludeRankings:  cfg.Predict.IncludeRankings,
		}
	}

	clients := buildClients(cfg, settings, logger)
	searchCfg := cfg.Search
	searchCfg.APIKey = settings.SearchAPIKey
	searcher := search.NewClient(searchCfg)

	svc := predict.NewService(clients, searcher, resolver, cfg.LLM.RatePerMinute, cfg.LLM.RequestTimeout, logger)

	sessions := engine.NewManager(func(sink engine.Sink) *engine.Engine {
		return engine.New(svc.Predict, sink, logRepo, logger)
	})

	deps := server.Deps{
		Fetcher:      extract.NewFetcher(cfg.Extract),
		Extractor:    extract.New(extract.DefaultHeuristics(), logger),
		Sessions:     sessions,
		Predictor:    svc,
		LogRepo:      logRepo,
		SettingsRepo: settingsRepo,
		Resolver:     resolver,
	}

	srv := server.New(cfg, deps, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	logger.Info("server started",
		zap.String("address", cfg.Server.Address()),
		zap.Int("completion_providers", len(clients)),
		zap.Bool("search_configured", searcher.Configured()),
	)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

// buildClients assembles the ordered completion provider chain. Providers
// without an API key are skipped; an empty chain makes the predict service
// fail fast with ErrNoAPIKey instead of erroring on the wire.
func buildClients(cfg *config.Config, settings model.Settings, logger *zap.Logger) []llm.Client {
	var clients []llm.Client
	for _, name := range cfg.LLM.ProviderOrder {
		switch name {
		case "openrouter":
			orCfg := cfg.LLM.OpenRouter
			orCfg.APIKey = settings.CompletionAPIKey
			if settings.ModelID != "" {
				orCfg.Model = settings.ModelID
			}
			if orCfg.APIKey == "" {
				logger.Warn("openrouter provider skipped, no API key")
				continue
			}
			clients = append(clients, llm.NewOpenRouterClient(orCfg, cfg.LLM))
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey == "" {
				logger.Warn("anthropic provider skipped, no API key")
				continue
			}
			clients = append(clients, llm.NewAnthropicClient(cfg.LLM.Anthropic, cfg.LLM))
		default:
			logger.Warn("unknown completion provider", zap.String("provider", name))
		}
	}
	return clients
}
