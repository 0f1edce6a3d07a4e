// Package main provides the bracket-predictor CLI: scan a bracket page,
// run prediction passes round by round, and inspect the prediction log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/csmajors/bracket-predictor/internal/config"
	"github.com/csmajors/bracket-predictor/internal/engine"
	"github.com/csmajors/bracket-predictor/internal/extract"
	"github.com/csmajors/bracket-predictor/internal/llm"
	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/predict"
	"github.com/csmajors/bracket-predictor/internal/search"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "predictor-cli",
		Short: "Bracket predictor CLI tools",
	}

	root.AddCommand(scanCmd())
	root.AddCommand(predictCmd())
	root.AddCommand(logsCmd())
	root.AddCommand(checkCmd())
	return root
}

func scanCmd() *cobra.Command {
	var url, file string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a bracket page and list the matches found",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(url, file)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Bracket page URL")
	cmd.Flags().StringVar(&file, "file", "", "Local HTML file instead of a URL")
	return cmd
}

func predictCmd() *cobra.Command {
	var url, file string
	var all bool

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Scan a bracket page and predict match winners",
		Long: `Scan a bracket page and predict winners one round at a time.
Each invocation predicts the lowest unpredicted round; pass --all to
keep going until every match is predicted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(url, file, all)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Bracket page URL")
	cmd.Flags().StringVar(&file, "file", "", "Local HTML file instead of a URL")
	cmd.Flags().BoolVar(&all, "all", false, "Predict every round, not just the next one")
	return cmd
}

func logsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent prediction log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configuration and provider availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	configPath := os.Getenv("PREDICTOR_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Development logger for CLI output
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

// loadPage resolves the --url/--file pair into a parsed document.
func loadPage(ctx context.Context, cfg *config.Config, url, file string) (*html.Node, string, error) {
	switch {
	case url != "" && file != "":
		return nil, "", fmt.Errorf("--url and --file are mutually exclusive")
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, "", fmt.Errorf("opening %s: %w", file, err)
		}
		defer f.Close()
		doc, err := extract.Parse(f)
		if err != nil {
			return nil, "", err
		}
		return doc, "file://" + file, nil
	case url != "":
		fetcher := extract.NewFetcher(cfg.Extract)
		doc, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, "", err
		}
		return doc, url, nil
	default:
		return nil, "", fmt.Errorf("one of --url or --file is required")
	}
}

func runScan(url, file string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext(logger)
	defer cancel()

	doc, source, err := loadPage(ctx, cfg, url, file)
	if err != nil {
		return err
	}

	extractor := extract.New(extract.DefaultHeuristics(), logger)
	matches := extractor.Scan(doc)

	fmt.Printf("%s: %d matches\n", source, len(matches))
	for _, m := range matches {
		fmt.Printf("  [%s] %s vs %s (%s, %s)\n", m.Round, m.Team1, m.Team2, m.Tournament, m.MatchType)
	}
	return nil
}

func runPredict(url, file string, all bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext(logger)
	defer cancel()

	doc, _, err := loadPage(ctx, cfg, url, file)
	if err != nil {
		return err
	}

	extractor := extract.New(extract.DefaultHeuristics(), logger)
	matches := extractor.Scan(doc)
	if len(matches) == 0 {
		return fmt.Errorf("no matches found on page")
	}

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

	settings, err := resolver.Effective(ctx)
	if err != nil {
		logger.Warn("loading stored settings, using config defaults", zap.Error(err))
	}

	clients := buildClients(cfg, settings, logger)
	searchCfg := cfg.Search
	searchCfg.APIKey = settings.SearchAPIKey
	searcher := search.NewClient(searchCfg)

	svc := predict.NewService(clients, searcher, resolver, cfg.LLM.RatePerMinute, cfg.LLM.RequestTimeout, logger)

	sink := &engine.ConsoleSink{Logger: logger, ShowConfidence: settings.ShowConfidence}
	eng := engine.New(svc.Predict, sink, logRepo, logger)

	for {
		summary, err := eng.RunPass(ctx, matches)
		if err != nil {
			return err
		}

		fmt.Printf("pass complete: %d predicted, %d failed\n", summary.Predicted, summary.Failed)
		if summary.NextRound == "" {
			break
		}
		if !all {
			fmt.Printf("next round: %s (re-run to continue)\n", summary.NextRound)
			break
		}
		// With --all a pass that predicts nothing will not progress, so
		// stop rather than hammer a failing provider.
		if summary.Predicted == 0 {
			return fmt.Errorf("no progress on round %s, stopping", summary.NextRound)
		}
	}
	return nil
}

func runLogs(limit int) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	logRepo := storage.NewLogRepository(db)
	entries, err := logRepo.List(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("listing logs: %w", err)
	}

	for _, e := range entries {
		if e.Error != nil {
			fmt.Printf("%s  %s vs %s  ERROR: %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Team1, e.Team2, *e.Error)
			continue
		}
		fmt.Printf("%s  %s vs %s  -> %s (%d%%, %s risk)\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Team1, e.Team2, e.PredictedWinner, e.Confidence, e.RiskLevel)
	}
	return nil
}

func runCheck() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	settings := model.Settings{
		CompletionAPIKey: cfg.LLM.OpenRouter.APIKey,
		SearchAPIKey:     cfg.Search.APIKey,
		ModelID:          cfg.LLM.OpenRouter.Model,
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Printf("database:    FAIL (%v)\n", err)
	} else {
		fmt.Println("database:    ok")
		resolver := storage.NewSettingsResolver(storage.NewSettingsRepository(db), settings)
		if effective, err := resolver.Effective(context.Background()); err == nil {
			settings = effective
		}
		db.Close()
	}

	clients := buildClients(cfg, settings, logger)
	if len(clients) == 0 {
		fmt.Println("completion:  NOT CONFIGURED (set llm.openrouter.api_key)")
	} else {
		for _, c := range clients {
			fmt.Printf("completion:  %s (%s)\n", c.ProviderName(), c.ModelName())
		}
	}

	searchCfg := cfg.Search
	searchCfg.APIKey = settings.SearchAPIKey
	if search.NewClient(searchCfg).Configured() {
		fmt.Println("search:      ok")
	} else {
		fmt.Println("search:      not configured (predictions run without web context)")
	}
	return nil
}

// buildClients mirrors the server wiring: ordered provider chain, empty-key
// providers skipped.
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
				continue
			}
			clients = append(clients, llm.NewOpenRouterClient(orCfg, cfg.LLM))
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey == "" {
				continue
			}
			clients = append(clients, llm.NewAnthropicClient(cfg.LLM.Anthropic, cfg.LLM))
		default:
			logger.Warn("unknown completion provider", zap.String("provider", name))
		}
	}
	return clients
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancelling...")
		cancel()
	}()
	return ctx, cancel
}
