// Package predict composes search context and completion providers into a
// single "predict winner of match(team1, team2)" operation, and parses the
// free-form model output into a structured prediction record.
package predict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/csmajors/bracket-predictor/internal/llm"
	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/search"
)

// ErrNoAPIKey is returned before any network call when no completion
// provider is configured.
var ErrNoAPIKey = errors.New("completion API key not configured")

// SettingsSource yields the effective runtime settings (stored overrides
// merged over config defaults).
type SettingsSource interface {
	Effective(ctx context.Context) (model.Settings, error)
}

// staticSettings is a SettingsSource for contexts with no settings store.
type staticSettings struct{ s model.Settings }

func (s staticSettings) Effective(context.Context) (model.Settings, error) { return s.s, nil }

// StaticSettings wraps a fixed settings value as a SettingsSource.
func StaticSettings(s model.Settings) SettingsSource { return staticSettings{s: s} }

// Service implements the prediction operation. Completion calls are guarded
// by a shared rate limiter (paid API) and an explicit per-call timeout; the
// original design let a stuck provider hang a match forever, which is an
// oversight this implementation does not reproduce.
type Service struct {
	clients  []llm.Client
	searcher *search.Client
	settings SettingsSource
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService creates a Service with an ordered list of completion clients.
// The first client is primary, the rest are fallbacks.
func NewService(
	clients []llm.Client,
	searcher *search.Client,
	settings SettingsSource,
	ratePerMinute int,
	timeout time.Duration,
	logger *zap.Logger,
) *Service {
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &Service{
		clients:  clients,
		searcher: searcher,
		settings: settings,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1),
		timeout:  timeout,
		logger:   logger,
	}
}

// Predict runs the full prediction flow for one match. Search failures are
// swallowed (context is advisory); completion failures surface the provider
// message.
func (s *Service) Predict(ctx context.Context, req model.PredictionRequest) (*model.PredictionResult, error) {
	if len(s.clients) == 0 {
		return nil, ErrNoAPIKey
	}

	settings, err := s.settings.Effective(ctx)
	if err != nil {
		s.logger.Warn("loading settings, using defaults", zap.Error(err))
		settings = model.Settings{IncludeRankings: true}
	}

	var searchContext string
	if settings.IncludeRankings && s.searcher != nil && s.searcher.Configured() {
		searchContext = s.gatherContext(ctx, req)
	}

	userPrompt := buildUserPrompt(req, searchContext)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var lastErr error
	for i, client := range s.clients {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := client.Complete(callCtx, systemPrompt, userPrompt)
		cancel()

		if err != nil {
			lastErr = err
			if i < len(s.clients)-1 {
				s.logger.Warn("completion provider failed, trying next",
					zap.String("provider", client.ProviderName()),
					zap.Error(err),
				)
			}
			continue
		}

		return parseCompletion(text, req), nil
	}

	return nil, fmt.Errorf("all completion providers failed: %w", lastErr)
}

// gatherContext issues the advisory search queries: a site-scoped
// ranking/form query and an open head-to-head query. Each runs under the
// search client's own timeout; any failure degrades to less context.
func (s *Service) gatherContext(ctx context.Context, req model.PredictionRequest) string {
	var sections []string

	queries := []struct {
		label  string
		query  string
		scoped bool
	}{
		{"Rankings and form", fmt.Sprintf("%s %s CS2 team ranking recent form", req.Team1, req.Team2), true},
		{"Head to head", fmt.Sprintf("%s vs %s CS2 head to head results", req.Team1, req.Team2), false},
	}

	for _, q := range queries {
		resp, err := s.searcher.Search(ctx, q.query, q.scoped)
		if err != nil {
			s.logger.Debug("search query failed, proceeding without it",
				zap.String("query", q.query),
				zap.Error(err),
			)
			continue
		}
		if section := formatSection(q.label, resp); section != "" {
			sections = append(sections, section)
		}
	}

	return strings.Join(sections, "\n")
}

func formatSection(label string, resp *search.Response) string {
	var b strings.Builder
	if resp.Answer != "" {
		fmt.Fprintf(&b, "%s: %s\n", label, truncate(resp.Answer, snippetLimit))
	}
	for _, r := range resp.Results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, truncate(r.Content, snippetLimit))
	}
	return b.String()
}
