package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// ErrNotFound is returned when a settings key has no stored value.
var ErrNotFound = errors.New("setting not found")

// Recognized settings keys. The stored values override config-file defaults.
const (
	KeyCompletionAPIKey = "completion_api_key"
	KeySearchAPIKey     = "search_api_key"
	KeyModelID          = "model_id"
	KeyAutoPredict      = "auto_predict"
	KeyShowConfidence   = "show_confidence"
	KeyIncludeRankings  = "include_rankings"
)

// SettingsRepository is a flat namespaced key/value store for the
// runtime-editable settings record.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

type sqliteSettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates the SQLite-backed SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &sqliteSettingsRepository{db: db}
}

func (r *sqliteSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

func (r *sqliteSettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (r *sqliteSettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, "SELECT key, value FROM settings"); err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// SettingsResolver merges stored settings over config-file defaults. It is
// the predict.SettingsSource used in production wiring.
type SettingsResolver struct {
	repo     SettingsRepository
	defaults model.Settings
}

// NewSettingsResolver creates a resolver with config-derived defaults.
func NewSettingsResolver(repo SettingsRepository, defaults model.Settings) *SettingsResolver {
	return &SettingsResolver{repo: repo, defaults: defaults}
}

// Effective returns defaults overlaid with whatever the store holds.
func (s *SettingsResolver) Effective(ctx context.Context) (model.Settings, error) {
	out := s.defaults

	stored, err := s.repo.All(ctx)
	if err != nil {
		return out, err
	}

	if v, ok := stored[KeyCompletionAPIKey]; ok && v != "" {
		out.CompletionAPIKey = v
	}
	if v, ok := stored[KeySearchAPIKey]; ok && v != "" {
		out.SearchAPIKey = v
	}
	if v, ok := stored[KeyModelID]; ok && v != "" {
		out.ModelID = v
	}
	if v, ok := stored[KeyAutoPredict]; ok {
		out.AutoPredict = parseBool(v, out.AutoPredict)
	}
	if v, ok := stored[KeyShowConfidence]; ok {
		out.ShowConfidence = parseBool(v, out.ShowConfidence)
	}
	if v, ok := stored[KeyIncludeRankings]; ok {
		out.IncludeRankings = parseBool(v, out.IncludeRankings)
	}
	return out, nil
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
