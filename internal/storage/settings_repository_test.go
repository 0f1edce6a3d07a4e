package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/csmajors/bracket-predictor/internal/model"
)

func TestSettingsRepository_SetAndGet(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	if err := deps.settings.Set(ctx, KeyModelID, "anthropic/claude-3.5-sonnet"); err != nil {
		t.Fatalf("setting value: %v", err)
	}

	got, err := deps.settings.Get(ctx, KeyModelID)
	if err != nil {
		t.Fatalf("getting value: %v", err)
	}
	if got != "anthropic/claude-3.5-sonnet" {
		t.Errorf("expected stored model id, got %q", got)
	}
}

func TestSettingsRepository_GetMissing(t *testing.T) {
	deps := setupTestDB(t)

	_, err := deps.settings.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsRepository_SetOverwrites(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	if err := deps.settings.Set(ctx, KeyAutoPredict, "false"); err != nil {
		t.Fatalf("setting value: %v", err)
	}
	if err := deps.settings.Set(ctx, KeyAutoPredict, "true"); err != nil {
		t.Fatalf("overwriting value: %v", err)
	}

	got, err := deps.settings.Get(ctx, KeyAutoPredict)
	if err != nil {
		t.Fatalf("getting value: %v", err)
	}
	if got != "true" {
		t.Errorf("expected upserted value 'true', got %q", got)
	}

	all, err := deps.settings.All(ctx)
	if err != nil {
		t.Fatalf("listing settings: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected single key after upsert, got %d", len(all))
	}
}

func TestSettingsResolver_StoredValuesOverrideDefaults(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	defaults := model.Settings{
		CompletionAPIKey: "config-key",
		ModelID:          "config-model",
		ShowConfidence:   true,
		IncludeRankings:  true,
	}
	resolver := NewSettingsResolver(deps.settings, defaults)

	// Nothing stored yet: defaults pass through.
	settings, err := resolver.Effective(ctx)
	if err != nil {
		t.Fatalf("resolving settings: %v", err)
	}
	if settings != defaults {
		t.Errorf("expected defaults, got %+v", settings)
	}

	// Store overrides for a subset of keys.
	if err := deps.settings.Set(ctx, KeyCompletionAPIKey, "stored-key"); err != nil {
		t.Fatalf("setting key: %v", err)
	}
	if err := deps.settings.Set(ctx, KeyIncludeRankings, "false"); err != nil {
		t.Fatalf("setting toggle: %v", err)
	}

	settings, err = resolver.Effective(ctx)
	if err != nil {
		t.Fatalf("resolving settings: %v", err)
	}
	if settings.CompletionAPIKey != "stored-key" {
		t.Errorf("expected stored key to win, got %q", settings.CompletionAPIKey)
	}
	if settings.IncludeRankings {
		t.Error("expected stored toggle to win")
	}
	// Untouched fields keep their defaults.
	if settings.ModelID != "config-model" || !settings.ShowConfidence {
		t.Errorf("expected untouched defaults preserved, got %+v", settings)
	}
}

func TestSettingsResolver_EmptyStoredValueIgnored(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	resolver := NewSettingsResolver(deps.settings, model.Settings{CompletionAPIKey: "config-key"})

	// An empty stored key must not blank out the config default.
	if err := deps.settings.Set(ctx, KeyCompletionAPIKey, ""); err != nil {
		t.Fatalf("setting key: %v", err)
	}

	settings, err := resolver.Effective(ctx)
	if err != nil {
		t.Fatalf("resolving settings: %v", err)
	}
	if settings.CompletionAPIKey != "config-key" {
		t.Errorf("expected config default retained, got %q", settings.CompletionAPIKey)
	}
}
