package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// LogRepository persists the append-only prediction log. Entries are never
// updated after insertion.
type LogRepository interface {
	Append(ctx context.Context, entry *model.LogEntry) error
	List(ctx context.Context, limit int) ([]model.LogEntry, error)
	Count(ctx context.Context) (int64, error)
	CountErrors(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type sqliteLogRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates the SQLite-backed LogRepository.
func NewLogRepository(db *sqlx.DB) LogRepository {
	return &sqliteLogRepository{db: db}
}

func (r *sqliteLogRepository) Append(ctx context.Context, entry *model.LogEntry) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO prediction_log (team1, team2, round, predicted_winner, confidence, risk_level, key_factors, brief_analysis, error)
		VALUES (:team1, :team2, :round, :predicted_winner, :confidence, :risk_level, :key_factors, :brief_analysis, :error)
	`, entry)
	if err != nil {
		return fmt.Errorf("appending log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

func (r *sqliteLogRepository) List(ctx context.Context, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []model.LogEntry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM prediction_log ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	return entries, nil
}

func (r *sqliteLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM prediction_log")
	return count, err
}

func (r *sqliteLogRepository) CountErrors(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM prediction_log WHERE error IS NOT NULL")
	return count, err
}

func (r *sqliteLogRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM prediction_log"); err != nil {
		return fmt.Errorf("clearing log: %w", err)
	}
	return nil
}
