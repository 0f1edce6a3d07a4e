// Package model defines the core data types for the bracket predictor.
// Structs carry two tag sets where they are persisted: `db:"..."` for sqlx
// row scanning and `json:"..."` for API responses.
package model

import (
	"strings"
	"time"
	"unicode"
)

// MatchDescriptor is one head-to-head matchup extracted from a bracket page.
// Descriptors are immutable and live only as long as the scan that produced
// them; identity across scans is carried by the derived ID.
type MatchDescriptor struct {
	ID         string `json:"id"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	Tournament string `json:"tournament"`
	MatchType  string `json:"match_type"`
	Round      string `json:"round"`
	RoundIndex int    `json:"round_index"`
}

// MatchID derives the stable descriptor ID from the two team names:
// lower-cased, non-alphanumerics stripped, order-sensitive. "A" vs "B" and
// "B" vs "A" are different matches because team1/team2 are positional.
func MatchID(team1, team2 string) string {
	var b strings.Builder
	for _, part := range []string{team1, "vs", team2} {
		for _, r := range strings.ToLower(part) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// PredictionRequest is the input to one prediction call.
type PredictionRequest struct {
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	Tournament string `json:"tournament"`
	MatchType  string `json:"match_type"`
}

// RiskLevel grades how volatile the model judges a matchup to be.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ValidRisk reports whether s is a recognized risk level.
func ValidRisk(s string) bool {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// WinnerUncertain is the sentinel winner when the model cannot pick a side.
const WinnerUncertain = "Uncertain"

// PredictionResult is the structured outcome of one prediction.
// PredictedWinner should equal Team1, Team2, or WinnerUncertain, and
// Confidence is always clamped to [0,100] — the parser guarantees both.
type PredictionResult struct {
	PredictedWinner string    `json:"predicted_winner"`
	Confidence      int       `json:"confidence"`
	PredictedScore  string    `json:"predicted_score,omitempty"`
	KeyFactors      []string  `json:"key_factors,omitempty"`
	RiskLevel       RiskLevel `json:"risk_level"`
	BriefAnalysis   string    `json:"brief_analysis"`
	Team1           string    `json:"team1"`
	Team2           string    `json:"team2"`
	RawResponse     string    `json:"raw_response,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ClampConfidence forces a confidence value into [0,100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// LogEntry is one append-only record of a prediction attempt, successful or
// not. Entries are never mutated after creation.
type LogEntry struct {
	ID              int64     `db:"id" json:"id"`
	Team1           string    `db:"team1" json:"team1"`
	Team2           string    `db:"team2" json:"team2"`
	Round           string    `db:"round" json:"round"`
	PredictedWinner string    `db:"predicted_winner" json:"predicted_winner"`
	Confidence      int       `db:"confidence" json:"confidence"`
	RiskLevel       string    `db:"risk_level" json:"risk_level"`
	KeyFactors      string    `db:"key_factors" json:"key_factors,omitempty"` // JSON-encoded []string
	BriefAnalysis   string    `db:"brief_analysis" json:"brief_analysis,omitempty"`
	Error           *string   `db:"error" json:"error,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
