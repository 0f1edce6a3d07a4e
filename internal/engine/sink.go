package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// Sink receives presentation events from the engine. Implementations must be
// safe for concurrent use: match-state notifications arrive from the
// fan-out workers as each prediction settles.
type Sink interface {
	MatchStateChanged(id string, state model.MatchState)
	PassStatusChanged(status model.PassStatus, label string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) MatchStateChanged(string, model.MatchState) {}
func (NopSink) PassStatusChanged(model.PassStatus, string) {}

// ConsoleSink logs events through zap; it is the CLI's presentation layer.
type ConsoleSink struct {
	Logger         *zap.Logger
	ShowConfidence bool
}

func (s *ConsoleSink) MatchStateChanged(id string, state model.MatchState) {
	switch state.Phase {
	case model.PhaseLoading:
		s.Logger.Info("analyzing", zap.String("match", id))
	case model.PhaseSuccess:
		fields := []zap.Field{
			zap.String("match", id),
			zap.String("winner", state.Result.PredictedWinner),
			zap.String("risk", string(state.Result.RiskLevel)),
		}
		if s.ShowConfidence {
			fields = append(fields, zap.Int("confidence", state.Result.Confidence))
		}
		s.Logger.Info("predicted", fields...)
	case model.PhaseError:
		s.Logger.Warn("prediction failed",
			zap.String("match", id),
			zap.String("error", state.Error),
		)
	}
}

func (s *ConsoleSink) PassStatusChanged(status model.PassStatus, label string) {
	if label != "" {
		s.Logger.Info("pass status", zap.String("status", string(status)), zap.String("round", label))
		return
	}
	s.Logger.Info("pass status", zap.String("status", string(status)))
}

// Board is a Sink that retains the latest state per match — the data behind
// the session status endpoint.
type Board struct {
	mu     sync.Mutex
	states map[string]model.MatchState
	status model.PassStatus
	label  string
}

// NewBoard creates an empty board in the idle state.
func NewBoard() *Board {
	return &Board{
		states: make(map[string]model.MatchState),
		status: model.PassIdle,
	}
}

func (b *Board) MatchStateChanged(id string, state model.MatchState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[id] = state
}

func (b *Board) PassStatusChanged(status model.PassStatus, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
	b.label = label
}

// Snapshot returns a copy of the board's current contents.
func (b *Board) Snapshot() (map[string]model.MatchState, model.PassStatus, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	states := make(map[string]model.MatchState, len(b.states))
	for id, st := range b.states {
		states[id] = st
	}
	return states, b.status, b.label
}
