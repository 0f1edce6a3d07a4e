// Package engine drives the end-to-end prediction flow: take scanned match
// descriptors, gate them by round, fan out predictions for the current
// round, and report outcomes to the presentation sink and the log.
//
// One Engine instance owns the state for one page session. Nothing here is
// ambient or global; the sink and prediction function are injected.
package engine

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/csmajors/bracket-predictor/internal/model"
	"github.com/csmajors/bracket-predictor/internal/storage"
)

// PredictFn produces a prediction for one match. It is the engine's only
// dependency on the prediction service.
type PredictFn func(ctx context.Context, req model.PredictionRequest) (*model.PredictionResult, error)

// Engine holds the per-session prediction cache and runs round-gated passes.
// The cache enforces at-most-one result per match id per session; it is
// mutex-guarded because pass workers settle concurrently.
type Engine struct {
	mu      sync.Mutex
	cache   map[string]*model.PredictionResult
	predict PredictFn
	sink    Sink
	logs    storage.LogRepository
	logger  *zap.Logger
}

// New creates an Engine. logs may be nil when nothing should be persisted
// (some CLI paths); sink must not be nil — use NopSink.
func New(predict PredictFn, sink Sink, logs storage.LogRepository, logger *zap.Logger) *Engine {
	return &Engine{
		cache:   make(map[string]*model.PredictionResult),
		predict: predict,
		sink:    sink,
		logs:    logs,
		logger:  logger,
	}
}

// Cached returns the session result for a match id, if any.
func (e *Engine) Cached(id string) (*model.PredictionResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, ok := e.cache[id]
	return res, ok
}

// Results returns a copy of all cached results.
func (e *Engine) Results() map[string]*model.PredictionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]*model.PredictionResult, len(e.cache))
	for id, res := range e.cache {
		out[id] = res
	}
	return out
}

// RunPass predicts exactly one round: the lowest unpredicted round index
// among the given descriptors. Lower rounds are always drained before higher
// ones, and the caller drives progress round-by-round — deliberate
// backpressure against a paid API rather than auto-draining the bracket.
//
// The current round is re-derived fresh on every call from the cache, not
// from a persisted cursor, so failed matches are naturally retried on the
// next invocation.
func (e *Engine) RunPass(ctx context.Context, descriptors []model.MatchDescriptor) (*model.PassSummary, error) {
	pending := e.uncached(descriptors)
	if len(pending) == 0 {
		status := model.PassIdle
		if len(descriptors) > 0 {
			status = model.PassAllDone
		}
		e.sink.PassStatusChanged(status, "")
		return &model.PassSummary{}, nil
	}

	target := pending[0].RoundIndex
	for _, d := range pending[1:] {
		if d.RoundIndex < target {
			target = d.RoundIndex
		}
	}

	var batch []model.MatchDescriptor
	for _, d := range pending {
		if d.RoundIndex == target {
			batch = append(batch, d)
		}
	}

	e.sink.PassStatusChanged(model.PassBusy, batch[0].Round)

	// Every badge flips to loading before the first network call goes out.
	for _, d := range batch {
		e.sink.MatchStateChanged(d.ID, model.MatchState{Phase: model.PhaseLoading})
	}

	// Fan out the whole round at once with settle-all semantics: workers
	// never return an error, so one failure cannot cancel its siblings.
	summary := &model.PassSummary{}
	var mu sync.Mutex
	g := new(errgroup.Group)
	for _, d := range batch {
		g.Go(func() error {
			res, err := e.predict(ctx, model.PredictionRequest{
				Team1:      d.Team1,
				Team2:      d.Team2,
				Tournament: d.Tournament,
				MatchType:  d.MatchType,
			})

			mu.Lock()
			if err != nil {
				summary.Failed++
			} else {
				summary.Predicted++
			}
			mu.Unlock()

			e.settle(ctx, d, res, err)
			return nil
		})
	}
	_ = g.Wait()

	remaining := e.uncached(descriptors)
	if len(remaining) == 0 {
		e.sink.PassStatusChanged(model.PassAllDone, "")
		return summary, nil
	}

	next := remaining[0]
	for _, d := range remaining[1:] {
		if d.RoundIndex < next.RoundIndex {
			next = d
		}
	}
	summary.NextRound = next.Round
	e.sink.PassStatusChanged(model.PassIdle, next.Round)
	return summary, nil
}

// uncached filters descriptors whose id already has a session result.
func (e *Engine) uncached(descriptors []model.MatchDescriptor) []model.MatchDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.MatchDescriptor
	for _, d := range descriptors {
		if _, ok := e.cache[d.ID]; !ok {
			out = append(out, d)
		}
	}
	return out
}

// settle records one outcome: cache + sink + log on success, sink + log on
// failure. Errors are never retried automatically; re-running the pass
// retries only uncached matches.
func (e *Engine) settle(ctx context.Context, d model.MatchDescriptor, res *model.PredictionResult, predictErr error) {
	if predictErr != nil {
		e.logger.Warn("prediction failed",
			zap.String("match", d.ID),
			zap.String("team1", d.Team1),
			zap.String("team2", d.Team2),
			zap.Error(predictErr),
		)
		e.sink.MatchStateChanged(d.ID, model.MatchState{Phase: model.PhaseError, Error: predictErr.Error()})
		e.appendLog(ctx, d, nil, predictErr)
		return
	}

	e.mu.Lock()
	e.cache[d.ID] = res
	e.mu.Unlock()

	e.sink.MatchStateChanged(d.ID, model.MatchState{Phase: model.PhaseSuccess, Result: res})
	e.appendLog(ctx, d, res, nil)
}

func (e *Engine) appendLog(ctx context.Context, d model.MatchDescriptor, res *model.PredictionResult, predictErr error) {
	if e.logs == nil {
		return
	}

	entry := &model.LogEntry{
		Team1:      d.Team1,
		Team2:      d.Team2,
		Round:      d.Round,
		KeyFactors: "[]",
	}
	if res != nil {
		entry.PredictedWinner = res.PredictedWinner
		entry.Confidence = res.Confidence
		entry.RiskLevel = string(res.RiskLevel)
		entry.BriefAnalysis = res.BriefAnalysis
		// A nil slice would marshal to "null"; keep the "[]" default instead.
		if res.KeyFactors != nil {
			if factors, err := json.Marshal(res.KeyFactors); err == nil {
				entry.KeyFactors = string(factors)
			}
		}
	}
	if predictErr != nil {
		msg := predictErr.Error()
		entry.Error = &msg
	}

	if err := e.logs.Append(ctx, entry); err != nil {
		e.logger.Error("appending log entry", zap.Error(err))
	}
}
