// Package result turns finished sessions into stored results and personal bests.
package result

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/session"
	"github.com/verte-zerg/typerank/internal/stats"
)

// MaxHistory bounds the stored history, newest first.
const MaxHistory = 100

const (
	historyKey = "history"
	pbKey      = "pb"
)

// ErrNotFinished is returned when the state has no end time.
var ErrNotFinished = fmt.Errorf("cannot aggregate: %w", session.ErrNotFinished)

// Store is the JSON key-value persistence the aggregator writes through.
type Store interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Scheduler receives persisted values for background sync.
type Scheduler interface {
	Schedule(key string, value any)
}

// Aggregator owns the result history and personal bests. It is safe for concurrent use.
type Aggregator struct {
	store  Store
	logger *zap.Logger
	sync   Scheduler
	now    func() time.Time
	newID  func() string

	mu      sync.Mutex
	history []model.TestResult
	pbs     map[string]model.PersonalBest
}

// New creates an aggregator. syncer may be nil.
func New(store Store, logger *zap.Logger, syncer Scheduler) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:  store,
		logger: logger,
		sync:   syncer,
		now:    time.Now,
		newID:  uuid.NewString,
		pbs:    map[string]model.PersonalBest{},
	}
}

// Load reads history and personal bests from the store. Read failures are logged and
// leave the in-memory state empty.
func (a *Aggregator) Load(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var history []model.TestResult
	if _, err := a.store.Load(ctx, historyKey, &history); err != nil {
		a.logger.Warn("history load failed", zap.Error(err))
		history = nil
	}
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	a.history = history

	pbs := map[string]model.PersonalBest{}
	if _, err := a.store.Load(ctx, pbKey, &pbs); err != nil {
		a.logger.Warn("personal bests load failed", zap.Error(err))
		pbs = map[string]model.PersonalBest{}
	}
	if pbs == nil {
		pbs = map[string]model.PersonalBest{}
	}
	a.pbs = pbs
}

// PBKey builds the personal best key, e.g. "en-time-60".
func PBKey(language string, mode model.Mode, modeValue int) string {
	return fmt.Sprintf("%s-%s-%d", language, mode, modeValue)
}

// Aggregate computes the result of a finished test, records it and updates the personal best.
func (a *Aggregator) Aggregate(ctx context.Context, state model.TestState, settings model.Settings) (model.TestResult, error) {
	return a.aggregate(ctx, state, settings, false)
}

// AggregateDaily is Aggregate for a daily challenge run.
func (a *Aggregator) AggregateDaily(ctx context.Context, state model.TestState, settings model.Settings) (model.TestResult, error) {
	return a.aggregate(ctx, state, settings, true)
}

func (a *Aggregator) aggregate(ctx context.Context, state model.TestState, settings model.Settings, daily bool) (model.TestResult, error) {
	if !state.Finished() {
		return model.TestResult{}, ErrNotFinished
	}
	res := Compute(state, settings)
	res.ID = a.newID()
	res.Timestamp = a.now()
	res.Daily = daily

	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append([]model.TestResult{res}, a.history...)
	if len(a.history) > MaxHistory {
		a.history = a.history[:MaxHistory]
	}
	key := PBKey(res.Language, res.Mode, res.ModeValue)
	improved := false
	if pb, ok := a.pbs[key]; !ok || res.WPM > pb.WPM {
		a.pbs[key] = model.PersonalBest{WPM: res.WPM, Accuracy: res.Accuracy, Timestamp: res.Timestamp}
		improved = true
	}

	a.persist(ctx, historyKey, a.history)
	if improved {
		a.persist(ctx, pbKey, a.pbs)
	}
	a.logger.Info("result recorded",
		zap.String("id", res.ID),
		zap.String("key", key),
		zap.Int("wpm", res.WPM),
		zap.Float64("accuracy", res.Accuracy),
		zap.Bool("personal_best", improved),
	)
	return res, nil
}

// Compute derives the metrics of a finished state without recording anything.
func Compute(state model.TestState, settings model.Settings) model.TestResult {
	elapsed := state.Elapsed()
	secs := elapsed.Seconds()
	return model.TestResult{
		WPM:               stats.WPM(state.CorrectChars, secs),
		RawWPM:            stats.RawWPM(state.TypedChars(), secs),
		CPM:               stats.CPM(state.CorrectChars, secs),
		Accuracy:          stats.Accuracy(state.CorrectKeystrokes, state.TotalKeystrokes),
		Consistency:       stats.Consistency(stats.SampleValues(state.WPMHistory)),
		CorrectChars:      state.CorrectChars,
		IncorrectChars:    state.IncorrectChars,
		ExtraChars:        state.ExtraChars,
		MissedChars:       state.MissedChars,
		CorrectKeystrokes: state.CorrectKeystrokes,
		TotalKeystrokes:   state.TotalKeystrokes,
		Mode:              settings.Mode,
		ModeValue:         settings.ModeValue(),
		Language:          settings.Language,
		DurationMs:        elapsed.Milliseconds(),
		WPMHistory:        append([]model.Sample(nil), state.WPMHistory...),
		RawWPMHistory:     append([]model.Sample(nil), state.RawWPMHistory...),
		ErrorHistory:      append([]model.Sample(nil), state.ErrorHistory...),
	}
}

// History returns a copy of the stored results, newest first.
func (a *Aggregator) History() []model.TestResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.TestResult(nil), a.history...)
}

// PersonalBest returns the record for key.
func (a *Aggregator) PersonalBest(key string) (model.PersonalBest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pb, ok := a.pbs[key]
	return pb, ok
}

// PersonalBests returns a copy of every record.
func (a *Aggregator) PersonalBests() map[string]model.PersonalBest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]model.PersonalBest, len(a.pbs))
	for k, v := range a.pbs {
		out[k] = v
	}
	return out
}

// IsPersonalBest reports whether res is the current record for its key.
func (a *Aggregator) IsPersonalBest(res model.TestResult) bool {
	pb, ok := a.PersonalBest(PBKey(res.Language, res.Mode, res.ModeValue))
	return ok && pb.WPM == res.WPM && pb.Timestamp.Equal(res.Timestamp)
}

// ClearHistory drops every stored result. Personal bests are kept.
func (a *Aggregator) ClearHistory(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.persist(ctx, historyKey, []model.TestResult{})
}

// persist writes best-effort; the in-memory state stays authoritative. Callers hold a.mu.
func (a *Aggregator) persist(ctx context.Context, key string, v any) {
	if err := a.store.Save(ctx, key, v); err != nil {
		a.logger.Warn("persist failed", zap.String("key", key), zap.Error(err))
		return
	}
	if a.sync != nil {
		a.sync.Schedule(key, v)
	}
}
