// Package daily provides the date-seeded daily challenge and its streak tracking.
package daily

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/generator"
	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/wordlist"
)

// DateLayout is the calendar date format challenges are keyed by.
const DateLayout = "2006-01-02"

// Language is the word list every daily challenge draws from.
const Language = "en"

const stateKey = "daily_challenge"

// Store is the JSON key-value persistence the tracker writes through.
type Store interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Scheduler receives persisted values for background sync.
type Scheduler interface {
	Schedule(key string, value any)
}

// Date returns the challenge date of t in t's location.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Words returns the challenge words for date. They always come from the built-in
// list so every install gets the same challenge; on-disk lists are ignored.
func Words(date string) ([]string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid challenge date %q: %w", date, err)
	}
	words := wordlist.English()
	if len(words) == 0 {
		return nil, fmt.Errorf("%s word list is empty", Language)
	}
	return generator.DailyWords(date, words), nil
}

// Tracker records one completion per date and keeps streaks. It is safe for concurrent use.
type Tracker struct {
	store  Store
	logger *zap.Logger
	sync   Scheduler

	mu    sync.Mutex
	state model.DailyChallengeState
}

// NewTracker creates a tracker. syncer may be nil.
func NewTracker(store Store, logger *zap.Logger, syncer Scheduler) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger, sync: syncer}
}

// Load reads the stored state. Failures are logged and leave the state empty.
func (t *Tracker) Load(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var state model.DailyChallengeState
	if _, err := t.store.Load(ctx, stateKey, &state); err != nil {
		t.logger.Warn("daily challenge load failed", zap.Error(err))
		state = model.DailyChallengeState{}
	}
	t.state = state
}

// Record stores res unless its date already has a result. It reports whether res was recorded.
func (t *Tracker) Record(ctx context.Context, res model.DailyChallengeResult) (bool, error) {
	if _, err := time.Parse(DateLayout, res.Date); err != nil {
		return false, fmt.Errorf("invalid challenge date %q: %w", res.Date, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.state.Results {
		if r.Date == res.Date {
			return false, nil
		}
	}
	t.state.Results = append(t.state.Results, res)
	t.state.CurrentStreak = currentStreak(t.state.Results)
	if t.state.CurrentStreak > t.state.LongestStreak {
		t.state.LongestStreak = t.state.CurrentStreak
	}

	if err := t.store.Save(ctx, stateKey, t.state); err != nil {
		t.logger.Warn("daily challenge persist failed", zap.Error(err))
	} else if t.sync != nil {
		t.sync.Schedule(stateKey, t.state)
	}
	t.logger.Info("daily challenge recorded",
		zap.String("date", res.Date),
		zap.Int("wpm", res.WPM),
		zap.Int("streak", t.state.CurrentStreak),
	)
	return true, nil
}

// State returns a copy of the current state.
func (t *Tracker) State() model.DailyChallengeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.state
	out.Results = append([]model.DailyChallengeResult(nil), t.state.Results...)
	return out
}

// Completed returns the result recorded for date.
func (t *Tracker) Completed(date string) (model.DailyChallengeResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.state.Results {
		if r.Date == date {
			return r, true
		}
	}
	return model.DailyChallengeResult{}, false
}

// EffectiveStreak is the current streak as of today: it lapses once a full day is missed.
func EffectiveStreak(state model.DailyChallengeState, today string) int {
	day, err := time.Parse(DateLayout, today)
	if err != nil || len(state.Results) == 0 {
		return 0
	}
	newest := newestDate(state.Results)
	if newest == today || newest == day.AddDate(0, 0, -1).Format(DateLayout) {
		return state.CurrentStreak
	}
	return 0
}

// currentStreak counts consecutive days ending at the newest completion.
func currentStreak(results []model.DailyChallengeResult) int {
	dates := distinctDates(results)
	if len(dates) == 0 {
		return 0
	}
	streak := 1
	for i := 1; i < len(dates); i++ {
		if !dates[i].AddDate(0, 0, 1).Equal(dates[i-1]) {
			break
		}
		streak++
	}
	return streak
}

// distinctDates returns the parsed dates, newest first.
func distinctDates(results []model.DailyChallengeResult) []time.Time {
	seen := map[string]struct{}{}
	var dates []time.Time
	for _, r := range results {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}

func newestDate(results []model.DailyChallengeResult) string {
	newest := ""
	for _, r := range results {
		if r.Date > newest {
			newest = r.Date
		}
	}
	return newest
}
