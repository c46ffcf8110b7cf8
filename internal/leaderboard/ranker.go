// Package leaderboard merges stored scores with a synthetic population and ranks them.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/model"
)

// MaxEntries bounds a ranked board.
const MaxEntries = 100

// Mode is the only test mode with a leaderboard.
const Mode = model.ModeTime

// ErrStoreUnavailable wraps store failures. Rank still returns a usable board with it.
var ErrStoreUnavailable = errors.New("leaderboard store unavailable")

// Store holds the best real score per user and configuration.
type Store interface {
	Select(ctx context.Context, mode model.Mode, modeValue, limit int) ([]model.LeaderboardEntry, error)
	Get(ctx context.Context, userID string, mode model.Mode, modeValue int) (model.LeaderboardEntry, bool, error)
	Upsert(ctx context.Context, entry model.LeaderboardEntry, mode model.Mode, modeValue int) error
}

// Position is an entry's place on a board.
type Position struct {
	Entry      model.LeaderboardEntry
	Rank       int
	Total      int
	Percentile int
}

// Ranker builds boards. It is safe for concurrent use.
type Ranker struct {
	store  Store
	logger *zap.Logger

	mu       sync.Mutex
	lastGood map[int][]model.LeaderboardEntry
}

// NewRanker creates a ranker over store.
func NewRanker(store Store, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{store: store, logger: logger, lastGood: map[int][]model.LeaderboardEntry{}}
}

// Rank returns real and synthetic entries for a time test, fastest first.
// When the store fails, the last entries fetched for modeValue are used and the
// error is returned alongside the board.
func (r *Ranker) Rank(ctx context.Context, modeValue int) ([]model.LeaderboardEntry, error) {
	stored, err := r.store.Select(ctx, Mode, modeValue, MaxEntries)
	r.mu.Lock()
	if err != nil {
		r.logger.Warn("leaderboard fetch failed", zap.Int("mode_value", modeValue), zap.Error(err))
		stored = r.lastGood[modeValue]
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	} else {
		r.lastGood[modeValue] = append([]model.LeaderboardEntry(nil), stored...)
	}
	r.mu.Unlock()

	entries := make([]model.LeaderboardEntry, 0, len(stored)+len(roster))
	for _, e := range stored {
		e.IsDummy = false
		entries = append(entries, e)
	}
	entries = append(entries, Synthetic(modeValue)...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].WPM > entries[j].WPM })
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries, err
}

// Locate finds an entry by user ID, or by username when userID is empty.
func Locate(entries []model.LeaderboardEntry, userID, username string) (Position, bool) {
	total := len(entries)
	for i, e := range entries {
		match := false
		if userID != "" {
			match = e.UserID == userID
		} else if username != "" {
			match = e.Username == username
		}
		if !match {
			continue
		}
		rank := i + 1
		return Position{
			Entry:      e,
			Rank:       rank,
			Total:      total,
			Percentile: int(math.Floor(float64(total-rank)/float64(total)*100 + 0.5)),
		}, true
	}
	return Position{}, false
}

// Submit stores entry when it beats the user's current best for modeValue.
// It reports whether the entry was written; losing to an existing score is not an error.
func (r *Ranker) Submit(ctx context.Context, entry model.LeaderboardEntry, modeValue int) (bool, error) {
	if entry.UserID == "" {
		return false, fmt.Errorf("submit requires a user id")
	}
	entry.IsDummy = false
	current, ok, err := r.store.Get(ctx, entry.UserID, Mode, modeValue)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ok && entry.WPM <= current.WPM {
		r.logger.Debug("leaderboard submit kept existing score",
			zap.String("user_id", entry.UserID), zap.Int("stored", current.WPM), zap.Int("submitted", entry.WPM))
		return false, nil
	}
	if err := r.store.Upsert(ctx, entry, Mode, modeValue); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	r.logger.Info("leaderboard score submitted",
		zap.String("user_id", entry.UserID), zap.Int("mode_value", modeValue), zap.Int("wpm", entry.WPM))
	return true, nil
}
