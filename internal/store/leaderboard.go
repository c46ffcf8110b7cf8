package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/verte-zerg/typerank/internal/model"
)

// Leaderboard keeps one row per user and test configuration.
type Leaderboard struct {
	store *Store
}

// Leaderboard returns the leaderboard table view.
func (s *Store) Leaderboard() *Leaderboard {
	return &Leaderboard{store: s}
}

// Select returns the fastest entries for a configuration, best first.
func (l *Leaderboard) Select(ctx context.Context, mode model.Mode, modeValue, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := l.store.db.QueryContext(ctx,
		`SELECT user_id, username, wpm, accuracy FROM leaderboard
		 WHERE mode = ? AND mode_value = ?
		 ORDER BY wpm DESC, updated_at ASC
		 LIMIT ?`, string(mode), modeValue, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.WPM, &e.Accuracy); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns the stored entry of a user, if any.
func (l *Leaderboard) Get(ctx context.Context, userID string, mode model.Mode, modeValue int) (model.LeaderboardEntry, bool, error) {
	e := model.LeaderboardEntry{UserID: userID}
	err := l.store.db.QueryRowContext(ctx,
		`SELECT username, wpm, accuracy FROM leaderboard
		 WHERE user_id = ? AND mode = ? AND mode_value = ?`, userID, string(mode), modeValue).
		Scan(&e.Username, &e.WPM, &e.Accuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LeaderboardEntry{}, false, nil
	}
	if err != nil {
		return model.LeaderboardEntry{}, false, err
	}
	return e, true, nil
}

// Upsert writes an entry unconditionally. Callers decide whether it beats the stored one.
func (l *Leaderboard) Upsert(ctx context.Context, entry model.LeaderboardEntry, mode model.Mode, modeValue int) error {
	_, err := l.store.db.ExecContext(ctx,
		`INSERT INTO leaderboard (user_id, mode, mode_value, username, wpm, accuracy, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, mode, mode_value) DO UPDATE SET
			username = excluded.username,
			wpm = excluded.wpm,
			accuracy = excluded.accuracy,
			updated_at = excluded.updated_at`,
		entry.UserID, string(mode), modeValue, entry.Username, entry.WPM, entry.Accuracy, l.store.timestamp())
	return err
}
