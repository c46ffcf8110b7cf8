// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Mode selects the stop condition of a test.
type Mode string

const (
	// ModeTime ends the test when the time limit elapses.
	ModeTime Mode = "time"
	// ModeWords ends the test when every target word is typed.
	ModeWords Mode = "words"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeTime || m == ModeWords
}

// Settings defines test settings.
type Settings struct {
	Language    string
	Mode        Mode
	TimeLimit   int
	WordCount   int
	Punctuation bool
	Numbers     bool
	UILanguage  string
	Theme       string
	FontFamily  string
}

// ModeValue returns the seconds or word count that identifies the test variant.
func (s Settings) ModeValue() int {
	if s.Mode == ModeWords {
		return s.WordCount
	}
	return s.TimeLimit
}

// Validate checks the fields the engine depends on.
func (s Settings) Validate() error {
	if s.Language == "" {
		return fmt.Errorf("language must not be empty")
	}
	if !s.Mode.Valid() {
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	if s.Mode == ModeTime && s.TimeLimit <= 0 {
		return fmt.Errorf("time limit must be > 0")
	}
	if s.Mode == ModeWords && s.WordCount <= 0 {
		return fmt.Errorf("word count must be > 0")
	}
	return nil
}

// Sample is one point of a per-second time series.
type Sample struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// TestState is a snapshot of a finished typing session.
type TestState struct {
	CorrectChars      int
	IncorrectChars    int
	ExtraChars        int
	MissedChars       int
	CorrectKeystrokes int
	TotalKeystrokes   int
	StartTime         time.Time
	EndTime           time.Time
	WPMHistory        []Sample
	RawWPMHistory     []Sample
	ErrorHistory      []Sample
}

// Finished reports whether both timestamps are latched.
func (s TestState) Finished() bool {
	return !s.StartTime.IsZero() && !s.EndTime.IsZero() && !s.EndTime.Before(s.StartTime)
}

// Elapsed returns the test duration.
func (s TestState) Elapsed() time.Duration {
	if !s.Finished() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// TypedChars counts every character that landed in the input.
func (s TestState) TypedChars() int {
	return s.CorrectChars + s.IncorrectChars + s.ExtraChars
}

// TestResult is the immutable outcome of a completed test.
type TestResult struct {
	ID                string    `json:"id"`
	WPM               int       `json:"wpm"`
	RawWPM            int       `json:"rawWpm"`
	CPM               int       `json:"cpm"`
	Accuracy          float64   `json:"accuracy"`
	Consistency       float64   `json:"consistency"`
	CorrectChars      int       `json:"correctChars"`
	IncorrectChars    int       `json:"incorrectChars"`
	ExtraChars        int       `json:"extraChars"`
	MissedChars       int       `json:"missedChars"`
	CorrectKeystrokes int       `json:"correctKeystrokes"`
	TotalKeystrokes   int       `json:"totalKeystrokes"`
	Mode              Mode      `json:"mode"`
	ModeValue         int       `json:"modeValue"`
	Language          string    `json:"language"`
	Daily             bool      `json:"daily,omitempty"`
	DurationMs        int64     `json:"durationMs"`
	Timestamp         time.Time `json:"timestamp"`
	WPMHistory        []Sample  `json:"wpmHistory"`
	RawWPMHistory     []Sample  `json:"rawWpmHistory"`
	ErrorHistory      []Sample  `json:"errorHistory"`
}

// PersonalBest is the best result recorded for one test variant.
type PersonalBest struct {
	WPM       int       `json:"wpm"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyChallengeResult records one completed daily challenge.
type DailyChallengeResult struct {
	Date        string    `json:"date"`
	WPM         int       `json:"wpm"`
	Accuracy    float64   `json:"accuracy"`
	CompletedAt time.Time `json:"completedAt"`
}

// DailyChallengeState holds daily challenge completions and streaks.
type DailyChallengeState struct {
	Results       []DailyChallengeResult `json:"results"`
	CurrentStreak int                    `json:"currentStreak"`
	LongestStreak int                    `json:"longestStreak"`
}

// LeaderboardEntry is one row of a leaderboard.
type LeaderboardEntry struct {
	Username string  `json:"username"`
	WPM      int     `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
	UserID   string  `json:"user_id,omitempty"`
	IsDummy  bool    `json:"is_dummy,omitempty"`
}
