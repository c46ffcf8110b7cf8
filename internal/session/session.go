// Package session tracks a single in-progress typing test.
//
// A Session moves Idle -> Running -> Finished (or Abandoned) exactly once.
// Every method takes the current time so callers decide which clock drives
// the test; the Bubble Tea front end passes time.Now().
package session

import (
	"errors"
	"time"

	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/stats"
)

// ErrNotFinished is returned when a snapshot is requested before the test ends.
var ErrNotFinished = errors.New("session not finished")

const (
	// DefaultSampleInterval is how often the owned ticker fires.
	DefaultSampleInterval = time.Second

	maxExtraPerWord = 20
	refillThreshold = 20
)

// Phase is one of Idle, Running, Finished or Abandoned.
type Phase interface {
	isPhase()
}

// Idle is a session that has not received a keystroke.
type Idle struct{}

// Running is a session between the first keystroke and the stop condition.
type Running struct {
	Start time.Time
}

// Finished is a completed session ready for aggregation.
type Finished struct {
	Start time.Time
	End   time.Time
}

// Abandoned is a session the user left before it finished.
type Abandoned struct{}

func (Idle) isPhase()      {}
func (Running) isPhase()   {}
func (Finished) isPhase()  {}
func (Abandoned) isPhase() {}

// Outcome classifies one input event.
type Outcome int

const (
	// Ignored events change nothing.
	Ignored Outcome = iota
	// Correct matched the expected character.
	Correct
	// Incorrect replaced the expected character.
	Incorrect
	// Extra was typed past the end of the current word.
	Extra
	// Committed moved to the next word.
	Committed
	// Erased removed the last typed character of the current word.
	Erased
)

// Config defines the stop condition and sampling cadence.
type Config struct {
	Mode      model.Mode
	TimeLimit time.Duration
	// SampleInterval drives the owned ticker; zero disables it and leaves
	// sampling to explicit Tick calls.
	SampleInterval time.Duration
}

// Session is the state machine of one test. It is not safe for concurrent use.
type Session struct {
	cfg    Config
	target [][]rune
	typed  [][]rune
	marks  [][]Outcome
	cur    int
	phase  Phase

	correctChars      int
	incorrectChars    int
	extraChars        int
	correctKeystrokes int
	totalKeystrokes   int

	wpmHistory    []model.Sample
	rawWPMHistory []model.Sample
	errorHistory  []model.Sample
	nextSample    int

	ticker *time.Ticker
	done   chan struct{}
}

// New creates an idle session over the target words.
func New(cfg Config, words []string) *Session {
	s := &Session{
		cfg:        cfg,
		phase:      Idle{},
		nextSample: 1,
		done:       make(chan struct{}),
	}
	s.Extend(words)
	return s
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Ticks delivers sample ticks while the session is running. It is nil otherwise.
func (s *Session) Ticks() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// Done is closed when the session finishes or is abandoned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Extend appends target words. Time tests call it when NeedsWords reports true.
func (s *Session) Extend(words []string) {
	if s.terminal() {
		return
	}
	for _, w := range words {
		if w == "" {
			continue
		}
		s.target = append(s.target, []rune(w))
		s.typed = append(s.typed, nil)
		s.marks = append(s.marks, nil)
	}
}

// NeedsWords reports whether a time test is running low on target words.
func (s *Session) NeedsWords() bool {
	return s.cfg.Mode == model.ModeTime && !s.terminal() && len(s.target)-s.cur < refillThreshold
}

// Type handles one printable character; a space commits the current word.
func (s *Session) Type(r rune, now time.Time) Outcome {
	if s.terminal() || len(s.target) == 0 {
		return Ignored
	}
	if r == ' ' {
		return s.commit(now)
	}
	if _, idle := s.phase.(Idle); idle {
		s.start(now)
	}
	if s.expire(now) {
		return Ignored
	}

	target := s.target[s.cur]
	pos := len(s.typed[s.cur])
	var out Outcome
	switch {
	case pos < len(target) && r == target[pos]:
		out = Correct
		s.correctChars++
		s.correctKeystrokes++
	case pos < len(target):
		out = Incorrect
		s.incorrectChars++
	case pos-len(target) < maxExtraPerWord:
		out = Extra
		s.extraChars++
	default:
		return Ignored
	}
	s.totalKeystrokes++
	s.typed[s.cur] = append(s.typed[s.cur], r)
	s.marks[s.cur] = append(s.marks[s.cur], out)

	if s.cfg.Mode == model.ModeWords && s.cur == len(s.target)-1 && string(s.typed[s.cur]) == string(target) {
		s.cur++
		s.finish(now)
	}
	return out
}

// Erase removes the last character of the current word. Keystroke counters keep the attempt.
func (s *Session) Erase(now time.Time) Outcome {
	if _, ok := s.phase.(Running); !ok {
		return Ignored
	}
	if s.expire(now) {
		return Ignored
	}
	n := len(s.marks[s.cur])
	if n == 0 {
		return Ignored
	}
	switch s.marks[s.cur][n-1] {
	case Correct:
		s.correctChars--
	case Incorrect:
		s.incorrectChars--
	case Extra:
		s.extraChars--
	}
	s.marks[s.cur] = s.marks[s.cur][:n-1]
	s.typed[s.cur] = s.typed[s.cur][:n-1]
	return Erased
}

// Tick records any samples that are due and enforces the time limit.
// It reports whether the session is finished afterwards.
func (s *Session) Tick(now time.Time) bool {
	if _, ok := s.phase.(Running); !ok {
		return s.isFinished()
	}
	if s.expire(now) {
		return true
	}
	s.sampleUpTo(now)
	return false
}

// Abandon stops the session without producing a result.
func (s *Session) Abandon() {
	if s.terminal() {
		return
	}
	s.phase = Abandoned{}
	s.release()
}

// Snapshot returns the final counters and histories of a finished session.
func (s *Session) Snapshot() (model.TestState, error) {
	fin, ok := s.phase.(Finished)
	if !ok {
		return model.TestState{}, ErrNotFinished
	}
	return model.TestState{
		CorrectChars:      s.correctChars,
		IncorrectChars:    s.incorrectChars,
		ExtraChars:        s.extraChars,
		MissedChars:       s.missedChars(),
		CorrectKeystrokes: s.correctKeystrokes,
		TotalKeystrokes:   s.totalKeystrokes,
		StartTime:         fin.Start,
		EndTime:           fin.End,
		WPMHistory:        append([]model.Sample(nil), s.wpmHistory...),
		RawWPMHistory:     append([]model.Sample(nil), s.rawWPMHistory...),
		ErrorHistory:      append([]model.Sample(nil), s.errorHistory...),
	}, nil
}

// Elapsed returns the running time at now, frozen once finished.
func (s *Session) Elapsed(now time.Time) time.Duration {
	switch p := s.phase.(type) {
	case Running:
		if d := now.Sub(p.Start); d > 0 {
			return d
		}
	case Finished:
		return p.End.Sub(p.Start)
	}
	return 0
}

// Remaining returns the time left in a time test.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.cfg.Mode != model.ModeTime {
		return 0
	}
	left := s.cfg.TimeLimit - s.Elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// LiveWPM is the speed so far, for display while typing.
func (s *Session) LiveWPM(now time.Time) int {
	return stats.WPM(s.correctChars, s.Elapsed(now).Seconds())
}

// LiveAccuracy is the keystroke accuracy so far.
func (s *Session) LiveAccuracy() float64 {
	return stats.Accuracy(s.correctKeystrokes, s.totalKeystrokes)
}

// WordCount returns the number of target words.
func (s *Session) WordCount() int {
	return len(s.target)
}

// Current returns the index of the word being typed.
func (s *Session) Current() int {
	return s.cur
}

// Word returns the target and typed runes of word i.
func (s *Session) Word(i int) (target, typed []rune) {
	if i < 0 || i >= len(s.target) {
		return nil, nil
	}
	return s.target[i], s.typed[i]
}

func (s *Session) commit(now time.Time) Outcome {
	if _, ok := s.phase.(Running); !ok {
		return Ignored
	}
	if s.expire(now) || len(s.typed[s.cur]) == 0 {
		return Ignored
	}
	s.totalKeystrokes++
	if string(s.typed[s.cur]) == string(s.target[s.cur]) {
		s.correctKeystrokes++
		s.correctChars++
	}
	s.cur++
	if s.cur >= len(s.target) {
		s.finish(now)
	}
	return Committed
}

func (s *Session) start(now time.Time) {
	s.phase = Running{Start: now}
	if s.cfg.SampleInterval > 0 {
		s.ticker = time.NewTicker(s.cfg.SampleInterval)
	}
}

// expire finishes a time test whose deadline has passed, pinning the end to the deadline.
func (s *Session) expire(now time.Time) bool {
	running, ok := s.phase.(Running)
	if !ok || s.cfg.Mode != model.ModeTime || s.cfg.TimeLimit <= 0 {
		return false
	}
	deadline := running.Start.Add(s.cfg.TimeLimit)
	if now.Before(deadline) {
		return false
	}
	s.finish(deadline)
	return true
}

func (s *Session) finish(end time.Time) {
	running, ok := s.phase.(Running)
	if !ok {
		return
	}
	if end.Before(running.Start) {
		end = running.Start
	}
	s.sampleUpTo(end)
	s.phase = Finished{Start: running.Start, End: end}
	s.release()
}

func (s *Session) release() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	close(s.done)
}

// sampleUpTo appends one sample per whole second elapsed since the last one.
func (s *Session) sampleUpTo(now time.Time) {
	running, ok := s.phase.(Running)
	if !ok {
		return
	}
	elapsed := int(now.Sub(running.Start) / time.Second)
	typedChars := s.correctChars + s.incorrectChars + s.extraChars
	errs := float64(s.totalKeystrokes - s.correctKeystrokes)
	for ; s.nextSample <= elapsed; s.nextSample++ {
		sec := float64(s.nextSample)
		s.wpmHistory = append(s.wpmHistory, model.Sample{Time: sec, Value: float64(stats.WPM(s.correctChars, sec))})
		s.rawWPMHistory = append(s.rawWPMHistory, model.Sample{Time: sec, Value: float64(stats.RawWPM(typedChars, sec))})
		s.errorHistory = append(s.errorHistory, model.Sample{Time: sec, Value: errs})
	}
}

// missedChars counts untyped characters of words the typist moved past.
func (s *Session) missedChars() int {
	missed := 0
	for i := 0; i < s.cur && i < len(s.target); i++ {
		if gap := len(s.target[i]) - len(s.typed[i]); gap > 0 {
			missed += gap
		}
	}
	return missed
}

func (s *Session) terminal() bool {
	switch s.phase.(type) {
	case Finished, Abandoned:
		return true
	}
	return false
}

func (s *Session) isFinished() bool {
	_, ok := s.phase.(Finished)
	return ok
}
