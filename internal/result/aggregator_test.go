package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verte-zerg/typerank/internal/model"
	"github.com/verte-zerg/typerank/internal/session"
)

type memStore struct {
	data    map[string][]byte
	failing bool
	saves   int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Load(_ context.Context, key string, dst any) (bool, error) {
	if m.failing {
		return false, errors.New("storage unavailable")
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memStore) Save(_ context.Context, key string, v any) error {
	if m.failing {
		return errors.New("quota exceeded")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.saves++
	return nil
}

type recordingScheduler struct {
	keys []string
}

func (r *recordingScheduler) Schedule(key string, _ any) {
	r.keys = append(r.keys, key)
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestAggregator(store Store, syncer Scheduler) *Aggregator {
	a := New(store, zap.NewNop(), syncer)
	n := 0
	a.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	ids := 0
	a.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	return a
}

var time60 = model.Settings{Language: "en", Mode: model.ModeTime, TimeLimit: 60, WordCount: 25}

// stateWithWPM builds a finished one-minute state whose WPM equals wpm.
func stateWithWPM(wpm int) model.TestState {
	chars := wpm * 5
	return model.TestState{
		CorrectChars:      chars,
		CorrectKeystrokes: chars,
		TotalKeystrokes:   chars,
		StartTime:         base,
		EndTime:           base.Add(time.Minute),
	}
}

func TestAggregateRejectsUnfinishedState(t *testing.T) {
	a := newTestAggregator(newMemStore(), nil)
	_, err := a.Aggregate(context.Background(), model.TestState{StartTime: base}, time60)
	require.ErrorIs(t, err, ErrNotFinished)
	require.ErrorIs(t, err, session.ErrNotFinished)
	require.Empty(t, a.History())
}

func TestAggregateComputesMetrics(t *testing.T) {
	state := model.TestState{
		CorrectChars:      300,
		IncorrectChars:    10,
		ExtraChars:        5,
		MissedChars:       2,
		CorrectKeystrokes: 97,
		TotalKeystrokes:   103,
		StartTime:         base,
		EndTime:           base.Add(time.Minute),
		WPMHistory:        []model.Sample{{Time: 1, Value: 60}, {Time: 2, Value: 60}},
	}
	a := newTestAggregator(newMemStore(), nil)
	res, err := a.Aggregate(context.Background(), state, time60)
	require.NoError(t, err)
	require.Equal(t, "id-1", res.ID)
	require.Equal(t, 60, res.WPM)
	require.Equal(t, 63, res.RawWPM)
	require.Equal(t, 300, res.CPM)
	require.Equal(t, 94.17, res.Accuracy)
	require.Equal(t, 100.0, res.Consistency)
	require.Equal(t, int64(60000), res.DurationMs)
	require.Equal(t, model.ModeTime, res.Mode)
	require.Equal(t, 60, res.ModeValue)
	require.Equal(t, "en", res.Language)
	require.False(t, res.Daily)
	require.Equal(t, base.Add(time.Minute), res.Timestamp)
}

func TestAggregateZeroElapsedDegradesToZero(t *testing.T) {
	state := model.TestState{CorrectChars: 5, StartTime: base, EndTime: base}
	res := Compute(state, time60)
	require.Zero(t, res.WPM)
	require.Zero(t, res.RawWPM)
	require.Zero(t, res.CPM)
	require.Equal(t, 100.0, res.Accuracy)
}

func TestPersonalBestOnlyOnStrictImprovement(t *testing.T) {
	ctx := context.Background()
	a := newTestAggregator(newMemStore(), nil)
	key := PBKey("en", model.ModeTime, 60)
	require.Equal(t, "en-time-60", key)

	first, err := a.Aggregate(ctx, stateWithWPM(50), time60)
	require.NoError(t, err)
	pb, ok := a.PersonalBest(key)
	require.True(t, ok)
	require.Equal(t, 50, pb.WPM)
	require.True(t, a.IsPersonalBest(first))

	slower, err := a.Aggregate(ctx, stateWithWPM(48), time60)
	require.NoError(t, err)
	pb, _ = a.PersonalBest(key)
	require.Equal(t, 50, pb.WPM)
	require.Equal(t, first.Timestamp, pb.Timestamp)
	require.False(t, a.IsPersonalBest(slower))

	_, err = a.Aggregate(ctx, stateWithWPM(50), time60)
	require.NoError(t, err)
	pb, _ = a.PersonalBest(key)
	require.Equal(t, first.Timestamp, pb.Timestamp, "ties keep the older record")

	faster, err := a.Aggregate(ctx, stateWithWPM(55), time60)
	require.NoError(t, err)
	pb, _ = a.PersonalBest(key)
	require.Equal(t, 55, pb.WPM)
	require.Equal(t, faster.Timestamp, pb.Timestamp)

	require.Len(t, a.PersonalBests(), 1)
}

func TestPersonalBestsAreKeyedByVariant(t *testing.T) {
	ctx := context.Background()
	a := newTestAggregator(newMemStore(), nil)
	_, err := a.Aggregate(ctx, stateWithWPM(70), time60)
	require.NoError(t, err)
	words := model.Settings{Language: "en", Mode: model.ModeWords, TimeLimit: 60, WordCount: 25}
	_, err = a.Aggregate(ctx, stateWithWPM(40), words)
	require.NoError(t, err)

	pbs := a.PersonalBests()
	require.Equal(t, 70, pbs["en-time-60"].WPM)
	require.Equal(t, 40, pbs["en-words-25"].WPM)
}

func TestHistoryNewestFirstWithFIFOEviction(t *testing.T) {
	ctx := context.Background()
	a := newTestAggregator(newMemStore(), nil)
	for i := 1; i <= MaxHistory+5; i++ {
		_, err := a.Aggregate(ctx, stateWithWPM(i), time60)
		require.NoError(t, err)
	}
	history := a.History()
	require.Len(t, history, MaxHistory)
	require.Equal(t, MaxHistory+5, history[0].WPM)
	require.Equal(t, 6, history[len(history)-1].WPM)
}

func TestAggregatePersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	syncer := &recordingScheduler{}
	a := newTestAggregator(store, syncer)
	_, err := a.Aggregate(ctx, stateWithWPM(42), time60)
	require.NoError(t, err)
	_, err = a.Aggregate(ctx, stateWithWPM(30), time60)
	require.NoError(t, err)
	require.Equal(t, []string{"history", "pb", "history"}, syncer.keys)

	reloaded := New(store, zap.NewNop(), nil)
	reloaded.Load(ctx)
	require.Len(t, reloaded.History(), 2)
	require.Equal(t, 30, reloaded.History()[0].WPM)
	pb, ok := reloaded.PersonalBest("en-time-60")
	require.True(t, ok)
	require.Equal(t, 42, pb.WPM)
}

func TestStorageFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failing = true
	syncer := &recordingScheduler{}
	a := newTestAggregator(store, syncer)
	a.Load(ctx)

	res, err := a.Aggregate(ctx, stateWithWPM(60), time60)
	require.NoError(t, err)
	require.Len(t, a.History(), 1)
	require.True(t, a.IsPersonalBest(res))
	require.Zero(t, store.saves)
	require.Empty(t, syncer.keys)
}

func TestClearHistoryKeepsPersonalBests(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAggregator(store, nil)
	_, err := a.Aggregate(ctx, stateWithWPM(60), time60)
	require.NoError(t, err)

	a.ClearHistory(ctx)
	require.Empty(t, a.History())
	_, ok := a.PersonalBest("en-time-60")
	require.True(t, ok)
	require.JSONEq(t, `[]`, string(store.data["history"]))
}

func TestAggregateDailyMarksResult(t *testing.T) {
	a := newTestAggregator(newMemStore(), nil)
	words := model.Settings{Language: "en", Mode: model.ModeWords, WordCount: 100}
	res, err := a.AggregateDaily(context.Background(), stateWithWPM(65), words)
	require.NoError(t, err)
	require.True(t, res.Daily)
	require.True(t, a.History()[0].Daily)
}
