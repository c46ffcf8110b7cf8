package cloudsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pushed struct {
	key     string
	payload string
}

type fakeRemote struct {
	mu     sync.Mutex
	pushes []pushed
	fail   map[string]bool
	signal chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{fail: map[string]bool{}, signal: make(chan struct{}, 16)}
}

func (f *fakeRemote) Push(ctx context.Context, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.signal <- struct{}{} }()
	if f.fail[key] {
		return errors.New("remote unavailable")
	}
	f.pushes = append(f.pushes, pushed{key: key, payload: string(payload)})
	return nil
}

func (f *fakeRemote) snapshot() []pushed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushed(nil), f.pushes...)
}

func TestScheduleCoalescesPerKey(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, zap.NewNop(), 20*time.Millisecond)
	defer s.Close()

	s.Schedule("history", []int{1})
	s.Schedule("history", []int{1, 2})
	s.Schedule("pb", map[string]int{"en-time-60": 80})
	require.Equal(t, []string{"history", "pb"}, s.Pending())

	for i := 0; i < 2; i++ {
		select {
		case <-remote.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected background push")
		}
	}
	require.Equal(t, []pushed{
		{key: "history", payload: "[1,2]"},
		{key: "pb", payload: `{"en-time-60":80}`},
	}, remote.snapshot())
	require.Empty(t, s.Pending())
}

func TestFlushPushesImmediately(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, zap.NewNop(), time.Hour)
	defer s.Close()

	s.Schedule("daily_challenge", map[string]int{"currentStreak": 3})
	require.NoError(t, s.Flush(context.Background()))
	require.Equal(t, []pushed{{key: "daily_challenge", payload: `{"currentStreak":3}`}}, remote.snapshot())
	require.NoError(t, s.Flush(context.Background()))
	require.Len(t, remote.snapshot(), 1)
}

func TestFlushSwallowsPushFailures(t *testing.T) {
	remote := newFakeRemote()
	remote.fail["history"] = true
	s := New(remote, zap.NewNop(), time.Hour)
	defer s.Close()

	s.Schedule("history", []int{1})
	s.Schedule("pb", 1)
	require.NoError(t, s.Flush(context.Background()))
	require.Equal(t, []pushed{{key: "pb", payload: "1"}}, remote.snapshot())
	require.Empty(t, s.Pending(), "failed pushes are dropped")
}

func TestFlushHonoursCancelledContext(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, zap.NewNop(), time.Hour)
	defer s.Close()

	s.Schedule("history", []int{1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Flush(ctx), context.Canceled)
	require.Empty(t, remote.snapshot())
}

func TestCloseDropsPendingAndIgnoresLaterSchedules(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, zap.NewNop(), 10*time.Millisecond)
	s.Schedule("history", []int{1})
	s.Close()
	s.Close()
	s.Schedule("history", []int{2})
	require.Empty(t, s.Pending())

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, remote.snapshot())
}

type blockingRemote struct {
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	active int
	keys   []string
}

func (b *blockingRemote) Push(ctx context.Context, key string, _ []byte) error {
	b.mu.Lock()
	b.active++
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.active--
		b.keys = append(b.keys, key)
		b.mu.Unlock()
	}()
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return nil
}

func (b *blockingRemote) state() (int, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active, append([]string(nil), b.keys...)
}

func TestFlushWaitsForBackgroundPush(t *testing.T) {
	remote := &blockingRemote{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := New(remote, zap.NewNop(), time.Millisecond)

	s.Schedule("history", []int{1})
	select {
	case <-remote.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("background push did not start")
	}

	flushed := make(chan struct{})
	var flushErr error
	go func() {
		flushErr = s.Flush(context.Background())
		close(flushed)
	}()
	select {
	case <-flushed:
		t.Fatalf("flush returned while a push was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(remote.release)
	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Fatalf("flush did not return")
	}
	require.NoError(t, flushErr)
	s.Close()

	active, keys := remote.state()
	require.Equal(t, 0, active)
	require.Equal(t, []string{"history"}, keys)
}

func TestCloseWaitsForBackgroundPush(t *testing.T) {
	remote := &blockingRemote{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := New(remote, zap.NewNop(), time.Millisecond)

	s.Schedule("pb", map[string]int{"en-time-60": 80})
	select {
	case <-remote.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("background push did not start")
	}

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatalf("close returned while a push was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(remote.release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("close did not return")
	}
	active, _ := remote.state()
	require.Equal(t, 0, active)
}
