// Package cloudsync pushes persisted keys to a remote target in the background.
//
// Writes are coalesced per key over a debounce window so a burst of saves
// produces one push. Failures are logged and dropped; the next Schedule of
// the same key carries the newer value anyway.
package cloudsync

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the coalescing window.
const DefaultDebounce = 2 * time.Second

// Remote receives pushed payloads.
type Remote interface {
	Push(ctx context.Context, key string, payload []byte) error
}

// Syncer debounces pushes to a Remote. It is safe for concurrent use.
type Syncer struct {
	remote   Remote
	logger   *zap.Logger
	debounce time.Duration

	// flushMu serializes pushes so a foreground Flush waits out a background one.
	flushMu  sync.Mutex
	inflight sync.WaitGroup

	mu      sync.Mutex
	pending map[string][]byte
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

// New creates a syncer. A non-positive debounce uses DefaultDebounce.
func New(remote Remote, logger *zap.Logger, debounce time.Duration) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Syncer{
		remote:   remote,
		logger:   logger,
		debounce: debounce,
		pending:  map[string][]byte{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule queues value for key and restarts the debounce window.
func (s *Syncer) Schedule(key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("sync payload encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending[key] = payload
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.backgroundFlush)
}

func (s *Syncer) backgroundFlush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()
	if err := s.Flush(s.ctx); err != nil {
		s.logger.Debug("background sync stopped", zap.Error(err))
	}
}

// Pending returns the keys waiting for the next push.
func (s *Syncer) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush pushes everything pending now, after any push already in progress.
// Push failures are logged, not returned; only a cancelled ctx is reported.
func (s *Syncer) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = map[string][]byte{}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.remote.Push(ctx, key, batch[key]); err != nil {
			s.logger.Warn("sync push failed", zap.String("key", key), zap.Error(err))
			continue
		}
		s.logger.Debug("synced", zap.String("key", key), zap.Int("bytes", len(batch[key])))
	}
	return nil
}

// Close stops the timer, cancels any in-flight background push and waits for it
// to return. Pending values are dropped.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = map[string][]byte{}
	s.cancel()
	s.mu.Unlock()
	s.inflight.Wait()
}
