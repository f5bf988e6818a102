package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpiryScheduler arms in-process one-shot timers that force-complete
// sessions. Timers die with the process; RunSweeper covers what they miss.
type ExpiryScheduler struct {
	expire  func(ctx context.Context, sessionID string) error
	timeout time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	timers  map[string]*expiryTimer
	stopped bool
}

type expiryTimer struct {
	at    time.Time
	timer *time.Timer
}

// NewExpiryScheduler creates a scheduler calling expire when a deadline passes
func NewExpiryScheduler(expire func(ctx context.Context, sessionID string) error, log *zap.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		expire:  expire,
		timeout: 30 * time.Second,
		log:     log,
		timers:  make(map[string]*expiryTimer),
	}
}

// Schedule arms a timer for sessionID. Only the earliest deadline per session
// is kept; a later one is ignored.
func (s *ExpiryScheduler) Schedule(sessionID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if existing, ok := s.timers[sessionID]; ok {
		if !at.Before(existing.at) {
			return
		}
		existing.timer.Stop()
	}

	t := &expiryTimer{at: at}
	t.timer = time.AfterFunc(time.Until(at), func() { s.fire(sessionID, t) })
	s.timers[sessionID] = t
}

// Cancel disarms the timer for sessionID. Completed sessions are cancelled so
// the map only holds sessions that are still open.
func (s *ExpiryScheduler) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[sessionID]; ok {
		t.timer.Stop()
		delete(s.timers, sessionID)
	}
}

// Pending returns the number of armed timers
func (s *ExpiryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer; later Schedule calls are ignored
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, id)
	}
}

func (s *ExpiryScheduler) fire(sessionID string, t *expiryTimer) {
	s.mu.Lock()
	if s.timers[sessionID] != t {
		s.mu.Unlock()
		return
	}
	delete(s.timers, sessionID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.expire(ctx, sessionID); err != nil {
		s.log.Error("failed to expire session", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}
	s.log.Info("session expired", zap.String("sessionId", sessionID))
}

// RunSweeper calls sweep every interval until ctx is done
func RunSweeper(ctx context.Context, interval time.Duration, sweep func(ctx context.Context) (int, error), log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweep(ctx)
			if err != nil {
				log.Error("expiry sweep failed", zap.Int("completed", n), zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expiry sweep completed sessions", zap.Int("completed", n))
			}
		}
	}
}
