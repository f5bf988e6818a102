package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type expiryRecorder struct {
	mu    sync.Mutex
	fired []string
	err   error
}

func (r *expiryRecorder) expire(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, sessionID)
	return r.err
}

func (r *expiryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func TestExpirySchedulerFires(t *testing.T) {
	rec := &expiryRecorder{}
	s := NewExpiryScheduler(rec.expire, zap.NewNop())
	defer s.Stop()

	s.Schedule("s1", time.Now().Add(20*time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"s1"}, rec.fired)
	assert.Zero(t, s.Pending())
}

func TestExpirySchedulerFiresPastDeadlinesImmediately(t *testing.T) {
	rec := &expiryRecorder{err: errors.New("store down")}
	s := NewExpiryScheduler(rec.expire, zap.NewNop())
	defer s.Stop()

	s.Schedule("s1", time.Now().Add(-time.Minute))
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestExpirySchedulerKeepsEarliestDeadline(t *testing.T) {
	rec := &expiryRecorder{}
	s := NewExpiryScheduler(rec.expire, zap.NewNop())
	defer s.Stop()

	s.Schedule("s1", time.Now().Add(time.Hour))
	s.Schedule("s1", time.Now().Add(20*time.Millisecond))
	s.Schedule("s1", time.Now().Add(2*time.Hour))
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestExpirySchedulerCancel(t *testing.T) {
	rec := &expiryRecorder{}
	s := NewExpiryScheduler(rec.expire, zap.NewNop())
	defer s.Stop()

	s.Schedule("s1", time.Now().Add(20*time.Millisecond))
	s.Schedule("s2", time.Now().Add(time.Hour))
	s.Cancel("s1")
	s.Cancel("s2")
	s.Cancel("unknown")
	assert.Zero(t, s.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestExpirySchedulerStop(t *testing.T) {
	rec := &expiryRecorder{}
	s := NewExpiryScheduler(rec.expire, zap.NewNop())

	s.Schedule("s1", time.Now().Add(20*time.Millisecond))
	s.Stop()
	s.Schedule("s2", time.Now().Add(20*time.Millisecond))

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, rec.count())
	assert.Zero(t, s.Pending())
}

func TestRunSweeper(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		RunSweeper(ctx, 10*time.Millisecond, func(context.Context) (int, error) {
			if calls.Add(1)%2 == 0 {
				return 0, errors.New("sweep failed")
			}
			return 1, nil
		}, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
