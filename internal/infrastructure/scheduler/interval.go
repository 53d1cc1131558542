package scheduler

import (
	"context"
	"sync"
	"time"

	"coinpress/internal/ports"
)

// IntervalScheduler drives recurring pipeline runs on a fixed interval.
// Ticks that arrive while a run is still in progress are dropped: the ledger
// is single-writer and overlapping runs are not supported.
type IntervalScheduler struct {
	interval time.Duration

	mu   sync.Mutex // guards stop
	stop chan struct{}

	running sync.Mutex
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler; intervals below one minute are
// raised to one minute.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &IntervalScheduler{interval: interval}
}

// Start runs the job immediately and then once per interval until Stop or
// context cancellation. Starting an already-started scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	// The goroutine selects on its own copy; Stop mutates s.stop under the
	// mutex, which the goroutine never reads.
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.runOnce(job, time.Now())
		for {
			select {
			case t := <-ticker.C:
				s.runOnce(job, t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

func (s *IntervalScheduler) runOnce(job func(time.Time), t time.Time) {
	if !s.running.TryLock() {
		return
	}
	defer s.running.Unlock()
	job(t)
}

// Stop halts the ticker goroutine. Safe to call concurrently with Start and
// idempotent; stopping a never-started scheduler is a no-op.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
