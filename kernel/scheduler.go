package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler owns the single periodic tick that stands in for the timer
// interrupt, and the critical section that masks it.
type Scheduler struct {
	cs    sync.Mutex
	ticks atomic.Uint64
	fn    func()
}

// NewScheduler returns a scheduler that runs fn on every tick.
func NewScheduler(fn func()) *Scheduler {
	return &Scheduler{fn: fn}
}

// Critical returns the lock that keeps the tick from running. Hold it only
// for bounded microsecond windows.
func (s *Scheduler) Critical() sync.Locker {
	return &s.cs
}

// Step runs one tick synchronously.
func (s *Scheduler) Step() {
	s.cs.Lock()
	if s.fn != nil {
		s.fn()
	}
	s.cs.Unlock()
	s.ticks.Add(1)
}

// StartTick starts the tick goroutine. It stops when ctx is done; the
// returned channel is closed once it has.
func (s *Scheduler) StartTick(ctx context.Context, period time.Duration) <-chan struct{} {
	if period <= 0 {
		period = time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Step()
			}
		}
	}()
	return done
}

// Ticks returns the number of ticks run so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}
