package monitor

import (
	"context"
	"sync"
	"time"
)

// TickFunc is the work done on each scheduler firing.
type TickFunc func(ctx context.Context)

// Scheduler fires a TickFunc at a fixed period.
//
// Ticks never overlap: the next firing can't start until the current
// TickFunc returns, and firings missed while a tick was running are dropped
// rather than replayed. Changing the period cancels the timer and starts a
// fresh one; a running task's period is never changed in place.
//
// A tick's context ends on Stop or when the Start context does. Reschedule
// leaves it alone, so a sample in flight finishes and is kept.
//
// TickFunc must not call back into the Scheduler.
type Scheduler struct {
	fn TickFunc

	// tickMu is held for each call to fn, across timers.
	tickMu sync.Mutex

	mu      sync.Mutex
	run     context.Context
	stopRun context.CancelFunc
	period  time.Duration
	cancel  context.CancelFunc // current timer
	tasks   sync.WaitGroup
}

// NewScheduler creates a stopped scheduler for fn.
func NewScheduler(fn TickFunc) *Scheduler {
	return &Scheduler{fn: fn}
}

// Start begins firing every period. The first firing is one period from now.
// Calling Start on a running scheduler restarts it with the new period.
// The task stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context, period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.run, s.stopRun = context.WithCancel(ctx)
	s.startLocked(period)
}

// Reschedule cancels the outstanding timer and starts a new one at period.
// It doesn't wait for a tick in flight; the new timer's first tick waits
// for it instead. A scheduler that isn't running stays stopped but
// remembers the period.
func (s *Scheduler) Reschedule(period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		s.period = period
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.startLocked(period)
}

// Stop cancels the timer and the tick in flight, and waits for that tick
// to return. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

// Running reports whether a task is currently scheduled.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil && s.run.Err() == nil
}

// Period returns the current (or last requested) period.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// startLocked must be called with s.mu held and s.run set.
func (s *Scheduler) startLocked(period time.Duration) {
	if period <= 0 {
		period = DefaultInterval
	}
	timer, cancel := context.WithCancel(s.run)

	s.period = period
	s.cancel = cancel

	s.tasks.Add(1)
	go s.loop(timer, s.run, period)
}

// stopLocked must be called with s.mu held.
func (s *Scheduler) stopLocked() {
	if s.stopRun == nil {
		return
	}
	s.stopRun()
	s.tasks.Wait()
	s.run = nil
	s.stopRun = nil
	s.cancel = nil
}

func (s *Scheduler) loop(timer, run context.Context, period time.Duration) {
	defer s.tasks.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-timer.Done():
			return
		case <-ticker.C:
			if !s.tick(timer, run) {
				return
			}
		}
	}
}

// tick runs fn unless the timer was cancelled, including while waiting
// for an earlier timer's tick to finish.
func (s *Scheduler) tick(timer, run context.Context) bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if timer.Err() != nil {
		return false
	}
	s.fn(run)
	return true
}
