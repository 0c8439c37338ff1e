// Package scheduler runs one-shot tasks after a delay.
//
// The export path hands its background job to a Scheduler and returns
// immediately. Tasks are never cancelled once scheduled and report their
// own failures.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"
)

// Scheduler runs task once after delay. It does not wait for the task.
type Scheduler interface {
	Schedule(delay time.Duration, task func())
}

// ClockScheduler schedules tasks on a juju clock and tracks the ones that
// have not yet finished so a process can drain them before exiting.
type ClockScheduler struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	pending int
	idle    chan struct{} // closed while pending is zero
}

// Option configures a ClockScheduler.
type Option func(*ClockScheduler)

// WithClock sets the time source. Tests use testclock.
func WithClock(c clock.Clock) Option {
	return func(s *ClockScheduler) {
		s.clock = c
	}
}

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *ClockScheduler) {
		s.logger = l
	}
}

// New creates a ClockScheduler backed by the wall clock.
func New(opts ...Option) *ClockScheduler {
	s := &ClockScheduler{
		clock:  clock.WallClock,
		logger: slog.Default(),
		idle:   make(chan struct{}),
	}
	close(s.idle)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule implements Scheduler. It is safe to call concurrently with Wait.
func (s *ClockScheduler) Schedule(delay time.Duration, task func()) {
	s.mu.Lock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.mu.Unlock()

	s.clock.AfterFunc(delay, func() {
		defer s.done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked", "panic", r)
			}
		}()
		task()
	})
}

func (s *ClockScheduler) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

// Wait blocks until no scheduled task is pending, or ctx is done.
// Tasks scheduled after Wait has returned are not waited for.
func (s *ClockScheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Immediate runs tasks synchronously on the calling goroutine and ignores
// the delay.
type Immediate struct{}

// Schedule implements Scheduler.
func (Immediate) Schedule(_ time.Duration, task func()) {
	task()
}
