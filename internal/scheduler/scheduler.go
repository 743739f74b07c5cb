// Package scheduler drives the reminder engine on two periodic triggers:
// a due check and a cleanup pass.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grocery_bot/internal/clock"
	"grocery_bot/internal/model"
	"grocery_bot/internal/reminder"
)

// Default cadences.
const (
	DefaultTickInterval    = time.Minute
	DefaultCleanupInterval = 24 * time.Hour
	DefaultRetentionDays   = 30
)

// Engine is the part of the reminder engine the scheduler drives.
type Engine interface {
	SetupExpiryReminders(ctx context.Context, items []model.Item, now time.Time) (int, error)
	ProcessDue(ctx context.Context, now time.Time) (reminder.ProcessResult, error)
	Cleanup(ctx context.Context, now time.Time, retentionDays int) (int, error)
}

// ItemLister lists the items that may need expiry reminders.
type ItemLister interface {
	ListActiveItems(ctx context.Context) ([]model.Item, error)
}

// Scheduler periodically refreshes expiry reminders, fires due ones and
// removes stale records.
type Scheduler struct {
	engine    Engine
	items     ItemLister
	clock     clock.Clock
	log       *slog.Logger
	tick      time.Duration
	cleanup   time.Duration
	retention int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source for tickers and timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithTickInterval overrides the due-check interval.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithCleanupInterval overrides the cleanup interval.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.cleanup = d
		}
	}
}

// WithRetentionDays sets how long inactive reminders are kept.
func WithRetentionDays(days int) Option {
	return func(s *Scheduler) {
		if days >= 0 {
			s.retention = days
		}
	}
}

// New creates a Scheduler.
func New(engine Engine, items ItemLister, log *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:    engine,
		items:     items,
		clock:     clock.Real{},
		log:       log,
		tick:      DefaultTickInterval,
		cleanup:   DefaultCleanupInterval,
		retention: DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the scheduler in the background. It is a no-op if already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop halts a scheduler started with Start and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	dueTicker := s.clock.NewTicker(s.tick)
	defer dueTicker.Stop()
	cleanupTicker := s.clock.NewTicker(s.cleanup)
	defer cleanupTicker.Stop()

	s.checkDue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-dueTicker.C():
			s.checkDue(ctx)
		case <-cleanupTicker.C():
			s.runCleanup(ctx)
		}
	}
}

func (s *Scheduler) checkDue(ctx context.Context) {
	now := s.clock.Now()

	items, err := s.items.ListActiveItems(ctx)
	if err != nil {
		s.log.Error("list active items", "error", err)
	} else if _, err := s.engine.SetupExpiryReminders(ctx, items, now); err != nil {
		s.log.Error("setup expiry reminders", "error", err)
	}

	res, err := s.engine.ProcessDue(ctx, now)
	if err != nil {
		s.log.Error("process due reminders", "error", err)
		return
	}
	if res.Skipped {
		s.log.Debug("due check skipped")
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	removed, err := s.engine.Cleanup(ctx, s.clock.Now(), s.retention)
	if err != nil {
		s.log.Error("cleanup reminders", "error", err)
		return
	}
	s.log.Debug("cleanup finished", "removed", removed)
}
