package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"grocery_bot/internal/clock"
	"grocery_bot/internal/model"
	"grocery_bot/internal/notify"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/storage"
)

var t0 = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type cleanupCall struct {
	Now       time.Time
	Retention int
}

type mockEngine struct {
	mu        sync.Mutex
	setups    [][]model.Item
	processed []time.Time
	cleanups  []cleanupCall
}

func (m *mockEngine) SetupExpiryReminders(_ context.Context, items []model.Item, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setups = append(m.setups, items)
	return 0, nil
}

func (m *mockEngine) ProcessDue(_ context.Context, now time.Time) (reminder.ProcessResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, now)
	return reminder.ProcessResult{}, nil
}

func (m *mockEngine) Cleanup(_ context.Context, now time.Time, retention int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupCall{Now: now, Retention: retention})
	return 0, nil
}

func (m *mockEngine) getProcessed() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.processed...)
}

func (m *mockEngine) getCleanups() []cleanupCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cleanupCall(nil), m.cleanups...)
}

func (m *mockEngine) setupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.setups)
}

type mockItems struct {
	items []model.Item
	err   error
}

func (m *mockItems) ListActiveItems(_ context.Context) ([]model.Item, error) {
	return m.items, m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startRun(t *testing.T, s *Scheduler, clk *clock.Fake) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitFor(t, "tickers", func() bool { return clk.Tickers() == 2 })
}

func TestRunChecksImmediatelyAndOnTick(t *testing.T) {
	clk := clock.NewFake(t0)
	engine := &mockEngine{}
	items := &mockItems{items: []model.Item{{ID: 1, Name: "Milk"}}}
	s := New(engine, items, testLogger(), WithClock(clk), WithTickInterval(time.Minute))

	startRun(t, s, clk)
	waitFor(t, "initial check", func() bool { return len(engine.getProcessed()) == 1 })

	clk.Advance(time.Minute)
	waitFor(t, "tick check", func() bool { return len(engine.getProcessed()) == 2 })

	if diff := cmp.Diff([]time.Time{t0, t0.Add(time.Minute)}, engine.getProcessed()); diff != "" {
		t.Errorf("process times (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, engine.setupCount()); diff != "" {
		t.Errorf("setup calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, len(engine.getCleanups())); diff != "" {
		t.Errorf("cleanup calls before interval (-want +got):\n%s", diff)
	}
}

func TestRunCleansUpOnInterval(t *testing.T) {
	clk := clock.NewFake(t0)
	engine := &mockEngine{}
	s := New(engine, &mockItems{}, testLogger(),
		WithClock(clk),
		WithTickInterval(time.Hour),
		WithCleanupInterval(24*time.Hour),
		WithRetentionDays(14),
	)

	startRun(t, s, clk)
	clk.Advance(24 * time.Hour)
	waitFor(t, "cleanup", func() bool { return len(engine.getCleanups()) == 1 })

	want := []cleanupCall{{Now: t0.Add(24 * time.Hour), Retention: 14}}
	if diff := cmp.Diff(want, engine.getCleanups()); diff != "" {
		t.Errorf("cleanup calls (-want +got):\n%s", diff)
	}
}

func TestCheckDueProcessesWhenItemListFails(t *testing.T) {
	engine := &mockEngine{}
	s := New(engine, &mockItems{err: errors.New("db locked")}, testLogger(), WithClock(clock.NewFake(t0)))

	s.checkDue(context.Background())

	if diff := cmp.Diff(0, engine.setupCount()); diff != "" {
		t.Errorf("setup calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, len(engine.getProcessed())); diff != "" {
		t.Errorf("process calls (-want +got):\n%s", diff)
	}
}

func TestStartStop(t *testing.T) {
	clk := clock.NewFake(t0)
	engine := &mockEngine{}
	s := New(engine, &mockItems{}, testLogger(), WithClock(clk))

	s.Start(context.Background())
	s.Start(context.Background())
	waitFor(t, "tickers", func() bool { return clk.Tickers() == 2 })

	s.Stop()
	if diff := cmp.Diff(0, clk.Tickers()); diff != "" {
		t.Errorf("tickers after stop (-want +got):\n%s", diff)
	}
	s.Stop()

	if diff := cmp.Diff(1, len(engine.getProcessed())); diff != "" {
		t.Errorf("process calls (-want +got):\n%s", diff)
	}
}

func TestSchedulerFiresExpiryReminders(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	shelfLife := 1
	item := model.Item{Name: "Salmon", Category: "meat", PurchaseDate: "2026-05-20", ShelfLifeDays: &shelfLife}
	if err := store.CreateItem(ctx, &item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	clk := clock.NewFake(t0)
	log := testLogger()
	disp := notify.NewDispatcher(notify.NewCenter(0), log, notify.WithNow(clk.Now), notify.WithActivityRecorder(store))
	engine := reminder.New(store, disp, reminder.WithClock(clk), reminder.WithLogger(log))
	if err := engine.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	s := New(engine, store, log, WithClock(clk), WithTickInterval(time.Hour))
	startRun(t, s, clk)

	// The warning is due immediately: one day left, so it is dated now.
	waitFor(t, "warning", func() bool { return disp.UnreadCount() == 1 })

	clk.Advance(12 * time.Hour)
	waitFor(t, "expired reminder", func() bool { return disp.UnreadCount() == 2 })

	var types []model.ReminderType
	for _, e := range disp.Center().List() {
		types = append(types, e.Type)
	}
	if diff := cmp.Diff([]model.ReminderType{model.ReminderExpired, model.ReminderExpiryWarning}, types); diff != "" {
		t.Errorf("center entries (-want +got):\n%s", diff)
	}

	waitFor(t, "persisted reminders", func() bool {
		saved, err := store.LoadReminders(ctx)
		if err != nil || len(saved) != 2 {
			return false
		}
		for _, r := range saved {
			if !r.IsSent {
				return false
			}
		}
		return true
	})

	activity, err := store.ListActivity(ctx, 0)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if diff := cmp.Diff(2, len(activity)); diff != "" {
		t.Errorf("activity entries (-want +got):\n%s", diff)
	}
}
