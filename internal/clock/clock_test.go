package clock

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFakeAdvanceFiresTicker(t *testing.T) {
	f := NewFake(t0)
	tk := f.NewTicker(time.Minute)
	defer tk.Stop()

	f.Advance(30 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its period elapsed")
	default:
	}

	f.Advance(30 * time.Second)
	select {
	case got := <-tk.C():
		if diff := cmp.Diff(t0.Add(time.Minute), got); diff != "" {
			t.Errorf("tick time (-want +got):\n%s", diff)
		}
	default:
		t.Fatal("expected a tick after one period")
	}
}

func TestFakeAdvanceDropsTicksForSlowReceiver(t *testing.T) {
	f := NewFake(t0)
	tk := f.NewTicker(time.Minute)

	f.Advance(5 * time.Minute)

	count := 0
	for {
		select {
		case <-tk.C():
			count++
			continue
		default:
		}
		break
	}
	if diff := cmp.Diff(1, count); diff != "" {
		t.Errorf("buffered ticks (-want +got):\n%s", diff)
	}
}

func TestFakeStopRemovesTicker(t *testing.T) {
	f := NewFake(t0)
	a := f.NewTicker(time.Second)
	f.NewTicker(time.Hour)
	if diff := cmp.Diff(2, f.Tickers()); diff != "" {
		t.Errorf("tickers before stop (-want +got):\n%s", diff)
	}
	a.Stop()
	if diff := cmp.Diff(1, f.Tickers()); diff != "" {
		t.Errorf("tickers after stop (-want +got):\n%s", diff)
	}
}

func TestFakeNow(t *testing.T) {
	f := NewFake(t0)
	f.Advance(90 * time.Minute)
	if diff := cmp.Diff(t0.Add(90*time.Minute), f.Now()); diff != "" {
		t.Errorf("Now (-want +got):\n%s", diff)
	}
	f.Set(t0)
	if diff := cmp.Diff(t0, f.Now()); diff != "" {
		t.Errorf("Now after Set (-want +got):\n%s", diff)
	}
}
