package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"grocery_bot/internal/config"
	"grocery_bot/internal/model"
)

func TestOpen(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.DatabasePath = filepath.Join(t.TempDir(), "nested", "grocery.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	a, err := Open(ctx, cfg, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	item := model.Item{Name: "Milk", Category: "dairy", Quantity: 1, Priority: model.PriorityMedium, PurchaseDate: "2026-05-19"}
	if err := a.Store.CreateItem(ctx, &item); err != nil {
		t.Fatalf("create item: %v", err)
	}
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	n, err := a.Engine.SetupExpiryReminders(ctx, []model.Item{item}, now)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if n != 2 {
		t.Fatalf("created %d reminders, want 2", n)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(ctx, cfg, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got := reopened.Engine.ItemReminders(item.ID)
	if len(got) != 2 {
		t.Fatalf("reloaded %d reminders, want 2", len(got))
	}
	wantChannels := []model.Channel{model.ChannelInApp, model.ChannelTelegram}
	if diff := cmp.Diff(wantChannels, got[0].Channels); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("GROCERY_CONFIG", "/etc/grocery.yaml")

	if got := ConfigPath("local.yaml"); got != "local.yaml" {
		t.Errorf("flag value ignored, got %q", got)
	}
	if got := ConfigPath(""); got != "/etc/grocery.yaml" {
		t.Errorf("env value ignored, got %q", got)
	}
}
