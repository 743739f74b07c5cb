// Package app wires the storage, notification and reminder layers shared by
// the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"grocery_bot/internal/config"
	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
	"grocery_bot/internal/notify"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/shelflife"
	"grocery_bot/internal/storage"
)

// App holds the components built from a configuration.
type App struct {
	Config     *config.Config
	Store      *storage.SQLite
	Center     *notify.Center
	Dispatcher *notify.Dispatcher
	Engine     *reminder.Engine
	Calc       expiry.Calculator
	Resolver   *shelflife.Resolver
}

// Open creates the data directory, opens the database and loads the
// persisted reminders. The in-app channel is registered; callers add the
// rest.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." && cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		Config:   cfg,
		Store:    store,
		Center:   notify.NewCenter(0),
		Calc:     expiry.NewCalculator(cfg.ExpiryThresholdDays),
		Resolver: shelflife.New(cfg.ShelfLifeOverrides),
	}
	a.Dispatcher = notify.NewDispatcher(a.Center, log, notify.WithActivityRecorder(store))
	a.Dispatcher.Register(model.ChannelInApp, notify.NewLogChannel(log))

	a.Engine = reminder.New(store, a.Dispatcher,
		reminder.WithLogger(log),
		reminder.WithWarningWindow(cfg.WarningWindowDays),
		reminder.WithCalculator(a.Calc),
		reminder.WithResolver(a.Resolver),
		reminder.WithDefaultChannels(cfg.DefaultChannels...),
	)
	if err := a.Engine.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}

// NewLogger returns a text logger on stderr at the named level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ConfigPath returns the config file named by flagValue or GROCERY_CONFIG.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(config.EnvPrefix + "CONFIG")
}
