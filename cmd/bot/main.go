package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"grocery_bot/internal/app"
	"grocery_bot/internal/bot"
	"grocery_bot/internal/config"
	"grocery_bot/internal/model"
	"grocery_bot/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default: $GROCERY_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(app.ConfigPath(*configPath))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireToken(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open app", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, a.Store, a.Engine, a.Center, cfg, log,
		bot.WithCalculator(a.Calc),
		bot.WithResolver(a.Resolver),
	)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}
	a.Dispatcher.Register(model.ChannelTelegram, b.Channel())
	if err := b.LoadSubscribers(ctx); err != nil {
		log.Error("load subscribers", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(a.Engine, a.Store, log,
		scheduler.WithTickInterval(cfg.TickInterval()),
		scheduler.WithCleanupInterval(cfg.CleanupInterval()),
		scheduler.WithRetentionDays(cfg.RetentionDays),
	)

	log.Info("starting bot")

	sched.Start(ctx)
	b.Run(ctx)
	sched.Stop()

	log.Info("bot stopped")
}
