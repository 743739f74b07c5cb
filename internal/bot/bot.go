package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grocery_bot/internal/clock"
	"grocery_bot/internal/config"
	"grocery_bot/internal/expiry"
	"grocery_bot/internal/notify"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/shelflife"
	"grocery_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that manages the grocery list and delivers reminders.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	engine   *reminder.Engine
	center   *notify.Center
	channel  *Channel
	calc     expiry.Calculator
	resolver *shelflife.Resolver
	cfg      *config.Config
	clock    clock.Clock
	log      *slog.Logger
}

// Option configures a Bot.
type Option func(*Bot)

// WithClock sets the time source used for expiry calculations.
func WithClock(c clock.Clock) Option {
	return func(b *Bot) { b.clock = c }
}

// WithCalculator sets the expiry calculator shared with the reminder engine.
func WithCalculator(c expiry.Calculator) Option {
	return func(b *Bot) { b.calc = c }
}

// WithResolver sets the shelf-life resolver shared with the reminder engine.
func WithResolver(r *shelflife.Resolver) Option {
	return func(b *Bot) { b.resolver = r }
}

// New creates a Bot with the given Telegram token.
func New(token string, store storage.Storage, engine *reminder.Engine, center *notify.Center,
	cfg *config.Config, log *slog.Logger, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, store, engine, center, cfg, log, opts...), nil
}

func newBot(api telegramAPI, store storage.Storage, engine *reminder.Engine, center *notify.Center,
	cfg *config.Config, log *slog.Logger, opts ...Option) *Bot {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Bot{
		api:      api,
		store:    store,
		engine:   engine,
		center:   center,
		calc:     expiry.NewCalculator(cfg.ExpiryThresholdDays),
		resolver: shelflife.New(cfg.ShelfLifeOverrides),
		cfg:      cfg,
		clock:    clock.Real{},
		log:      log,
	}
	b.channel = newChannel(api, log)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Channel returns the notification channel that delivers reminders to subscribed chats.
func (b *Bot) Channel() *Channel {
	return b.channel
}

// LoadSubscribers restores the subscribed chats from storage.
func (b *Bot) LoadSubscribers(ctx context.Context) error {
	ids, err := b.store.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	b.channel.setChats(ids)
	return nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID)
	case "stop":
		b.handleStop(ctx, chatID)
	case "help":
		b.handleHelp(chatID)
	case "add":
		b.handleAdd(ctx, chatID, args)
	case "list":
		b.handleList(ctx, chatID)
	case cmdDone:
		b.handleDone(ctx, chatID, args)
	case cmdRemove:
		b.handleRemove(ctx, chatID, args)
	case "clear":
		b.handleClear(ctx, chatID)
	case "clearexpired":
		b.handleClearExpired(ctx, chatID)
	case "report":
		b.handleReport(ctx, chatID)
	case "export":
		b.handleExport(ctx, chatID)
	case "shelf":
		b.handleShelf(chatID, args)
	case "reminders":
		b.handleReminders(chatID)
	case "notifications":
		b.handleNotifications(chatID)
	case "read":
		b.handleRead(ctx, chatID, args)
	case "stats":
		b.handleStats(ctx, chatID)
	case "remind":
		b.handleRemind(ctx, chatID, args)
	case "cancel":
		b.handleCancel(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
