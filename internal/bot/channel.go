package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grocery_bot/internal/notify"
)

// Channel delivers reminder notifications to every subscribed chat.
type Channel struct {
	api telegramAPI
	log *slog.Logger

	mu    sync.RWMutex
	chats []int64
}

func newChannel(api telegramAPI, log *slog.Logger) *Channel {
	return &Channel{api: api, log: log}
}

// CanDeliver reports whether at least one chat is subscribed.
func (c *Channel) CanDeliver() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chats) > 0
}

// Send posts the notification to each subscribed chat. High-priority
// notifications carry an acknowledge button; low-priority ones are silent.
func (c *Channel) Send(ctx context.Context, n notify.Notification) error {
	var errs []error
	for _, chatID := range c.Chats() {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, FormatNotification(n))
		msg.DisableWebPagePreview = true
		msg.DisableNotification = n.Silent
		if n.RequireInteraction {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Got it", actionAck+":"+n.ReminderID),
				),
			)
		}
		if _, err := c.api.Send(msg); err != nil {
			c.log.Error("send reminder", "chat_id", chatID, "reminder_id", n.ReminderID, "error", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// Chats returns the subscribed chat IDs.
func (c *Channel) Chats() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.chats)
}

func (c *Channel) setChats(ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats = slices.Clone(ids)
}

func (c *Channel) subscribe(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.chats, chatID) {
		c.chats = append(c.chats, chatID)
	}
}

func (c *Channel) unsubscribe(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats = slices.DeleteFunc(c.chats, func(id int64) bool { return id == chatID })
}
