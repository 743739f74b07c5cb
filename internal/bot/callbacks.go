package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grocery_bot/internal/reminder"
)

const (
	cmdDone   = "done"
	cmdRemove = "remove"

	actionAck           = "ack"
	actionRemoveConfirm = "remove_confirm"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	action, arg, ok := strings.Cut(cb.Data, ":")
	if !ok || arg == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case actionAck:
		// Reminder IDs are UUIDs, not item IDs.
		switch err := b.engine.HandleReminderClick(ctx, arg); {
		case errors.Is(err, reminder.ErrReminderNotFound):
			b.reply(chatID, "Reminder not found.")
		case err != nil:
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
		default:
			b.reply(chatID, "Got it, reminder marked as read.")
		}
	case cmdDone:
		b.handleDone(ctx, chatID, arg)
	case actionRemoveConfirm:
		id, err := ParseIDArg(arg)
		if err != nil {
			return
		}
		item, err := b.store.GetItem(ctx, id)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Item #%d not found.", id))
			return
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete #%d \"%s\"? This cannot be undone.", id, item.Name))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Yes, delete", fmt.Sprintf("%s:%d", cmdRemove, id)),
				tgbotapi.NewInlineKeyboardButtonData("Cancel", "noop:0"),
			),
		)
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send delete confirmation", "error", err)
		}
	case cmdRemove:
		b.handleRemove(ctx, chatID, arg)
	}
}
