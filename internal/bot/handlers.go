package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grocery_bot/internal/model"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/report"
	"grocery_bot/internal/storage"
)

// maxListButtons caps the inline keyboard attached to /list.
const maxListButtons = 10

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	if err := b.store.AddSubscriber(ctx, chatID); err != nil {
		b.log.Error("add subscriber", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Failed to subscribe: %v", err))
		return
	}
	b.channel.subscribe(chatID)

	b.reply(chatID, `Welcome to Grocery Bot!

Track what you buy and get reminded before it goes bad.

Quick start:
1. /add milk cat=dairy - add an item
2. /list - see your groceries and their freshness
3. /report - see what expires soon

This chat now receives reminders. Use /stop to unsubscribe.
Use /help for the full command reference.`)
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) {
	if err := b.store.RemoveSubscriber(ctx, chatID); err != nil {
		b.log.Error("remove subscriber", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Failed to unsubscribe: %v", err))
		return
	}
	b.channel.unsubscribe(chatID)
	b.reply(chatID, "This chat no longer receives reminders. Use /start to subscribe again.")
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Groceries:
/add <name> [qty=N] [cat=category] [pri=low|medium|high] [date=YYYY-MM-DD] [shelf=days] [price=N] [notes=text]
/list - show all items
/done <id> - toggle an item completed
/remove <id> - delete an item
/clear - delete completed items
/clearexpired - delete expired items

Freshness:
/report - expiry report
/export - expiry report as CSV
/shelf <name> [category] - look up shelf life

Reminders:
/reminders - active reminders
/remind <item_id> <warning|expired|purchase|shopping> <now|+2h|+3d|YYYY-MM-DD> [every <duration>] [times <n>] [until <date>]
/cancel <reminder_id> - cancel a reminder
/notifications - recent notifications
/read <reminder_id|all> - mark notifications read
/stats - reminder statistics

Categories: fruits, vegetables, dairy, meat, pantry, beverages, snacks, frozen, household, other`)
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /add <name> [qty=N] [cat=category] [pri=priority] [date=YYYY-MM-DD]")
		return
	}

	in, err := ParseAddArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Invalid item: %v", err))
		return
	}

	item := in.Item()
	if err := b.store.CreateItem(ctx, &item); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save item: %v", err))
		return
	}

	now := b.clock.Now()
	state, err := b.calc.ComputeItem(item, b.resolver, now)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Added #%d \"%s\", but its purchase date is invalid: %v", item.ID, item.Name, err))
		return
	}
	if _, err := b.engine.SetupExpiryReminders(ctx, []model.Item{item}, now); err != nil {
		b.log.Error("setup expiry reminders", "item_id", item.ID, "error", err)
	}
	b.reply(chatID, FormatItemAdded(item, state))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	items, err := b.store.ListItems(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatItemList(items, b.calc, b.resolver, b.clock.Now()))
	msg.DisableWebPagePreview = true

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		if item.Completed {
			continue
		}
		if len(rows) == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✓ #%d %s", item.ID, item.Name), fmt.Sprintf("%s:%d", cmdDone, item.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Delete", fmt.Sprintf("%s:%d", actionRemoveConfirm, item.ID)),
		))
	}
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send item list", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /done <id>")
		return
	}

	current, err := b.store.GetItem(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Item #%d not found.", id))
		return
	}
	item, err := b.store.SetCompleted(ctx, id, !current.Completed)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	if item.Completed {
		if _, err := b.engine.DeactivateItemReminders(ctx, item.ID); err != nil {
			b.log.Error("deactivate item reminders", "item_id", item.ID, "error", err)
		}
		b.reply(chatID, fmt.Sprintf("#%d \"%s\" marked as done.", item.ID, item.Name))
		return
	}

	if _, err := b.engine.SetupExpiryReminders(ctx, []model.Item{*item}, b.clock.Now()); err != nil {
		b.log.Error("setup expiry reminders", "item_id", item.ID, "error", err)
	}
	b.reply(chatID, fmt.Sprintf("#%d \"%s\" is back on the list.", item.ID, item.Name))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <id>")
		return
	}

	item, err := b.store.GetItem(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Item #%d not found.", id))
		return
	}
	if err := b.store.DeleteItem(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error deleting item: %v", err))
		return
	}
	if _, err := b.engine.DeactivateItemReminders(ctx, id); err != nil {
		b.log.Error("deactivate item reminders", "item_id", id, "error", err)
	}
	b.reply(chatID, fmt.Sprintf("Item #%d \"%s\" deleted.", id, item.Name))
}

func (b *Bot) handleClear(ctx context.Context, chatID int64) {
	ids, err := b.store.DeleteCompleted(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.deactivateAll(ctx, ids)
	b.reply(chatID, fmt.Sprintf("Removed %d completed item(s).", len(ids)))
}

func (b *Bot) handleClearExpired(ctx context.Context, chatID int64) {
	r, err := b.buildReport(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	ids := r.ExpiredItemIDs()
	if len(ids) == 0 {
		b.reply(chatID, "No expired items.")
		return
	}
	n, err := b.store.DeleteItems(ctx, ids)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.deactivateAll(ctx, ids)
	b.reply(chatID, fmt.Sprintf("Removed %d expired item(s).", n))
}

func (b *Bot) deactivateAll(ctx context.Context, ids []int64) {
	for _, id := range ids {
		if _, err := b.engine.DeactivateItemReminders(ctx, id); err != nil {
			b.log.Error("deactivate item reminders", "item_id", id, "error", err)
		}
	}
}

func (b *Bot) buildReport(ctx context.Context) (report.Report, error) {
	items, err := b.store.ListActiveItems(ctx)
	if err != nil {
		return report.Report{}, fmt.Errorf("list active items: %w", err)
	}
	return report.Build(items, b.calc, b.resolver, b.clock.Now()), nil
}

func (b *Bot) handleReport(ctx context.Context, chatID int64) {
	r, err := b.buildReport(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatReport(r))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	r, err := b.buildReport(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, r); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to export: %v", err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("grocery-expiry-report-%s.csv", r.GeneratedAt.Format(dateLayout)),
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("%d item(s): %d expired, %d expiring soon", r.Total, r.ExpiredCount, r.ExpiringSoonCount)
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send export", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleShelf(chatID int64, args string) {
	parsed, err := ParseShelfArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.reply(chatID, FormatShelfLife(parsed, b.resolver.Resolve(parsed.Name, parsed.Category)))
}

func (b *Bot) handleReminders(chatID int64) {
	b.reply(chatID, FormatReminderList(b.engine.ActiveReminders()))
}

func (b *Bot) handleNotifications(chatID int64) {
	b.reply(chatID, FormatNotifications(b.center.List(), b.center.UnreadCount()))
}

func (b *Bot) handleRead(ctx context.Context, chatID int64, args string) {
	switch args {
	case "":
		b.reply(chatID, "Usage: /read <reminder_id|all>")
	case "all":
		b.center.MarkAllRead()
		b.reply(chatID, "All notifications marked as read.")
	default:
		switch err := b.engine.HandleReminderClick(ctx, args); {
		case errors.Is(err, reminder.ErrReminderNotFound):
			b.reply(chatID, "Reminder not found.")
		case err != nil:
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
		default:
			b.reply(chatID, "Notification marked as read.")
		}
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	activity, err := b.store.ListActivity(ctx, storage.ActivityLimit)
	if err != nil {
		b.log.Error("list activity", "error", err)
	}
	b.reply(chatID, FormatStats(b.engine.Statistics(), activity))
}

func (b *Bot) handleRemind(ctx context.Context, chatID int64, args string) {
	now := b.clock.Now()
	parsed, err := ParseRemindArgs(args, now)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	item, err := b.store.GetItem(ctx, parsed.ItemID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Item #%d not found.", parsed.ItemID))
		return
	}

	var days int
	if state, err := b.calc.ComputeItem(*item, b.resolver, now); err == nil {
		days = state.DaysUntilExpiry
	}

	r, created, err := b.engine.CreateReminder(ctx, reminder.CreateParams{
		Item:            *item,
		Type:            parsed.Type,
		ReminderDate:    parsed.At,
		DaysUntilExpiry: days,
		Recurring:       parsed.Frequency > 0,
		Frequency:       parsed.Frequency,
		MaxOccurrences:  parsed.MaxOccurrences,
		EndDate:         parsed.EndDate,
	})
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !created {
		b.reply(chatID, fmt.Sprintf("A pending %s reminder for \"%s\" already exists (%s).\nid: %s",
			typeLabel(r.Type), r.ItemName, r.ReminderDate.Format("2006-01-02 15:04"), r.ID))
		return
	}
	b.reply(chatID, fmt.Sprintf("Reminder scheduled for %s: %s\nid: %s",
		r.ReminderDate.Format("2006-01-02 15:04"), r.Message, r.ID))
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /cancel <reminder_id>")
		return
	}
	switch err := b.engine.DeactivateReminder(ctx, args); {
	case errors.Is(err, reminder.ErrReminderNotFound):
		b.reply(chatID, "Reminder not found.")
	case err != nil:
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
	default:
		b.reply(chatID, "Reminder cancelled.")
	}
}
