package bot

import (
	"fmt"
	"strings"
	"time"

	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
	"grocery_bot/internal/notify"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/report"
)

const dateLayout = "2006-01-02"

// FormatNotification formats a reminder notification as a Telegram message.
func FormatNotification(n notify.Notification) string {
	return fmt.Sprintf("🔔 %s\n\n%s", n.Title, n.Body)
}

// FormatItemList formats the grocery list with the freshness of each item.
func FormatItemList(items []model.Item, calc expiry.Calculator, resolver expiry.ShelfLifeResolver, now time.Time) string {
	if len(items) == 0 {
		return "Your list is empty. Use /add <name> to add an item."
	}
	var b strings.Builder
	b.WriteString("Your groceries:\n")
	for _, item := range items {
		mark := "☐"
		if item.Completed {
			mark = "☑"
		}
		fmt.Fprintf(&b, "\n%s #%d %s", mark, item.ID, item.Name)
		if item.Quantity > 1 {
			fmt.Fprintf(&b, " x%d", item.Quantity)
		}
		fmt.Fprintf(&b, " [%s]", item.Category)
		if item.Priority == model.PriorityHigh {
			b.WriteString(" !")
		}
		b.WriteString("\n")

		state, err := calc.ComputeItem(item, resolver, now)
		if err != nil {
			b.WriteString("   invalid purchase date\n")
			continue
		}
		fmt.Fprintf(&b, "   %s (expires %s)\n", expiry.DescribeStatus(state), state.ExpirationDate.Format(dateLayout))
	}
	return b.String()
}

// FormatItemAdded confirms a new item.
func FormatItemAdded(item model.Item, state model.ExpiryState) string {
	return fmt.Sprintf("Added #%d \"%s\" [%s].\nShelf life %d days, expires %s (%s).",
		item.ID, item.Name, item.Category, state.ShelfLifeDays,
		state.ExpirationDate.Format(dateLayout), expiry.DescribeStatus(state))
}

// FormatReport formats an expiry report grouped by status.
func FormatReport(r report.Report) string {
	if r.Total == 0 && len(r.Invalid) == 0 {
		return "No active items to report on."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Expiry report (%s)\n", r.GeneratedAt.Format(dateLayout))
	fmt.Fprintf(&b, "Total: %d  Expired: %d  Expiring soon: %d  Fresh: %d\n",
		r.Total, r.ExpiredCount, r.ExpiringSoonCount, r.FreshCount)

	writeGroup := func(title string, entries []report.Entry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, e := range entries {
			fmt.Fprintf(&b, "  #%d %s - %s\n", e.Item.ID, e.Item.Name, expiry.DescribeStatus(e.State))
		}
	}
	writeGroup("🚨 Expired", r.Expired)
	writeGroup(fmt.Sprintf("⚠️ Expiring within %d days", r.ThresholdDays), r.ExpiringSoon)
	writeGroup("✅ Fresh", r.Fresh)

	if len(r.Invalid) > 0 {
		b.WriteString("\nCould not classify:\n")
		for _, inv := range r.Invalid {
			fmt.Fprintf(&b, "  #%d %s - %v\n", inv.ItemID, inv.Name, inv.Err)
		}
	}
	return b.String()
}

// FormatReminderList formats active reminders in date order.
func FormatReminderList(rs []model.Reminder) string {
	if len(rs) == 0 {
		return "No active reminders."
	}
	var b strings.Builder
	b.WriteString("Active reminders:\n")
	for _, r := range rs {
		state := "pending"
		if r.IsSent {
			state = "sent"
		}
		fmt.Fprintf(&b, "\n%s %s [%s, %s]\n", r.ReminderDate.Format("2006-01-02 15:04"), r.ItemName, typeLabel(r.Type), state)
		if r.Recurring {
			fmt.Fprintf(&b, "   every %s, occurrence %d", r.Frequency, r.Occurrence)
			if r.MaxOccurrences > 0 {
				fmt.Fprintf(&b, " of %d", r.MaxOccurrences)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "   id: %s\n", r.ID)
	}
	return b.String()
}

// FormatNotifications formats the notification center, newest first.
func FormatNotifications(entries []notify.Entry, unread int) string {
	if len(entries) == 0 {
		return "No notifications yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Notifications (%d unread):\n", unread)
	for _, e := range entries {
		mark := " "
		if !e.Read {
			mark = "•"
		}
		fmt.Fprintf(&b, "\n%s %s %s\n   id: %s\n", mark, e.Timestamp.Format("2006-01-02 15:04"), e.Message, e.ReminderID)
	}
	return b.String()
}

// FormatStats formats reminder statistics and recent activity.
func FormatStats(s reminder.Stats, activity []model.Activity) string {
	var b strings.Builder
	b.WriteString("Reminder statistics:\n")
	fmt.Fprintf(&b, "Total: %d\nActive: %d\nPending: %d\nSent: %d\nUnread notifications: %d\n",
		s.Total, s.Active, s.Pending, s.Sent, s.UnreadNotifications)

	var sent, clicked int
	for _, a := range activity {
		switch a.Action {
		case model.ActivitySent:
			sent++
		case model.ActivityClicked:
			clicked++
		}
	}
	fmt.Fprintf(&b, "\nRecent activity: %d sent, %d acknowledged\n", sent, clicked)
	return b.String()
}

// FormatShelfLife formats a shelf-life lookup.
func FormatShelfLife(args ShelfArgs, days int) string {
	switch {
	case args.Name == "":
		return fmt.Sprintf("Category %s keeps about %d days.", args.Category, days)
	case args.Category == "":
		return fmt.Sprintf("%s keeps about %d days.", args.Name, days)
	default:
		return fmt.Sprintf("%s (%s) keeps about %d days.", args.Name, args.Category, days)
	}
}

func typeLabel(t model.ReminderType) string {
	switch t {
	case model.ReminderExpiryWarning:
		return "expiry warning"
	case model.ReminderExpired:
		return "expired"
	case model.ReminderPurchase:
		return "purchase"
	case model.ReminderShoppingList:
		return "shopping list"
	default:
		return string(t)
	}
}
