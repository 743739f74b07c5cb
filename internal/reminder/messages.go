package reminder

import (
	"fmt"

	"grocery_bot/internal/model"
)

// Message renders the notification text for a reminder about item.
func Message(item model.Item, t model.ReminderType, daysUntilExpiry int) string {
	switch t {
	case model.ReminderExpiryWarning:
		return fmt.Sprintf("⚠️ %s expires in %d day(s)!", item.Name, daysUntilExpiry)
	case model.ReminderExpired:
		return fmt.Sprintf("🚨 %s has expired! Please remove from list.", item.Name)
	case model.ReminderPurchase:
		return fmt.Sprintf("🛒 Don't forget to buy %s!", item.Name)
	case model.ReminderShoppingList:
		return fmt.Sprintf("📝 You have %d %s on your shopping list.", item.Quantity, item.Name)
	default:
		return fmt.Sprintf("Reminder about %s", item.Name)
	}
}

// PriorityFor derives a reminder's priority from its type and the item's priority.
func PriorityFor(t model.ReminderType, itemPriority model.Priority) model.Priority {
	switch {
	case t == model.ReminderExpired || itemPriority == model.PriorityHigh:
		return model.PriorityHigh
	case t == model.ReminderExpiryWarning:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
