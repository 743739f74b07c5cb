// Package model defines the domain types used across the application.
package model

import "time"

// Priority is the urgency level shared by items and reminders.
type Priority string

// Supported priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Item is a grocery item tracked in the inventory.
type Item struct {
	ID             int64
	Name           string
	Category       string
	Quantity       int
	Priority       Priority
	PurchaseDate   string // as entered; empty means CreatedAt
	Completed      bool
	ShelfLifeDays  *int // explicit override of the resolved shelf life
	EstimatedPrice float64
	Notes          string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// ExpiryStatus is the freshness classification of an item.
type ExpiryStatus string

// Supported expiry statuses.
const (
	StatusFresh        ExpiryStatus = "fresh"
	StatusExpiringSoon ExpiryStatus = "expiring_soon"
	StatusExpired      ExpiryStatus = "expired"
)

// ExpiryState is the derived freshness of an item at a given instant.
// It is computed on demand and never stored.
type ExpiryState struct {
	ExpirationDate  time.Time
	DaysUntilExpiry int
	Status          ExpiryStatus
	ShelfLifeDays   int
}

// ReminderType identifies why a reminder exists.
type ReminderType string

// Supported reminder types.
const (
	ReminderExpiryWarning ReminderType = "EXPIRY_WARNING"
	ReminderExpired       ReminderType = "EXPIRED"
	ReminderPurchase      ReminderType = "PURCHASE_REMINDER"
	ReminderShoppingList  ReminderType = "SHOPPING_LIST"
)

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderExpiryWarning, ReminderExpired, ReminderPurchase, ReminderShoppingList:
		return true
	}
	return false
}

// Channel identifies a notification delivery channel.
type Channel string

// Supported channels.
const (
	ChannelInApp    Channel = "in_app"
	ChannelTelegram Channel = "telegram"
)

// Reminder is a scheduled notification about an item.
type Reminder struct {
	ID           string
	ItemID       int64
	ItemName     string
	Type         ReminderType
	Priority     Priority
	Message      string
	ReminderDate time.Time
	CreatedDate  time.Time
	SentDate     *time.Time
	IsActive     bool
	IsSent       bool
	Recurring    bool
	Frequency    time.Duration
	Channels     []Channel

	// Occurrence is the 1-based position of this record in its recurrence chain.
	Occurrence int
	// MaxOccurrences bounds a recurrence chain; zero means unbounded.
	MaxOccurrences int
	// EndDate stops a recurrence chain once the next date would pass it.
	EndDate *time.Time

	DeactivatedDate *time.Time
	InteractedDate  *time.Time
}

// Pending reports whether the reminder is still waiting to fire.
func (r *Reminder) Pending() bool {
	return r.IsActive && !r.IsSent
}

// ActivityAction describes what happened to a reminder.
type ActivityAction string

// Supported activity actions.
const (
	ActivitySent    ActivityAction = "sent"
	ActivityClicked ActivityAction = "clicked"
)

// Activity is an audit entry for a reminder event.
type Activity struct {
	ID         int64
	ReminderID string
	ItemID     int64
	Action     ActivityAction
	Type       ReminderType
	Priority   Priority
	Timestamp  time.Time
}
