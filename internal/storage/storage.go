// Package storage defines the persistence interfaces and their SQLite implementation.
package storage

import (
	"context"
	"errors"

	"grocery_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ActivityLimit is the number of activity entries kept.
const ActivityLimit = 100

// ItemStore persists grocery items.
type ItemStore interface {
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	ListActiveItems(ctx context.Context) ([]model.Item, error)
	UpdateItem(ctx context.Context, item *model.Item) error
	SetCompleted(ctx context.Context, id int64, completed bool) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	DeleteCompleted(ctx context.Context) ([]int64, error)
	DeleteItems(ctx context.Context, ids []int64) (int, error)
}

// ReminderStore persists the reminder collection as a snapshot.
type ReminderStore interface {
	LoadReminders(ctx context.Context) ([]model.Reminder, error)
	SaveReminders(ctx context.Context, reminders []model.Reminder) error
}

// ActivityStore persists reminder activity.
type ActivityStore interface {
	RecordActivity(ctx context.Context, a model.Activity) error
	ListActivity(ctx context.Context, limit int) ([]model.Activity, error)
}

// SubscriberStore persists chats that receive reminder notifications.
type SubscriberStore interface {
	AddSubscriber(ctx context.Context, chatID int64) error
	RemoveSubscriber(ctx context.Context, chatID int64) error
	ListSubscribers(ctx context.Context) ([]int64, error)
}

// Storage is the interface for all persistence operations.
type Storage interface {
	ItemStore
	ReminderStore
	ActivityStore
	SubscriberStore

	Close() error
}
