// Package notify delivers due reminders through notification channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grocery_bot/internal/model"
)

// Title is the heading of every reminder notification.
const Title = "Grocery Reminder"

// Notification is the payload handed to a channel.
type Notification struct {
	ReminderID         string
	ItemID             int64
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
	Silent             bool
	Type               model.ReminderType
	Priority           model.Priority
}

// Channel is an external delivery target.
type Channel interface {
	// CanDeliver reports whether the channel currently has permission to send.
	CanDeliver() bool
	// Send delivers a notification. Delivery is best effort.
	Send(ctx context.Context, n Notification) error
}

// ActivityRecorder persists reminder events.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, a model.Activity) error
}

// Dispatcher fans a reminder out to its channels and records it in the center.
type Dispatcher struct {
	channels map[model.Channel]Channel
	center   *Center
	activity ActivityRecorder
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithActivityRecorder records a "sent" activity for every dispatch.
func WithActivityRecorder(r ActivityRecorder) Option {
	return func(d *Dispatcher) { d.activity = r }
}

// WithNow overrides the timestamp source for center entries.
func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher writing to center.
func NewDispatcher(center *Center, log *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		channels: make(map[model.Channel]Channel),
		center:   center,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds or replaces the channel for id.
func (d *Dispatcher) Register(id model.Channel, ch Channel) {
	d.channels[id] = ch
}

// Center returns the notification center.
func (d *Dispatcher) Center() *Center {
	return d.center
}

// Dispatch delivers r through each of its channels. Channel failures are
// logged and never returned; the center always receives an entry.
func (d *Dispatcher) Dispatch(ctx context.Context, r model.Reminder) {
	n := Build(r)

	for _, id := range r.Channels {
		ch, ok := d.channels[id]
		if !ok {
			d.log.Debug("unknown channel", "channel", id, "reminder_id", r.ID)
			continue
		}
		if !ch.CanDeliver() {
			continue
		}
		if err := ch.Send(ctx, n); err != nil {
			d.log.Error("deliver notification", "channel", id, "reminder_id", r.ID, "error", err)
		}
	}

	now := d.now()
	d.center.Add(Entry{
		ReminderID: r.ID,
		ItemID:     r.ItemID,
		ItemName:   r.ItemName,
		Message:    r.Message,
		Type:       r.Type,
		Priority:   r.Priority,
		Timestamp:  now,
	})

	d.log.Info("reminder sent", "reminder_id", r.ID, "item_id", r.ItemID, "type", r.Type, "priority", r.Priority)
	if d.activity != nil {
		err := d.activity.RecordActivity(ctx, model.Activity{
			ReminderID: r.ID,
			ItemID:     r.ItemID,
			Action:     model.ActivitySent,
			Type:       r.Type,
			Priority:   r.Priority,
			Timestamp:  now,
		})
		if err != nil {
			d.log.Error("record activity", "reminder_id", r.ID, "error", err)
		}
	}
}

// Acknowledge marks the reminder's center entries read and records a click.
func (d *Dispatcher) Acknowledge(ctx context.Context, r model.Reminder) {
	d.center.MarkRead(r.ID)
	if d.activity == nil {
		return
	}
	err := d.activity.RecordActivity(ctx, model.Activity{
		ReminderID: r.ID,
		ItemID:     r.ItemID,
		Action:     model.ActivityClicked,
		Type:       r.Type,
		Priority:   r.Priority,
		Timestamp:  d.now(),
	})
	if err != nil {
		d.log.Error("record activity", "reminder_id", r.ID, "error", err)
	}
}

// UnreadCount returns the number of unread center entries.
func (d *Dispatcher) UnreadCount() int {
	return d.center.UnreadCount()
}

// Build converts a reminder into a channel payload.
func Build(r model.Reminder) Notification {
	return Notification{
		ReminderID:         r.ID,
		ItemID:             r.ItemID,
		Title:              Title,
		Body:               r.Message,
		Tag:                fmt.Sprintf("grocery-reminder-%s", r.ID),
		RequireInteraction: r.Priority == model.PriorityHigh,
		Silent:             r.Priority == model.PriorityLow,
		Type:               r.Type,
		Priority:           r.Priority,
	}
}

// LogChannel shows notifications as structured log lines. It is always deliverable.
type LogChannel struct {
	log *slog.Logger
}

// NewLogChannel creates a LogChannel.
func NewLogChannel(log *slog.Logger) *LogChannel {
	return &LogChannel{log: log}
}

// CanDeliver always returns true.
func (c *LogChannel) CanDeliver() bool { return true }

// Send logs n at a level derived from its priority.
func (c *LogChannel) Send(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	switch n.Priority {
	case model.PriorityHigh:
		level = slog.LevelError
	case model.PriorityMedium:
		level = slog.LevelWarn
	}
	c.log.Log(ctx, level, n.Body, "title", n.Title, "tag", n.Tag, "item_id", n.ItemID)
	return nil
}
