package notify

import (
	"sync"
	"time"

	"grocery_bot/internal/model"
)

// DefaultCenterCapacity is the number of entries the center keeps.
const DefaultCenterCapacity = 50

// Entry is a notification kept for later display.
type Entry struct {
	ReminderID string
	ItemID     int64
	ItemName   string
	Message    string
	Type       model.ReminderType
	Priority   model.Priority
	Timestamp  time.Time
	Read       bool
}

// Center is a bounded, newest-first list of delivered notifications.
type Center struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewCenter creates a Center holding at most capacity entries.
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = DefaultCenterCapacity
	}
	return &Center{capacity: capacity}
}

// Add prepends an entry, evicting the oldest when full.
func (c *Center) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append([]Entry{e}, c.entries...)
	if len(c.entries) > c.capacity {
		c.entries = c.entries[:c.capacity]
	}
}

// List returns a copy of all entries, newest first.
func (c *Center) List() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// MarkRead marks the entries for a reminder as read.
// It returns false if no entry matched.
func (c *Center) MarkRead(reminderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := false
	for i := range c.entries {
		if c.entries[i].ReminderID == reminderID {
			c.entries[i].Read = true
			found = true
		}
	}
	return found
}

// MarkAllRead marks every entry as read.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		c.entries[i].Read = true
	}
}

// UnreadCount returns the number of unread entries.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if !e.Read {
			n++
		}
	}
	return n
}
