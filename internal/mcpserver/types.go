package mcpserver

import (
	"time"

	"grocery_bot/internal/model"
	"grocery_bot/internal/report"
)

// itemView is the JSON shape of an item with its freshness.
type itemView struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Quantity        int     `json:"quantity"`
	Priority        string  `json:"priority"`
	PurchaseDate    string  `json:"purchase_date,omitempty"`
	Completed       bool    `json:"completed"`
	EstimatedPrice  float64 `json:"estimated_price,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	ShelfLifeDays   int     `json:"shelf_life_days"`
	ExpirationDate  string  `json:"expiration_date,omitempty"`
	DaysUntilExpiry int     `json:"days_until_expiry"`
	Status          string  `json:"status,omitempty"`
	Error           string  `json:"error,omitempty"`
}

type invalidView struct {
	ItemID int64  `json:"item_id"`
	Name   string `json:"name"`
	Error  string `json:"error"`
}

type reportView struct {
	GeneratedAt       time.Time     `json:"generated_at"`
	ThresholdDays     int           `json:"threshold_days"`
	Total             int           `json:"total"`
	ExpiredCount      int           `json:"expired_count"`
	ExpiringSoonCount int           `json:"expiring_soon_count"`
	FreshCount        int           `json:"fresh_count"`
	Expired           []itemView    `json:"expired"`
	ExpiringSoon      []itemView    `json:"expiring_soon"`
	Fresh             []itemView    `json:"fresh"`
	Invalid           []invalidView `json:"invalid,omitempty"`
}

type reminderView struct {
	ID             string     `json:"id"`
	ItemID         int64      `json:"item_id"`
	ItemName       string     `json:"item_name"`
	Type           string     `json:"type"`
	Priority       string     `json:"priority"`
	Message        string     `json:"message"`
	ReminderDate   time.Time  `json:"reminder_date"`
	IsSent         bool       `json:"is_sent"`
	SentDate       *time.Time `json:"sent_date,omitempty"`
	Recurring      bool       `json:"recurring"`
	Frequency      string     `json:"frequency,omitempty"`
	Occurrence     int        `json:"occurrence"`
	MaxOccurrences int        `json:"max_occurrences,omitempty"`
	Channels       []string   `json:"channels"`
}

type statsView struct {
	Total               int `json:"total"`
	Active              int `json:"active"`
	Sent                int `json:"sent"`
	Pending             int `json:"pending"`
	UnreadNotifications int `json:"unread_notifications"`
}

type shelfLifeView struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Days     int    `json:"days"`
}

func newItemView(item model.Item) itemView {
	return itemView{
		ID:             item.ID,
		Name:           item.Name,
		Category:       item.Category,
		Quantity:       item.Quantity,
		Priority:       string(item.Priority),
		PurchaseDate:   item.PurchaseDate,
		Completed:      item.Completed,
		EstimatedPrice: item.EstimatedPrice,
		Notes:          item.Notes,
	}
}

func (v *itemView) setState(s model.ExpiryState) {
	v.ShelfLifeDays = s.ShelfLifeDays
	v.ExpirationDate = s.ExpirationDate.Format("2006-01-02")
	v.DaysUntilExpiry = s.DaysUntilExpiry
	v.Status = string(s.Status)
}

func entryViews(entries []report.Entry) []itemView {
	out := make([]itemView, 0, len(entries))
	for _, e := range entries {
		v := newItemView(e.Item)
		v.setState(e.State)
		out = append(out, v)
	}
	return out
}

func newReportView(r report.Report) reportView {
	v := reportView{
		GeneratedAt:       r.GeneratedAt,
		ThresholdDays:     r.ThresholdDays,
		Total:             r.Total,
		ExpiredCount:      r.ExpiredCount,
		ExpiringSoonCount: r.ExpiringSoonCount,
		FreshCount:        r.FreshCount,
		Expired:           entryViews(r.Expired),
		ExpiringSoon:      entryViews(r.ExpiringSoon),
		Fresh:             entryViews(r.Fresh),
	}
	for _, inv := range r.Invalid {
		v.Invalid = append(v.Invalid, invalidView{ItemID: inv.ItemID, Name: inv.Name, Error: inv.Err.Error()})
	}
	return v
}

func newReminderView(r model.Reminder) reminderView {
	v := reminderView{
		ID:             r.ID,
		ItemID:         r.ItemID,
		ItemName:       r.ItemName,
		Type:           string(r.Type),
		Priority:       string(r.Priority),
		Message:        r.Message,
		ReminderDate:   r.ReminderDate,
		IsSent:         r.IsSent,
		SentDate:       r.SentDate,
		Recurring:      r.Recurring,
		Occurrence:     r.Occurrence,
		MaxOccurrences: r.MaxOccurrences,
		Channels:       make([]string, 0, len(r.Channels)),
	}
	if r.Recurring {
		v.Frequency = r.Frequency.String()
	}
	for _, ch := range r.Channels {
		v.Channels = append(v.Channels, string(ch))
	}
	return v
}
