// Package report partitions items into freshness buckets.
package report

import (
	"slices"
	"time"

	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
)

// Entry is an item together with its computed expiry state.
type Entry struct {
	Item  model.Item
	State model.ExpiryState
}

// Invalid is an item that could not be classified.
type Invalid struct {
	ItemID int64
	Name   string
	Err    error
}

// Report is a snapshot of inventory freshness.
type Report struct {
	Expired      []Entry
	ExpiringSoon []Entry
	Fresh        []Entry
	Invalid      []Invalid

	ExpiredCount      int
	ExpiringSoonCount int
	FreshCount        int
	Total             int

	ThresholdDays int
	GeneratedAt   time.Time
}

// Build classifies every item. Items with an unparsable purchase date are
// listed in Invalid and excluded from the buckets and the total.
func Build(items []model.Item, calc expiry.Calculator, resolver expiry.ShelfLifeResolver, now time.Time) Report {
	r := Report{
		ThresholdDays: calc.ThresholdDays,
		GeneratedAt:   now,
	}

	for _, item := range items {
		state, err := calc.ComputeItem(item, resolver, now)
		if err != nil {
			r.Invalid = append(r.Invalid, Invalid{ItemID: item.ID, Name: item.Name, Err: err})
			continue
		}
		e := Entry{Item: item, State: state}
		switch state.Status {
		case model.StatusExpired:
			r.Expired = append(r.Expired, e)
		case model.StatusExpiringSoon:
			r.ExpiringSoon = append(r.ExpiringSoon, e)
		default:
			r.Fresh = append(r.Fresh, e)
		}
	}

	byDays := func(a, b Entry) int { return a.State.DaysUntilExpiry - b.State.DaysUntilExpiry }
	slices.SortStableFunc(r.Expired, byDays)
	slices.SortStableFunc(r.ExpiringSoon, byDays)

	r.ExpiredCount = len(r.Expired)
	r.ExpiringSoonCount = len(r.ExpiringSoon)
	r.FreshCount = len(r.Fresh)
	r.Total = r.ExpiredCount + r.ExpiringSoonCount + r.FreshCount
	return r
}

// All returns every classified entry: expired, then expiring soon, then fresh.
func (r Report) All() []Entry {
	out := make([]Entry, 0, r.Total)
	out = append(out, r.Expired...)
	out = append(out, r.ExpiringSoon...)
	return append(out, r.Fresh...)
}

// ExpiredItemIDs returns the IDs of all expired items in report order.
func (r Report) ExpiredItemIDs() []int64 {
	ids := make([]int64, 0, len(r.Expired))
	for _, e := range r.Expired {
		ids = append(ids, e.Item.ID)
	}
	return ids
}
