// Package expiry computes expiration dates and freshness status for items.
package expiry

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"grocery_bot/internal/model"
)

// DefaultThresholdDays is the default expiring_soon boundary.
const DefaultThresholdDays = 3

// ErrInvalidPurchaseDate is wrapped by ValidationError.
var ErrInvalidPurchaseDate = errors.New("invalid purchase date")

// ValidationError reports an item field that cannot be interpreted.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q is not a calendar date", e.Field, e.Value)
}

// Unwrap lets callers match ErrInvalidPurchaseDate with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPurchaseDate
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses a purchase date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "purchase_date", Value: s}
}

// ShelfLifeResolver returns a shelf life in days for an item name and category.
type ShelfLifeResolver interface {
	Resolve(name, category string) int
}

// Calculator classifies items by freshness.
type Calculator struct {
	ThresholdDays int
}

// NewCalculator creates a Calculator with the given expiring_soon threshold.
// A negative threshold falls back to DefaultThresholdDays.
func NewCalculator(thresholdDays int) Calculator {
	if thresholdDays < 0 {
		thresholdDays = DefaultThresholdDays
	}
	return Calculator{ThresholdDays: thresholdDays}
}

// Compute derives the expiry state of an item purchased on purchaseDate.
// An empty purchaseDate means the item was purchased at now.
func (c Calculator) Compute(purchaseDate string, shelfLifeDays int, now time.Time) (model.ExpiryState, error) {
	purchased := now
	if strings.TrimSpace(purchaseDate) != "" {
		t, err := ParseDate(purchaseDate)
		if err != nil {
			return model.ExpiryState{}, err
		}
		purchased = t
	}
	return c.computeFrom(purchased, shelfLifeDays, now), nil
}

func (c Calculator) computeFrom(purchased time.Time, shelfLifeDays int, now time.Time) model.ExpiryState {
	shelfLifeDays = max(shelfLifeDays, 0)
	expiration := purchased.AddDate(0, 0, shelfLifeDays)
	days := DaysBetween(now, expiration)

	return model.ExpiryState{
		ExpirationDate:  expiration,
		DaysUntilExpiry: days,
		Status:          c.Classify(days),
		ShelfLifeDays:   shelfLifeDays,
	}
}

// ComputeItem resolves the item's shelf life and computes its expiry state.
// An item without a purchase date counts from when it was added.
func (c Calculator) ComputeItem(item model.Item, resolver ShelfLifeResolver, now time.Time) (model.ExpiryState, error) {
	if strings.TrimSpace(item.PurchaseDate) == "" && !item.CreatedAt.IsZero() {
		return c.computeFrom(item.CreatedAt.UTC(), ShelfLife(item, resolver), now), nil
	}
	return c.Compute(item.PurchaseDate, ShelfLife(item, resolver), now)
}

// Classify maps a signed day count to a status.
func (c Calculator) Classify(daysUntilExpiry int) model.ExpiryStatus {
	switch {
	case daysUntilExpiry <= 0:
		return model.StatusExpired
	case daysUntilExpiry <= c.ThresholdDays:
		return model.StatusExpiringSoon
	default:
		return model.StatusFresh
	}
}

// ShelfLife returns the item's explicit shelf life or the resolved one.
func ShelfLife(item model.Item, resolver ShelfLifeResolver) int {
	if item.ShelfLifeDays != nil {
		return *item.ShelfLifeDays
	}
	return resolver.Resolve(item.Name, item.Category)
}

// DaysBetween returns ceil((to - from) in days).
func DaysBetween(from, to time.Time) int {
	diff := to.Sub(from)
	return int(math.Ceil(diff.Hours() / 24))
}

// DescribeStatus renders a short human-readable freshness message.
func DescribeStatus(s model.ExpiryState) string {
	switch s.Status {
	case model.StatusExpired:
		if s.DaysUntilExpiry == 0 {
			return "Expired today"
		}
		return fmt.Sprintf("Expired %d days ago", -s.DaysUntilExpiry)
	case model.StatusExpiringSoon:
		return fmt.Sprintf("Expires in %d day(s)", s.DaysUntilExpiry)
	default:
		return fmt.Sprintf("%d days left", s.DaysUntilExpiry)
	}
}
