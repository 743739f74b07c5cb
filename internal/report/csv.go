package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
)

var csvHeader = []string{"Name", "Category", "Purchase Date", "Expiration Date", "Days Until Expiry", "Status"}

// WriteCSV writes the report's classified entries as CSV.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range r.All() {
		purchase := ""
		if e.Item.PurchaseDate != "" {
			if t, err := expiry.ParseDate(e.Item.PurchaseDate); err == nil {
				purchase = t.Format("2006-01-02")
			}
		}
		row := []string{
			e.Item.Name,
			e.Item.Category,
			purchase,
			e.State.ExpirationDate.Format("2006-01-02"),
			strconv.Itoa(e.State.DaysUntilExpiry),
			StatusLabel(e.State.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// StatusLabel returns the display label of a status.
func StatusLabel(s model.ExpiryStatus) string {
	switch s {
	case model.StatusExpired:
		return "Expired"
	case model.StatusExpiringSoon:
		return "Expiring Soon"
	default:
		return "Fresh"
	}
}
