// Package render draws expiry reports and reminder statistics for a terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"grocery_bot/internal/expiry"
	"grocery_bot/internal/reminder"
	"grocery_bot/internal/report"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Bright cyan
			Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	ExpiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	ExpiringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")). // Warm yellow
			Bold(true)

	FreshStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")). // Soft green
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const dateLayout = "2006-01-02"

// Formatter renders reports as plain or colored text.
type Formatter struct {
	colored bool
}

// NewFormatter creates a Formatter. Styles are applied only when colored is set.
func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) style(s lipgloss.Style, text string) string {
	if !f.colored {
		return text
	}
	return s.Render(text)
}

// Report renders an expiry report: a summary header, then one section per
// non-empty bucket with aligned columns.
func (f *Formatter) Report(r report.Report) string {
	var b strings.Builder

	header := fmt.Sprintf("Grocery expiry report  %s\n%d item(s): %d expired, %d expiring soon, %d fresh",
		r.GeneratedAt.Format(dateLayout), r.Total, r.ExpiredCount, r.ExpiringSoonCount, r.FreshCount)
	if f.colored {
		header = BoxStyle.Render(HeaderStyle.Render(header))
	}
	b.WriteString(header)
	b.WriteString("\n")

	if r.Total == 0 && len(r.Invalid) == 0 {
		b.WriteString("\n")
		b.WriteString(f.style(DimStyle, "No active items."))
		b.WriteString("\n")
		return b.String()
	}

	nameWidth, catWidth := 0, 0
	for _, e := range r.All() {
		nameWidth = max(nameWidth, lipgloss.Width(e.Item.Name))
		catWidth = max(catWidth, lipgloss.Width(e.Item.Category))
	}

	section := func(title string, s lipgloss.Style, entries []report.Entry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s\n", f.style(s, title))
		for _, e := range entries {
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				pad(e.Item.Name, nameWidth),
				pad(e.Item.Category, catWidth),
				e.State.ExpirationDate.Format(dateLayout),
				f.style(s, expiry.DescribeStatus(e.State)))
		}
	}
	section(fmt.Sprintf("Expired (%d)", r.ExpiredCount), ExpiredStyle, r.Expired)
	section(fmt.Sprintf("Expiring within %d days (%d)", r.ThresholdDays, r.ExpiringSoonCount), ExpiringStyle, r.ExpiringSoon)
	section(fmt.Sprintf("Fresh (%d)", r.FreshCount), FreshStyle, r.Fresh)

	if len(r.Invalid) > 0 {
		fmt.Fprintf(&b, "\n%s\n", f.style(DimStyle, fmt.Sprintf("Could not classify (%d)", len(r.Invalid))))
		for _, inv := range r.Invalid {
			fmt.Fprintf(&b, "  %s\n", f.style(DimStyle, fmt.Sprintf("#%d %s: %v", inv.ItemID, inv.Name, inv.Err)))
		}
	}
	return b.String()
}

// Stats renders reminder counts on one line.
func (f *Formatter) Stats(s reminder.Stats) string {
	line := fmt.Sprintf("Reminders: %d total, %d active, %d pending, %d sent, %d unread",
		s.Total, s.Active, s.Pending, s.Sent, s.UnreadNotifications)
	return f.style(DimStyle, line)
}

// pad right-pads s to width display cells.
func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
