package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
	"grocery_bot/internal/shelflife"
	"grocery_bot/internal/validation"
)

// ParseAddArgs parses arguments for /add.
// Format: <name...> [qty=N] [cat=category] [pri=low|medium|high] [date=YYYY-MM-DD]
// [shelf=days] [price=amount] [notes=text...]
func ParseAddArgs(args string) (validation.ItemInput, error) {
	in := validation.NewItemInput("")

	var name []string
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		key, value, ok := strings.Cut(fields[i], "=")
		if !ok {
			name = append(name, fields[i])
			continue
		}
		switch strings.ToLower(key) {
		case "qty":
			n, err := strconv.Atoi(value)
			if err != nil {
				return validation.ItemInput{}, fmt.Errorf("invalid quantity %q", value)
			}
			in.Quantity = n
		case "cat":
			in.Category = strings.ToLower(value)
		case "pri":
			in.Priority = strings.ToLower(value)
		case "date":
			in.PurchaseDate = value
		case "shelf":
			n, err := strconv.Atoi(value)
			if err != nil {
				return validation.ItemInput{}, fmt.Errorf("invalid shelf life %q", value)
			}
			in.ShelfLifeDays = &n
		case "price":
			p, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return validation.ItemInput{}, fmt.Errorf("invalid price %q", value)
			}
			in.EstimatedPrice = p
		case "notes":
			// Notes take the rest of the line.
			in.Notes = strings.TrimSpace(strings.Join(append([]string{value}, fields[i+1:]...), " "))
			i = len(fields)
		default:
			name = append(name, fields[i])
		}
	}
	in.Name = strings.Join(name, " ")

	if err := in.Validate(); err != nil {
		return validation.ItemInput{}, err
	}
	return in, nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("item ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item ID %q", s)
	}
	return id, nil
}

// ShelfArgs holds the parsed arguments of /shelf.
type ShelfArgs struct {
	Name     string
	Category string
}

// ParseShelfArgs parses "<name...> [category]". A trailing word naming a
// known category is taken as the category; "cat=<category>" is also accepted.
func ParseShelfArgs(args string) (ShelfArgs, error) {
	var out ShelfArgs
	var name []string
	for _, f := range strings.Fields(args) {
		if v, ok := strings.CutPrefix(f, "cat="); ok {
			out.Category = strings.ToLower(v)
			continue
		}
		name = append(name, f)
	}
	if out.Category == "" && len(name) > 0 {
		last := strings.ToLower(name[len(name)-1])
		if _, ok := shelflife.CategoryDefaults[last]; ok {
			out.Category = last
			name = name[:len(name)-1]
		}
	}
	out.Name = strings.Join(name, " ")
	if out.Name == "" && out.Category == "" {
		return ShelfArgs{}, fmt.Errorf("usage: /shelf <name> [category]")
	}
	return out, nil
}

// RemindArgs holds the parsed arguments of /remind.
type RemindArgs struct {
	ItemID         int64
	Type           model.ReminderType
	At             time.Time
	Frequency      time.Duration
	MaxOccurrences int
	EndDate        *time.Time
}

var reminderTypeNames = map[string]model.ReminderType{
	"warning":  model.ReminderExpiryWarning,
	"expired":  model.ReminderExpired,
	"purchase": model.ReminderPurchase,
	"buy":      model.ReminderPurchase,
	"shopping": model.ReminderShoppingList,
	"list":     model.ReminderShoppingList,
}

// ParseRemindArgs parses arguments for /remind.
// Format: <item_id> <warning|expired|purchase|shopping> <now|+duration|date>
// [every <duration>] [times <n>] [until <date>]
func ParseRemindArgs(args string, now time.Time) (RemindArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		return RemindArgs{}, fmt.Errorf("usage: /remind <item_id> <type> <when> [every <duration>] [times <n>] [until <date>]")
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RemindArgs{}, fmt.Errorf("invalid item ID %q", parts[0])
	}
	typ, ok := reminderTypeNames[strings.ToLower(parts[1])]
	if !ok {
		return RemindArgs{}, fmt.Errorf("unknown reminder type %q, use: warning, expired, purchase, shopping", parts[1])
	}
	at, err := parseWhen(parts[2], now)
	if err != nil {
		return RemindArgs{}, err
	}

	out := RemindArgs{ItemID: id, Type: typ, At: at}
	rest := parts[3:]
	for len(rest) > 0 {
		if len(rest) < 2 {
			return RemindArgs{}, fmt.Errorf("missing value after %q", rest[0])
		}
		key, value := strings.ToLower(rest[0]), rest[1]
		rest = rest[2:]
		switch key {
		case "every":
			d, err := ParseDuration(value)
			if err != nil || d <= 0 {
				return RemindArgs{}, fmt.Errorf("invalid frequency %q", value)
			}
			out.Frequency = d
		case "times":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return RemindArgs{}, fmt.Errorf("times must be a positive number")
			}
			out.MaxOccurrences = n
		case "until":
			t, err := expiry.ParseDate(value)
			if err != nil {
				return RemindArgs{}, fmt.Errorf("invalid end date %q", value)
			}
			out.EndDate = &t
		default:
			return RemindArgs{}, fmt.Errorf("unknown option %q", key)
		}
	}
	if out.Frequency == 0 && (out.MaxOccurrences > 0 || out.EndDate != nil) {
		return RemindArgs{}, fmt.Errorf("times and until need every <duration>")
	}
	return out, nil
}

func parseWhen(s string, now time.Time) (time.Time, error) {
	if strings.EqualFold(s, "now") {
		return now, nil
	}
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		d, err := ParseDuration(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid offset %q", s)
		}
		return now.Add(d), nil
	}
	t, err := expiry.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use now, +2h, +3d or YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseDuration extends time.ParseDuration with a "d" suffix for days.
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
