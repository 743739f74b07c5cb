// Package shelflife maps grocery item names and categories to shelf-life durations.
package shelflife

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackDays is used when neither the name nor the category is known.
const FallbackDays = 7

// Override is a single name pattern and its shelf life in days.
type Override struct {
	Pattern string `koanf:"pattern"`
	Days    int    `koanf:"days"`
}

// Builtin is the default per-item table. Partial matches are evaluated in
// this order, so more specific patterns must come before broader ones.
var Builtin = []Override{
	{"apples", 7},
	{"bananas", 5},
	{"oranges", 14},
	{"strawberries", 3},
	{"grapes", 7},
	{"lemons", 21},

	{"lettuce", 7},
	{"tomatoes", 7},
	{"carrots", 21},
	{"potatoes", 30},
	{"onions", 30},
	{"broccoli", 5},

	{"milk", 7},
	{"cheese", 14},
	{"yogurt", 10},
	{"butter", 30},
	{"eggs", 21},

	{"chicken", 3},
	{"beef", 5},
	{"pork", 3},
	{"fish", 2},
	{"ground_meat", 2},

	{"bread", 7},
	{"rice", 365},
	{"pasta", 730},
	{"canned_goods", 365},
	{"flour", 180},
}

// CategoryDefaults holds per-category shelf life in days.
var CategoryDefaults = map[string]int{
	"fruits":     7,
	"vegetables": 7,
	"dairy":      7,
	"meat":       3,
	"pantry":     30,
	"beverages":  7,
	"snacks":     30,
	"frozen":     90,
	"household":  365,
}

// Resolver looks up shelf life by item name, then category.
type Resolver struct {
	table      []Override
	exact      map[string]int
	categories map[string]int
}

// New creates a Resolver. User overrides are consulted before the builtin
// table, in the order given.
func New(overrides []Override) *Resolver {
	r := &Resolver{
		exact:      make(map[string]int),
		categories: CategoryDefaults,
	}
	for _, src := range [][]Override{overrides, Builtin} {
		for _, o := range src {
			key := Normalize(o.Pattern)
			if key == "" {
				continue
			}
			days := max(o.Days, 0)
			r.table = append(r.table, Override{Pattern: key, Days: days})
			if _, ok := r.exact[key]; !ok {
				r.exact[key] = days
			}
		}
	}
	return r
}

// Resolve returns the shelf life in days for the given item. It never fails.
func (r *Resolver) Resolve(name, category string) int {
	key := Normalize(name)
	if key != "" {
		if days, ok := r.exact[key]; ok {
			return days
		}
		for _, o := range r.table {
			if strings.Contains(key, o.Pattern) || strings.Contains(o.Pattern, key) {
				return o.Days
			}
		}
	}
	if days, ok := r.categories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return days
	}
	return FallbackDays
}

// Table returns the effective lookup table in evaluation order.
func (r *Resolver) Table() []Override {
	out := make([]Override, len(r.table))
	copy(out, r.table)
	return out
}

// Normalize lower-cases a name and joins its words with underscores.
func Normalize(name string) string {
	lower := cases.Lower(language.Und).String(name)
	return strings.Join(strings.Fields(lower), "_")
}
