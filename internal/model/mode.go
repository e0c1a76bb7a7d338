package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownMode is returned when a mode id is not in the catalog.
var ErrUnknownMode = errors.New("unknown mode")

// Category groups modes by their termination rule.
type Category string

// Mode categories.
const (
	CategoryTime  Category = "time"
	CategoryWords Category = "words"
	CategoryQuote Category = "quote"
)

// Categories lists categories in display order.
var Categories = []Category{CategoryTime, CategoryWords, CategoryQuote}

// Mode selects the shape of a test. The zero value is not a valid mode.
type Mode struct {
	category Category
	n        int
}

// WordCount returns a mode that finishes after the target words are typed.
func WordCount(n int) Mode {
	return Mode{category: CategoryWords, n: n}
}

// TimeLimit returns a countdown mode of the given length in seconds.
func TimeLimit(seconds int) Mode {
	return Mode{category: CategoryTime, n: seconds}
}

// Quote returns the quote mode.
func Quote() Mode {
	return Mode{category: CategoryQuote}
}

// Category reports the category derived from the variant.
func (m Mode) Category() Category {
	return m.category
}

// Words returns the word target for WordCount modes.
func (m Mode) Words() (int, bool) {
	if m.category != CategoryWords {
		return 0, false
	}
	return m.n, true
}

// Seconds returns the time limit for TimeLimit modes.
func (m Mode) Seconds() (int, bool) {
	if m.category != CategoryTime {
		return 0, false
	}
	return m.n, true
}

// IsZero reports whether m is the zero Mode.
func (m Mode) IsZero() bool {
	return m.category == ""
}

// ID returns the stable identifier, e.g. "30", "15s" or "quote".
func (m Mode) ID() string {
	switch m.category {
	case CategoryWords:
		return strconv.Itoa(m.n)
	case CategoryTime:
		return strconv.Itoa(m.n) + "s"
	case CategoryQuote:
		return "quote"
	default:
		return ""
	}
}

// Label returns the short display label from the catalog.
func (m Mode) Label() string {
	for _, info := range Catalog {
		if info.Mode == m {
			return info.Label
		}
	}
	return m.ID()
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return m.ID()
}

// MarshalText encodes the mode as its id.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.ID()), nil
}

// UnmarshalText decodes a mode id.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModeInfo describes a catalog entry.
type ModeInfo struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Mode     Mode     `json:"-"`
}

// Catalog lists every selectable mode.
var Catalog = []ModeInfo{
	{ID: "30", Label: "30", Category: CategoryWords, Mode: WordCount(30)},
	{ID: "60", Label: "60", Category: CategoryWords, Mode: WordCount(60)},
	{ID: "90", Label: "90", Category: CategoryWords, Mode: WordCount(90)},
	{ID: "15s", Label: "15", Category: CategoryTime, Mode: TimeLimit(15)},
	{ID: "30s", Label: "30", Category: CategoryTime, Mode: TimeLimit(30)},
	{ID: "60s", Label: "60", Category: CategoryTime, Mode: TimeLimit(60)},
	{ID: "quote", Label: "quote", Category: CategoryQuote, Mode: Quote()},
}

// ParseMode resolves a catalog id into a Mode.
func ParseMode(id string) (Mode, error) {
	id = strings.TrimSpace(strings.ToLower(id))
	for _, info := range Catalog {
		if info.ID == id {
			return info.Mode, nil
		}
	}
	return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, id)
}

// ParseCategory validates a category name.
func ParseCategory(name string) (Category, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// ModesFor returns the catalog entries of a category in display order.
func ModesFor(category Category) []Mode {
	var out []Mode
	for _, info := range Catalog {
		if info.Category == category {
			out = append(out, info.Mode)
		}
	}
	return out
}

// DefaultMode returns the mode selected when switching to a category.
func DefaultMode(category Category) Mode {
	switch category {
	case CategoryTime:
		return TimeLimit(15)
	case CategoryQuote:
		return Quote()
	default:
		return WordCount(30)
	}
}
