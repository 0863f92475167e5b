package placement

import (
	"strings"

	"github.com/matzehuels/fleetmap/pkg/errors"
)

// Category is the kind of point of interest.
type Category int

const (
	Charging Category = iota
	Pickup
	Dropoff
)

// DefaultOrder is the category processing order. Charging stations claim
// space first, then pickup and dropoff points fill around them.
var DefaultOrder = []Category{Charging, Pickup, Dropoff}

var categoryNames = [...]string{
	Charging: "CHARGING",
	Pickup:   "PICKUP",
	Dropoff:  "DROPOFF",
}

var categoryPrefixes = [...]string{
	Charging: "C",
	Pickup:   "PU",
	Dropoff:  "DO",
}

// Valid reports whether c is one of the three defined categories.
func (c Category) Valid() bool {
	return c >= Charging && c <= Dropoff
}

func (c Category) String() string {
	if !c.Valid() {
		return "UNKNOWN"
	}
	return categoryNames[c]
}

// Prefix returns the id prefix for the category.
func (c Category) Prefix() string {
	if !c.Valid() {
		return "X"
	}
	return categoryPrefixes[c]
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidCategory, "unknown POI category %q (want charging, pickup, or dropoff)", s)
}

// ParseOrder parses a list of category names. Every category may appear at most once.
func ParseOrder(names []string) ([]Category, error) {
	order := make([]Category, 0, len(names))
	seen := map[Category]bool{}
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			return nil, errors.New(errors.ErrCodeInvalidCategory, "category %s listed twice", c)
		}
		seen[c] = true
		order = append(order, c)
	}
	return order, nil
}

// MarshalText implements encoding.TextMarshaler so categories work as JSON
// values and map keys.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidCategory, "invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
