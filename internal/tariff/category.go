package tariff

import (
	"fmt"
	"strings"
)

// Category selects which bracket table prices a destination.
type Category string

const (
	CategoryCapital   Category = "CAPITAL"
	CategoryInterior1 Category = "INTERIOR_1"
	CategoryInterior2 Category = "INTERIOR_2"
	CategoryFluvial   Category = "FLUVIAL"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryCapital, CategoryInterior1, CategoryInterior2, CategoryFluvial}
}

// Valid reports whether c is one of the known variants.
func (c Category) Valid() bool {
	switch c {
	case CategoryCapital, CategoryInterior1, CategoryInterior2, CategoryFluvial:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory maps a stored or user-supplied label onto a Category.
// Labels are matched case-insensitively; spaces and dashes are read as underscores.
func ParseCategory(raw string) (Category, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	c := Category(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return c, nil
}
