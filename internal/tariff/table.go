package tariff

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// BracketRow prices shipments whose taxable weight is at least Threshold and
// below the next row's threshold. Weight above Threshold is billed at
// ExcessUnitPrice per ExcessIncrement; a zero increment bills continuously per kg.
type BracketRow struct {
	Threshold       decimal.Decimal
	BasePrice       decimal.Decimal
	ExcessUnitPrice decimal.Decimal
	ExcessIncrement decimal.Decimal
}

// Table holds the bracket rows of one tariff version, keyed by category.
// It is immutable once built.
type Table struct {
	rows map[Category][]BracketRow
}

// NewTable validates and copies rows. Within a category thresholds must be
// non-negative and strictly increasing, and the last row must carry an excess rule.
func NewTable(rows map[Category][]BracketRow) (Table, error) {
	t := Table{rows: make(map[Category][]BracketRow, len(rows))}
	for c, categoryRows := range rows {
		if !c.Valid() {
			return Table{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
		if err := validateRows(c, categoryRows); err != nil {
			return Table{}, err
		}
		t.rows[c] = slices.Clone(categoryRows)
	}
	return t, nil
}

func validateRows(c Category, rows []BracketRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: category %s has no bracket rows", ErrInvalidInput, c)
	}
	for i, row := range rows {
		if row.Threshold.IsNegative() {
			return fmt.Errorf("%w: category %s row %d threshold is negative", ErrInvalidInput, c, i)
		}
		if row.BasePrice.IsNegative() || row.ExcessUnitPrice.IsNegative() || row.ExcessIncrement.IsNegative() {
			return fmt.Errorf("%w: category %s row %d has a negative price or increment", ErrInvalidInput, c, i)
		}
		if i > 0 && !row.Threshold.GreaterThan(rows[i-1].Threshold) {
			return fmt.Errorf("%w: category %s thresholds must be strictly increasing (row %d: %s after %s)",
				ErrInvalidInput, c, i, row.Threshold, rows[i-1].Threshold)
		}
	}
	if !rows[len(rows)-1].ExcessUnitPrice.IsPositive() {
		return fmt.Errorf("%w: category %s last row needs an excess unit price", ErrInvalidInput, c)
	}
	return nil
}

// Rows returns a copy of the bracket rows for c.
func (t Table) Rows(c Category) ([]BracketRow, bool) {
	rows, ok := t.rows[c]
	if !ok {
		return nil, false
	}
	return slices.Clone(rows), true
}

// Categories returns the categories present in the table, in display order.
func (t Table) Categories() []Category {
	out := make([]Category, 0, len(t.rows))
	for _, c := range Categories() {
		if _, ok := t.rows[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
