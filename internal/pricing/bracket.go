package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/tariff"
)

// Bracket is the row a taxable weight resolved to, plus the weight above its threshold.
type Bracket struct {
	Threshold       decimal.Decimal
	BasePrice       decimal.Decimal
	ExcessWeight    decimal.Decimal
	ExcessUnitPrice decimal.Decimal
	ExcessIncrement decimal.Decimal
}

// ResolveBracket picks the row with the greatest threshold not above
// taxableWeight. A weight below the first threshold uses the first row with
// no excess; a weight equal to a threshold resolves to that row.
func ResolveBracket(category tariff.Category, taxableWeight decimal.Decimal, table tariff.Table) (Bracket, error) {
	rows, ok := table.Rows(category)
	if !ok || len(rows) == 0 {
		return Bracket{}, fmt.Errorf("%w: category %s has no bracket rows", tariff.ErrUnknownCategory, category)
	}

	selected := rows[0]
	for _, row := range rows {
		if row.Threshold.GreaterThan(taxableWeight) {
			break
		}
		selected = row
	}

	excess := taxableWeight.Sub(selected.Threshold)
	if excess.IsNegative() {
		excess = decimal.Zero
	}

	return Bracket{
		Threshold:       selected.Threshold,
		BasePrice:       selected.BasePrice,
		ExcessWeight:    excess,
		ExcessUnitPrice: selected.ExcessUnitPrice,
		ExcessIncrement: selected.ExcessIncrement,
	}, nil
}

// ExcessAmount prices the bracket's excess weight. With a positive increment
// every started increment is billed in full.
func ExcessAmount(b Bracket) decimal.Decimal {
	if !b.ExcessWeight.IsPositive() || b.ExcessUnitPrice.IsZero() {
		return decimal.Zero
	}
	if b.ExcessIncrement.IsPositive() {
		units := b.ExcessWeight.Div(b.ExcessIncrement).Ceil()
		return units.Mul(b.ExcessUnitPrice)
	}
	return b.ExcessWeight.Mul(b.ExcessUnitPrice)
}
