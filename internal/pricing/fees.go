package pricing

import "github.com/shopspring/decimal"

var tollFraction = decimal.NewFromInt(100)

// Toll bills unitPrice per started 100 kg of taxable weight.
func Toll(taxableWeight, unitPrice decimal.Decimal) decimal.Decimal {
	if !taxableWeight.IsPositive() {
		return decimal.Zero
	}
	fractions := taxableWeight.Div(tollFraction).Ceil()
	return fractions.Mul(unitPrice)
}

// FFee is a percentage of the invoice value with a guaranteed minimum.
func FFee(invoiceValue, percentage, floor decimal.Decimal) decimal.Decimal {
	return decimal.Max(invoiceValue.Mul(percentage), floor)
}

// GRIS charges pctBelow on the invoice value up to threshold and pctAbove
// only on the part above it, with a floor on the result.
func GRIS(invoiceValue, threshold, pctBelow, pctAbove, floor decimal.Decimal) decimal.Decimal {
	if invoiceValue.LessThanOrEqual(threshold) {
		return decimal.Max(invoiceValue.Mul(pctBelow), floor)
	}
	below := threshold.Mul(pctBelow)
	above := invoiceValue.Sub(threshold).Mul(pctAbove)
	return decimal.Max(below.Add(above), floor)
}

// ICMS is a flat rate on the freight subtotal.
func ICMS(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}
