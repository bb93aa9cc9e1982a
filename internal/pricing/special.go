package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/tariff"
)

// Shipment carries the values special tax applicability rules look at.
// PricedAt is matched against each entry's validity window.
type Shipment struct {
	InvoiceValue  decimal.Decimal
	TaxableWeight decimal.Decimal
	PricedAt      time.Time
}

// SpecialTaxResult holds the TDA and TRT contributions and the entries that produced them.
type SpecialTaxResult struct {
	TDA     decimal.Decimal
	TRT     decimal.Decimal
	Applied []tariff.SpecialTaxEntry
}

// SpecialTaxes adds the destination's TDA and TRT. FIXED entries contribute
// their amount, PERCENTAGE entries a share of basePrice. A missing,
// expired or non-applicable entry contributes zero.
func SpecialTaxes(dest tariff.Destination, basePrice decimal.Decimal, reg *tariff.Registry, shipment Shipment) SpecialTaxResult {
	res := SpecialTaxResult{TDA: decimal.Zero, TRT: decimal.Zero}

	for _, kind := range []tariff.TaxKind{tariff.TaxTDA, tariff.TaxTRT} {
		entry, ok := reg.Entry(dest.ID, kind)
		if !ok || !applies(entry, shipment) {
			continue
		}

		amount := entry.Amount
		if entry.AmountKind == tariff.AmountPercentage {
			amount = basePrice.Mul(entry.Amount)
		}

		switch kind {
		case tariff.TaxTDA:
			res.TDA = amount
		case tariff.TaxTRT:
			res.TRT = amount
		}
		res.Applied = append(res.Applied, entry)
	}

	return res
}

func applies(e tariff.SpecialTaxEntry, s Shipment) bool {
	if !e.InForce(s.PricedAt) {
		return false
	}
	if e.MinInvoiceValue.Valid && s.InvoiceValue.LessThan(e.MinInvoiceValue.Decimal) {
		return false
	}
	if e.MinWeightKG.Valid && s.TaxableWeight.LessThan(e.MinWeightKG.Decimal) {
		return false
	}
	return true
}
