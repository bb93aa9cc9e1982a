package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/tariff"
)

const centPlaces = 2

// Input represents the shipment being priced. PricedAt selects which
// special tax entries are in force; the engine never reads the clock.
type Input struct {
	Product      tariff.Product
	Destination  tariff.Destination
	InvoiceValue decimal.Decimal
	PricedAt     time.Time
}

// Weights contains the weight figures the price was derived from, in kilograms.
type Weights struct {
	Real    decimal.Decimal `json:"real_kg"`
	Cubed   decimal.Decimal `json:"cubed_kg"`
	Taxable decimal.Decimal `json:"taxable_kg"`
}

// Breakdown contains every priced line of a quote, rounded to cents.
type Breakdown struct {
	BasePrice    decimal.Decimal `json:"base_price"`
	ExcessWeight decimal.Decimal `json:"excess_weight_kg"`
	ExcessAmount decimal.Decimal `json:"excess_amount"`
	Toll         decimal.Decimal `json:"toll"`
	FFee         decimal.Decimal `json:"f_fee"`
	GRIS         decimal.Decimal `json:"gris"`
	ICMS         decimal.Decimal `json:"icms"`
	TDA          decimal.Decimal `json:"tda"`
	TRT          decimal.Decimal `json:"trt"`
}

// Totals contains roll-up values of the quote.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// SpecialTaxLine describes one applied TDA or TRT entry.
type SpecialTaxLine struct {
	Kind        tariff.TaxKind    `json:"kind"`
	AmountKind  tariff.AmountKind `json:"amount_kind"`
	Rate        decimal.Decimal   `json:"rate"`
	Description string            `json:"description,omitempty"`
}

// Result groups the full quote output.
type Result struct {
	VersionID    int64                 `json:"version_id"`
	Category     tariff.Category       `json:"category"`
	InvoiceValue decimal.Decimal       `json:"invoice_value"`
	Weights      Weights               `json:"weights"`
	Breakdown    Breakdown             `json:"breakdown"`
	Totals       Totals                `json:"totals"`
	SpecialTaxes []SpecialTaxLine      `json:"special_taxes,omitempty"`
	Delivery     tariff.DeliveryWindow `json:"delivery"`
}

// Quote prices one shipment against one tariff version and registry snapshot.
// Stages run in a fixed order: cubage, taxable weight, bracket, toll, F-fee,
// GRIS, subtotal, ICMS on the subtotal, special taxes on the base price.
func Quote(in Input, version *tariff.Version, reg *tariff.Registry) (Result, error) {
	if version == nil {
		return Result{}, tariff.ErrMissingActiveVersion
	}
	if err := in.Product.Validate(); err != nil {
		return Result{}, err
	}
	if !in.InvoiceValue.IsPositive() {
		return Result{}, fmt.Errorf("%w: invoice value must be positive, got %s", tariff.ErrInvalidInput, in.InvoiceValue)
	}

	dest := in.Destination
	params := version.ParamsFor(dest.State)

	cubed, err := CubedWeight(in.Product.WidthCM, in.Product.HeightCM, in.Product.DepthCM, params.CubageFactor)
	if err != nil {
		return Result{}, err
	}
	taxable := TaxableWeight(in.Product.RealWeightKG, cubed)

	bracket, err := ResolveBracket(dest.Category, taxable, version.Table())
	if err != nil {
		return Result{}, fmt.Errorf("destination %d (%s) in version %d: %w", dest.ID, dest.Name, version.ID, err)
	}

	base := roundCents(bracket.BasePrice)
	excess := roundCents(ExcessAmount(bracket))
	toll := roundCents(Toll(taxable, params.TollUnitPrice))
	fFee := roundCents(FFee(in.InvoiceValue, params.FFeePercent, params.FFeeFloor))
	gris := roundCents(GRIS(in.InvoiceValue, params.GRISThreshold, params.GRISPercentBelow, params.GRISPercentAbove, params.GRISFloor))

	subtotal := base.Add(excess).Add(toll).Add(fFee).Add(gris)
	icms := roundCents(ICMS(subtotal, params.ICMSRate))

	special := SpecialTaxes(dest, base, reg, Shipment{
		InvoiceValue:  in.InvoiceValue,
		TaxableWeight: taxable,
		PricedAt:      in.PricedAt,
	})
	tda := roundCents(special.TDA)
	trt := roundCents(special.TRT)

	total := subtotal.Add(icms).Add(tda).Add(trt)

	lines := make([]SpecialTaxLine, 0, len(special.Applied))
	for _, e := range special.Applied {
		lines = append(lines, SpecialTaxLine{
			Kind:        e.Kind,
			AmountKind:  e.AmountKind,
			Rate:        e.Amount,
			Description: e.Description,
		})
	}

	return Result{
		VersionID:    version.ID,
		Category:     dest.Category,
		InvoiceValue: in.InvoiceValue,
		Weights: Weights{
			Real:    in.Product.RealWeightKG,
			Cubed:   cubed,
			Taxable: taxable,
		},
		Breakdown: Breakdown{
			BasePrice:    base,
			ExcessWeight: bracket.ExcessWeight,
			ExcessAmount: excess,
			Toll:         toll,
			FFee:         fFee,
			GRIS:         gris,
			ICMS:         icms,
			TDA:          tda,
			TRT:          trt,
		},
		Totals:       Totals{Subtotal: subtotal, Total: total},
		SpecialTaxes: lines,
		Delivery:     dest.Delivery,
	}, nil
}

func roundCents(v decimal.Decimal) decimal.Decimal {
	return v.Round(centPlaces)
}
