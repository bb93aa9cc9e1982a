package tariff

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParameterSet carries the scalar fee parameters of one tariff version.
// Percentages are fractions in [0,1].
type ParameterSet struct {
	CubageFactor     decimal.Decimal // cm³ per kg of cubed weight
	TollUnitPrice    decimal.Decimal // per started 100 kg
	FFeePercent      decimal.Decimal
	FFeeFloor        decimal.Decimal
	GRISThreshold    decimal.Decimal
	GRISPercentBelow decimal.Decimal
	GRISPercentAbove decimal.Decimal
	GRISFloor        decimal.Decimal
	ICMSRate         decimal.Decimal
}

var one = decimal.NewFromInt(1)

// Validate checks the range invariants of every field.
func (p ParameterSet) Validate() error {
	if !p.CubageFactor.IsPositive() {
		return fmt.Errorf("%w: cubage factor must be positive, got %s", ErrInvalidInput, p.CubageFactor)
	}
	percents := []struct {
		name  string
		value decimal.Decimal
	}{
		{"f_fee_percent", p.FFeePercent},
		{"gris_percent_below", p.GRISPercentBelow},
		{"gris_percent_above", p.GRISPercentAbove},
		{"icms_rate", p.ICMSRate},
	}
	for _, pct := range percents {
		if err := checkPercent(pct.name, pct.value); err != nil {
			return err
		}
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"toll_unit_price", p.TollUnitPrice},
		{"f_fee_floor", p.FFeeFloor},
		{"gris_threshold", p.GRISThreshold},
		{"gris_floor", p.GRISFloor},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%w: %s must be non-negative, got %s", ErrInvalidInput, a.name, a.value)
		}
	}
	return nil
}

func checkPercent(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(one) {
		return fmt.Errorf("%w: %s must be within [0,1], got %s", ErrInvalidInput, name, v)
	}
	return nil
}

// RegionalOverride replaces selected parameters for destinations in one state.
// A GRIS override applies to both bands.
type RegionalOverride struct {
	State         string
	FFeePercent   decimal.NullDecimal
	GRISPercent   decimal.NullDecimal
	ICMSRate      decimal.NullDecimal
	TollUnitPrice decimal.NullDecimal
}

// Validate checks the override's state code and the ranges of any set field.
func (o RegionalOverride) Validate() error {
	if len(normalizeState(o.State)) != 2 {
		return fmt.Errorf("%w: override state must be a 2-letter code, got %q", ErrInvalidInput, o.State)
	}
	for name, v := range map[string]decimal.NullDecimal{
		"f_fee_percent": o.FFeePercent,
		"gris_percent":  o.GRISPercent,
		"icms_rate":     o.ICMSRate,
	} {
		if !v.Valid {
			continue
		}
		if err := checkPercent(name, v.Decimal); err != nil {
			return fmt.Errorf("override %s: %w", o.State, err)
		}
	}
	if o.TollUnitPrice.Valid && o.TollUnitPrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: override %s toll unit price is negative", ErrInvalidInput, o.State)
	}
	return nil
}

// Apply returns p with the override's set fields replaced.
func (o RegionalOverride) Apply(p ParameterSet) ParameterSet {
	if o.FFeePercent.Valid {
		p.FFeePercent = o.FFeePercent.Decimal
	}
	if o.GRISPercent.Valid {
		p.GRISPercentBelow = o.GRISPercent.Decimal
		p.GRISPercentAbove = o.GRISPercent.Decimal
	}
	if o.ICMSRate.Valid {
		p.ICMSRate = o.ICMSRate.Decimal
	}
	if o.TollUnitPrice.Valid {
		p.TollUnitPrice = o.TollUnitPrice.Decimal
	}
	return p
}

func normalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
