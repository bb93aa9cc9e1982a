package tariff

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is shippable catalog data. Dimensions are in centimeters, weight in kilograms.
type Product struct {
	ID                  int64
	Name                string
	WidthCM             decimal.Decimal
	HeightCM            decimal.Decimal
	DepthCM             decimal.Decimal
	RealWeightKG        decimal.Decimal
	DefaultInvoiceValue decimal.Decimal
}

// Validate rejects non-positive dimensions and weight.
func (p Product) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"width_cm", p.WidthCM},
		{"height_cm", p.HeightCM},
		{"depth_cm", p.DepthCM},
		{"real_weight_kg", p.RealWeightKG},
	}
	for _, f := range fields {
		if !f.value.IsPositive() {
			return fmt.Errorf("%w: product %d %s must be positive, got %s", ErrInvalidInput, p.ID, f.name, f.value)
		}
	}
	return nil
}

// DeliveryWindow is the carrier's promised delivery range for a destination.
type DeliveryWindow struct {
	MinDays   int    `json:"min_days,omitempty"`
	MaxDays   int    `json:"max_days,omitempty"`
	Transport string `json:"transport,omitempty"`
}

// Known reports whether the window carries any day range.
func (w DeliveryWindow) Known() bool {
	return w.MinDays > 0 && w.MaxDays >= w.MinDays
}

func (w DeliveryWindow) String() string {
	if !w.Known() {
		return ""
	}
	if w.MinDays == w.MaxDays {
		return fmt.Sprintf("%d dias", w.MinDays)
	}
	return fmt.Sprintf("%d a %d dias", w.MinDays, w.MaxDays)
}

// Destination is a city with an already-resolved tariff category.
// HasTDA and HasTRT are cached flags derived from the special tax registry.
type Destination struct {
	ID       int64
	Name     string
	State    string
	Category Category
	HasTDA   bool
	HasTRT   bool
	Delivery DeliveryWindow
}
