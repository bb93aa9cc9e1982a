package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/tariff"
)

// CubedWeight converts dimensions in centimeters to volumetric weight in kilograms.
func CubedWeight(widthCM, heightCM, depthCM, cubageFactor decimal.Decimal) (decimal.Decimal, error) {
	if !widthCM.IsPositive() || !heightCM.IsPositive() || !depthCM.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: dimensions must be positive, got %sx%sx%s cm",
			tariff.ErrInvalidInput, widthCM, heightCM, depthCM)
	}
	if !cubageFactor.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: cubage factor must be positive, got %s", tariff.ErrInvalidInput, cubageFactor)
	}
	volume := widthCM.Mul(heightCM).Mul(depthCM)
	return volume.Div(cubageFactor), nil
}

// TaxableWeight is the greater of real and cubed weight.
func TaxableWeight(realKG, cubedKG decimal.Decimal) decimal.Decimal {
	return decimal.Max(realKG, cubedKG)
}
