package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/tariff"
)

func TestToll_BillsPerStartedHundredKilos(t *testing.T) {
	unit := dec("3.80")
	tests := []struct {
		weight string
		want   string
	}{
		{"0.1", "3.80"},
		{"99.99", "3.80"},
		{"100", "3.80"},
		{"100.01", "7.60"},
		{"200", "7.60"},
		{"200.1", "11.40"},
		{"309.504", "15.20"},
	}
	for _, tc := range tests {
		equalDecimal(t, "toll("+tc.weight+")", Toll(dec(tc.weight), unit), tc.want)
	}
}

func TestToll_MonotonicNonDecreasing(t *testing.T) {
	unit := dec("6.46")
	step := dec("0.01")
	prev := decimal.Zero
	for w := dec("0.01"); w.LessThanOrEqual(dec("400")); w = w.Add(step) {
		got := Toll(w, unit)
		if got.LessThan(prev) {
			t.Fatalf("toll decreased at %s: %s < %s", w, got, prev)
		}
		prev = got
	}
}

func TestGRIS_ContinuousAtThreshold(t *testing.T) {
	threshold := dec("10000")
	below, above, floor := dec("0.001"), dec("0.0023"), dec("1.10")

	atThreshold := GRIS(threshold, threshold, below, above, floor)
	aboveBranchZeroExcess := decimal.Max(threshold.Mul(below).Add(threshold.Sub(threshold).Mul(above)), floor)
	if !atThreshold.Round(2).Equal(aboveBranchZeroExcess.Round(2)) {
		t.Fatalf("below branch %s and above branch %s disagree at threshold", atThreshold, aboveBranchZeroExcess)
	}
	equalDecimal(t, "gris@threshold", atThreshold, "10")

	justBelow := GRIS(dec("9999.99"), threshold, below, above, floor)
	justAbove := GRIS(dec("10000.01"), threshold, below, above, floor)
	if atThreshold.Sub(justBelow).GreaterThan(dec("0.0001")) || justAbove.Sub(atThreshold).GreaterThan(dec("0.0001")) {
		t.Fatalf("GRIS jumps around threshold: %s / %s / %s", justBelow, atThreshold, justAbove)
	}
}

func TestGRIS_OnlyExcessTaxedAtHigherRate(t *testing.T) {
	got := GRIS(dec("20000"), dec("10000"), dec("0.001"), dec("0.0023"), dec("1.10"))
	equalDecimal(t, "gris", got, "33")
}

func TestGRIS_FloorDominatesSmallInvoices(t *testing.T) {
	equalDecimal(t, "gris", GRIS(dec("500"), dec("10000"), dec("0.001"), dec("0.0023"), dec("1.10")), "1.10")
}

func TestFFee_FloorAndPercentage(t *testing.T) {
	pct, floor := dec("0.005"), dec("4.78")

	for _, invoice := range []string{"1", "100", "955.99"} {
		got := FFee(dec(invoice), pct, floor)
		if !got.Equal(floor) {
			t.Fatalf("FFee(%s) = %s, want floor %s", invoice, got, floor)
		}
	}
	for _, invoice := range []string{"957", "1500", "100000"} {
		got := FFee(dec(invoice), pct, floor)
		if !got.GreaterThan(floor) {
			t.Fatalf("FFee(%s) = %s, want above floor", invoice, got)
		}
		if !got.Equal(dec(invoice).Mul(pct)) {
			t.Fatalf("FFee(%s) = %s, want %s", invoice, got, dec(invoice).Mul(pct))
		}
	}
}

func TestICMS_FlatRate(t *testing.T) {
	equalDecimal(t, "icms", ICMS(dec("458.20"), dec("0.12")), "54.984")
	equalDecimal(t, "icms zero rate", ICMS(dec("458.20"), decimal.Zero), "0")
}

func TestCubedWeight(t *testing.T) {
	got, err := CubedWeight(dec("78"), dec("186"), dec("128"), dec("6000"))
	if err != nil {
		t.Fatalf("CubedWeight: %v", err)
	}
	equalDecimal(t, "cubed", got, "309.504")

	for _, dims := range [][3]string{{"0", "1", "1"}, {"1", "-1", "1"}, {"1", "1", "0"}} {
		if _, err := CubedWeight(dec(dims[0]), dec(dims[1]), dec(dims[2]), dec("6000")); !errors.Is(err, tariff.ErrInvalidInput) {
			t.Fatalf("dims %v: expected ErrInvalidInput, got %v", dims, err)
		}
	}
	if _, err := CubedWeight(dec("1"), dec("1"), dec("1"), decimal.Zero); !errors.Is(err, tariff.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero factor, got %v", err)
	}
}

func TestTaxableWeight(t *testing.T) {
	equalDecimal(t, "cubed wins", TaxableWeight(dec("123"), dec("309.504")), "309.504")
	equalDecimal(t, "real wins", TaxableWeight(dec("63"), dec("1.2")), "63")
}

func bracketTable(t *testing.T) tariff.Table {
	t.Helper()
	table, err := tariff.NewTable(map[tariff.Category][]tariff.BracketRow{
		tariff.CategoryInterior2: {
			{Threshold: dec("5"), BasePrice: dec("35")},
			{Threshold: dec("10"), BasePrice: dec("48")},
			{Threshold: dec("100"), BasePrice: dec("160"), ExcessUnitPrice: dec("1.60")},
		},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestResolveBracket_ExactThresholdSelectsThatRow(t *testing.T) {
	b, err := ResolveBracket(tariff.CategoryInterior2, dec("10"), bracketTable(t))
	if err != nil {
		t.Fatalf("ResolveBracket: %v", err)
	}
	equalDecimal(t, "threshold", b.Threshold, "10")
	equalDecimal(t, "basePrice", b.BasePrice, "48")
	equalDecimal(t, "excessWeight", b.ExcessWeight, "0")
}

func TestResolveBracket_BelowSmallestThresholdUsesFirstRow(t *testing.T) {
	b, err := ResolveBracket(tariff.CategoryInterior2, dec("2.5"), bracketTable(t))
	if err != nil {
		t.Fatalf("ResolveBracket: %v", err)
	}
	equalDecimal(t, "basePrice", b.BasePrice, "35")
	equalDecimal(t, "excessWeight", b.ExcessWeight, "0")
}

func TestResolveBracket_OpenEndedLastRow(t *testing.T) {
	b, err := ResolveBracket(tariff.CategoryInterior2, dec("130.5"), bracketTable(t))
	if err != nil {
		t.Fatalf("ResolveBracket: %v", err)
	}
	equalDecimal(t, "basePrice", b.BasePrice, "160")
	equalDecimal(t, "excessWeight", b.ExcessWeight, "30.5")
	equalDecimal(t, "excessAmount", ExcessAmount(b), "48.8")
}

func TestResolveBracket_UnknownCategory(t *testing.T) {
	_, err := ResolveBracket(tariff.CategoryCapital, dec("10"), bracketTable(t))
	if !errors.Is(err, tariff.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestExcessAmount_StartedIncrementsBilledInFull(t *testing.T) {
	b := Bracket{ExcessWeight: dec("2.01"), ExcessUnitPrice: dec("1.40"), ExcessIncrement: dec("1")}
	equalDecimal(t, "excess", ExcessAmount(b), "4.20")

	b.ExcessIncrement = dec("0.5")
	b.ExcessUnitPrice = dec("0.70")
	equalDecimal(t, "half-kg excess", ExcessAmount(b), "3.50")

	b.ExcessWeight = decimal.Zero
	equalDecimal(t, "no excess", ExcessAmount(b), "0")
}

func TestSpecialTaxes_IdempotentAndAdditive(t *testing.T) {
	dest := tariff.Destination{ID: 9, Name: "Angra dos Reis", State: "RJ", Category: tariff.CategoryInterior1}
	reg := testRegistry(t,
		tariff.SpecialTaxEntry{DestinationID: 9, Kind: tariff.TaxTDA, AmountKind: tariff.AmountFixed, Amount: dec("50")},
		tariff.SpecialTaxEntry{DestinationID: 9, Kind: tariff.TaxTRT, AmountKind: tariff.AmountPercentage, Amount: dec("0.02")},
	)
	shipment := Shipment{InvoiceValue: dec("1500"), TaxableWeight: dec("30")}

	first := SpecialTaxes(dest, dec("300"), reg, shipment)
	second := SpecialTaxes(dest, dec("300"), reg, shipment)

	equalDecimal(t, "tda", first.TDA, "50")
	equalDecimal(t, "trt", first.TRT, "6")
	if !first.TDA.Equal(second.TDA) || !first.TRT.Equal(second.TRT) || len(first.Applied) != len(second.Applied) {
		t.Fatalf("special taxes differ between calls: %+v vs %+v", first, second)
	}

	other := tariff.Destination{ID: 10, Category: tariff.CategoryInterior1}
	none := SpecialTaxes(other, dec("300"), reg, shipment)
	equalDecimal(t, "tda none", none.TDA, "0")
	equalDecimal(t, "trt none", none.TRT, "0")
	if len(none.Applied) != 0 {
		t.Fatalf("expected no applied entries, got %+v", none.Applied)
	}
}

func TestSpecialTaxes_ApplicabilityMinimums(t *testing.T) {
	dest := tariff.Destination{ID: 4, Category: tariff.CategoryCapital}
	reg := testRegistry(t,
		tariff.SpecialTaxEntry{
			DestinationID: 4, Kind: tariff.TaxTDA, AmountKind: tariff.AmountFixed, Amount: dec("25"),
			MinInvoiceValue: decimal.NewNullDecimal(dec("1000")),
		},
		tariff.SpecialTaxEntry{
			DestinationID: 4, Kind: tariff.TaxTRT, AmountKind: tariff.AmountFixed, Amount: dec("15"),
			MinWeightKG: decimal.NewNullDecimal(dec("50")),
		},
	)

	small := SpecialTaxes(dest, dec("100"), reg, Shipment{InvoiceValue: dec("999.99"), TaxableWeight: dec("49.9")})
	equalDecimal(t, "tda below minimum", small.TDA, "0")
	equalDecimal(t, "trt below minimum", small.TRT, "0")

	large := SpecialTaxes(dest, dec("100"), reg, Shipment{InvoiceValue: dec("1000"), TaxableWeight: dec("50")})
	equalDecimal(t, "tda at minimum", large.TDA, "25")
	equalDecimal(t, "trt at minimum", large.TRT, "15")
}

func TestSpecialTaxes_ValidityWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	dest := tariff.Destination{ID: 7, Category: tariff.CategoryInterior1}
	reg := testRegistry(t,
		tariff.SpecialTaxEntry{
			DestinationID: 7, Kind: tariff.TaxTDA, AmountKind: tariff.AmountFixed, Amount: dec("45"),
			ValidFrom: start, ValidUntil: end,
		},
		tariff.SpecialTaxEntry{
			DestinationID: 7, Kind: tariff.TaxTRT, AmountKind: tariff.AmountFixed, Amount: dec("10"),
			ValidFrom: start,
		},
	)

	tests := []struct {
		name string
		at   time.Time
		tda  string
		trt  string
	}{
		{"before start", start.Add(-time.Minute), "0", "0"},
		{"at start", start, "45", "10"},
		{"inside", start.AddDate(0, 3, 0), "45", "10"},
		{"just before end", end.Add(-time.Nanosecond), "45", "10"},
		{"at end", end, "0", "10"},
		{"after end", end.AddDate(1, 0, 0), "0", "10"},
	}
	for _, tc := range tests {
		got := SpecialTaxes(dest, dec("100"), reg, Shipment{InvoiceValue: dec("500"), TaxableWeight: dec("10"), PricedAt: tc.at})
		equalDecimal(t, tc.name+" tda", got.TDA, tc.tda)
		equalDecimal(t, tc.name+" trt", got.TRT, tc.trt)
	}
}
