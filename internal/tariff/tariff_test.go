package tariff

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validParams() ParameterSet {
	return ParameterSet{
		CubageFactor:     d("6000"),
		TollUnitPrice:    d("3.80"),
		FFeePercent:      d("0.005"),
		FFeeFloor:        d("4.78"),
		GRISThreshold:    d("10000"),
		GRISPercentBelow: d("0.001"),
		GRISPercentAbove: d("0.0023"),
		GRISFloor:        d("1.10"),
		ICMSRate:         d("0.12"),
	}
}

func validRows() []BracketRow {
	return []BracketRow{
		{Threshold: d("0"), BasePrice: d("30")},
		{Threshold: d("10"), BasePrice: d("42")},
		{Threshold: d("100"), BasePrice: d("140"), ExcessUnitPrice: d("1.40"), ExcessIncrement: d("1")},
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"CAPITAL":    CategoryCapital,
		"interior_1": CategoryInterior1,
		"Interior 2": CategoryInterior2,
		" fluvial ":  CategoryFluvial,
		"INTERIOR-1": CategoryInterior1,
	}
	for raw, want := range cases {
		got, err := ParseCategory(raw)
		if err != nil {
			t.Fatalf("ParseCategory(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseCategory(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseCategory("RJ_METRO"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestNewTable_RejectsNonIncreasingThresholds(t *testing.T) {
	rows := validRows()
	rows[1].Threshold = d("0")

	_, err := NewTable(map[Category][]BracketRow{CategoryCapital: rows})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewTable_RequiresExcessRuleOnLastRow(t *testing.T) {
	rows := validRows()
	rows[2].ExcessUnitPrice = decimal.Zero

	if _, err := NewTable(map[Category][]BracketRow{CategoryCapital: rows}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewTable_RejectsUnknownCategory(t *testing.T) {
	_, err := NewTable(map[Category][]BracketRow{Category("METRO"): validRows()})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestTable_RowsReturnsCopy(t *testing.T) {
	table, err := NewTable(map[Category][]BracketRow{CategoryCapital: validRows()})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	rows, ok := table.Rows(CategoryCapital)
	if !ok {
		t.Fatalf("expected CAPITAL rows")
	}
	rows[0].BasePrice = d("999")

	again, _ := table.Rows(CategoryCapital)
	if !again[0].BasePrice.Equal(d("30")) {
		t.Fatalf("table was mutated through Rows: %s", again[0].BasePrice)
	}
	if _, ok := table.Rows(CategoryFluvial); ok {
		t.Fatalf("did not expect FLUVIAL rows")
	}
}

func TestParameterSet_Validate(t *testing.T) {
	if err := validParams().Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ParameterSet)
	}{
		{"zero cubage factor", func(p *ParameterSet) { p.CubageFactor = decimal.Zero }},
		{"percent above one", func(p *ParameterSet) { p.FFeePercent = d("1.5") }},
		{"negative percent", func(p *ParameterSet) { p.GRISPercentAbove = d("-0.01") }},
		{"negative floor", func(p *ParameterSet) { p.GRISFloor = d("-1") }},
		{"negative toll", func(p *ParameterSet) { p.TollUnitPrice = d("-0.5") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestVersion_ParamsForAppliesRegionalOverride(t *testing.T) {
	table, err := NewTable(map[Category][]BracketRow{CategoryCapital: validRows()})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	override := RegionalOverride{
		State:         "am",
		GRISPercent:   decimal.NewNullDecimal(d("0.004")),
		TollUnitPrice: decimal.NewNullDecimal(d("8.63")),
	}

	v, err := NewVersion(7, "2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), table, validParams(), []RegionalOverride{override})
	if err != nil {
		t.Fatalf("NewVersion: %v", err)
	}

	am := v.ParamsFor("AM")
	if !am.GRISPercentBelow.Equal(d("0.004")) || !am.GRISPercentAbove.Equal(d("0.004")) {
		t.Fatalf("GRIS override not applied to both bands: %s / %s", am.GRISPercentBelow, am.GRISPercentAbove)
	}
	if !am.TollUnitPrice.Equal(d("8.63")) {
		t.Fatalf("toll override not applied: %s", am.TollUnitPrice)
	}
	if !am.ICMSRate.Equal(d("0.12")) {
		t.Fatalf("unset override field changed ICMS: %s", am.ICMSRate)
	}

	sp := v.ParamsFor("SP")
	if !sp.GRISPercentBelow.Equal(d("0.001")) {
		t.Fatalf("state without override should keep defaults, got %s", sp.GRISPercentBelow)
	}
	if got := v.Overrides(); len(got) != 1 || got[0].State != "AM" {
		t.Fatalf("unexpected overrides: %+v", got)
	}
}

func TestNewVersion_RejectsDuplicateOverride(t *testing.T) {
	table, _ := NewTable(map[Category][]BracketRow{CategoryCapital: validRows()})
	overrides := []RegionalOverride{
		{State: "PA", ICMSRate: decimal.NewNullDecimal(d("0.07"))},
		{State: "pa", ICMSRate: decimal.NewNullDecimal(d("0.12"))},
	}
	if _, err := NewVersion(1, "v", time.Now(), table, validParams(), overrides); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewRegistry_DuplicateKindIsRejected(t *testing.T) {
	entries := []SpecialTaxEntry{
		{DestinationID: 10, Kind: TaxTDA, AmountKind: AmountFixed, Amount: d("50")},
		{DestinationID: 10, Kind: TaxTRT, AmountKind: AmountPercentage, Amount: d("0.02")},
		{DestinationID: 10, Kind: TaxTDA, AmountKind: AmountFixed, Amount: d("60")},
	}

	_, err := NewRegistry(entries)
	if !errors.Is(err, ErrDuplicateSpecialTax) {
		t.Fatalf("expected ErrDuplicateSpecialTax, got %v", err)
	}
}

func TestRegistry_LookupAndFlags(t *testing.T) {
	reg, err := NewRegistry([]SpecialTaxEntry{
		{DestinationID: 10, Kind: TaxTDA, AmountKind: AmountFixed, Amount: d("50")},
		{DestinationID: 11, Kind: TaxTRT, AmountKind: AmountPercentage, Amount: d("0.02")},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if tda, trt := reg.Flags(10); !tda || trt {
		t.Fatalf("Flags(10) = %v, %v; want true, false", tda, trt)
	}
	if tda, trt := reg.Flags(99); tda || trt {
		t.Fatalf("Flags(99) = %v, %v; want false, false", tda, trt)
	}
	if e, ok := reg.Entry(11, TaxTRT); !ok || !e.Amount.Equal(d("0.02")) {
		t.Fatalf("unexpected TRT entry: %+v, %v", e, ok)
	}
	if reg.Len() != 2 || len(reg.Entries()) != 2 {
		t.Fatalf("unexpected registry size %d", reg.Len())
	}

	var empty *Registry
	if _, ok := empty.Entry(10, TaxTDA); ok {
		t.Fatalf("nil registry should be empty")
	}
}

func TestSpecialTaxEntry_ValidateRejectsPercentageAboveOne(t *testing.T) {
	e := SpecialTaxEntry{DestinationID: 1, Kind: TaxTRT, AmountKind: AmountPercentage, Amount: d("2")}
	if err := e.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSpecialTaxEntry_ValidityWindow(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	e := SpecialTaxEntry{DestinationID: 1, Kind: TaxTDA, AmountKind: AmountFixed, Amount: d("45"), ValidFrom: from, ValidUntil: until}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{from.Add(-time.Second), false},
		{from, true},
		{until.Add(-time.Second), true},
		{until, false},
	}
	for _, tc := range tests {
		if got := e.InForce(tc.at); got != tc.want {
			t.Fatalf("InForce(%s) = %v, want %v", tc.at, got, tc.want)
		}
	}

	if !(SpecialTaxEntry{}).InForce(time.Time{}) {
		t.Fatalf("an entry without bounds should always be in force")
	}

	e.ValidUntil = from
	if err := e.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty window, got %v", err)
	}
}

func TestProduct_ValidateRejectsNonPositiveDimensions(t *testing.T) {
	p := Product{ID: 3, WidthCM: d("78"), HeightCM: d("0"), DepthCM: d("128"), RealWeightKG: d("123")}
	if err := p.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeliveryWindow_String(t *testing.T) {
	if got := (DeliveryWindow{MinDays: 3, MaxDays: 5}).String(); got != "3 a 5 dias" {
		t.Fatalf("got %q", got)
	}
	if got := (DeliveryWindow{MinDays: 4, MaxDays: 4}).String(); got != "4 dias" {
		t.Fatalf("got %q", got)
	}
	if got := (DeliveryWindow{}).String(); got != "" {
		t.Fatalf("got %q", got)
	}
}
