package classify

import (
	"testing"

	"github.com/Simplici0/frete/internal/tariff"
)

func TestByFilial(t *testing.T) {
	tests := []struct {
		state  string
		filial string
		want   tariff.Category
	}{
		{"SC", "133", tariff.CategoryCapital},
		{"sc", "085", tariff.CategoryInterior1},
		{"SC", "999", tariff.CategoryInterior2},
		{"SP", "607", tariff.CategoryCapital},
		{"SP", "3", tariff.CategoryInterior1},
		{"SP", " 95 ", tariff.CategoryInterior1},
		{"RS", "751", tariff.CategoryInterior1},
		{"PR", "108", tariff.CategoryCapital},
		{"MG", "091", tariff.CategoryCapital},
		{"MG", "884", tariff.CategoryInterior2},
		{"GO", "204", tariff.CategoryCapital},
		{"GO", "203", tariff.CategoryInterior2},
		{"BA", "133", tariff.CategoryInterior2},
		{"SP", "", tariff.CategoryInterior2},
	}
	for _, tc := range tests {
		if got := ByFilial(tc.state, tc.filial); got != tc.want {
			t.Errorf("ByFilial(%q, %q) = %s, want %s", tc.state, tc.filial, got, tc.want)
		}
	}
}

func TestNorteRates(t *testing.T) {
	if RegionOf("ro") != RegionNorte {
		t.Fatalf("RO should be in the Norte region")
	}
	if UsesNorteRates("RO") {
		t.Fatalf("RO keeps the standard rates")
	}
	if !UsesNorteRates("am") || UsesNorteRates("SP") {
		t.Fatalf("unexpected Norte rate classification")
	}

	got := NorteRateStates()
	want := []string{"AC", "AM", "AP", "PA", "RR", "TO"}
	if len(got) != len(want) {
		t.Fatalf("NorteRateStates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NorteRateStates() = %v, want %v", got, want)
		}
	}
}
