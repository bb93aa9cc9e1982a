// Package classify maps carrier branch (filial) codes onto tariff categories.
package classify

import (
	"slices"
	"strings"

	"github.com/Simplici0/frete/internal/tariff"
)

// Region is a Brazilian macro-region as used by the carrier's parameter sheets.
type Region string

const (
	RegionSul         Region = "Sul"
	RegionSudeste     Region = "Sudeste"
	RegionCentroOeste Region = "Centro-Oeste"
	RegionNorte       Region = "Norte"
	RegionNordeste    Region = "Nordeste"
)

var regions = map[string]Region{
	"SC": RegionSul, "RS": RegionSul, "PR": RegionSul,
	"SP": RegionSudeste, "MG": RegionSudeste, "RJ": RegionSudeste, "ES": RegionSudeste,
	"DF": RegionCentroOeste, "GO": RegionCentroOeste, "MS": RegionCentroOeste, "MT": RegionCentroOeste,
	"AC": RegionNorte, "AM": RegionNorte, "AP": RegionNorte, "PA": RegionNorte,
	"RO": RegionNorte, "RR": RegionNorte, "TO": RegionNorte,
	"AL": RegionNordeste, "BA": RegionNordeste, "CE": RegionNordeste, "MA": RegionNordeste,
	"PB": RegionNordeste, "PE": RegionNordeste, "PI": RegionNordeste, "RN": RegionNordeste,
	"SE": RegionNordeste,
}

// filials lists the branch codes with a fixed category per state. Codes not
// listed fall into INTERIOR_2.
var filials = map[string]map[tariff.Category][]string{
	"SC": {
		tariff.CategoryCapital:   {"133"},
		tariff.CategoryInterior1: {"085", "086", "226", "290", "310", "379", "577", "687"},
	},
	"RS": {
		tariff.CategoryCapital:   {"505"},
		tariff.CategoryInterior1: {"113", "119", "122", "331", "424", "432", "436", "485", "751"},
	},
	"PR": {
		tariff.CategoryCapital:   {"108"},
		tariff.CategoryInterior1: {"212", "490", "506", "722"},
	},
	"SP": {
		tariff.CategoryCapital:   {"207", "607"},
		tariff.CategoryInterior1: {"003", "095", "230", "231", "320", "405", "503", "550", "600"},
	},
	"MG": {
		tariff.CategoryCapital:   {"091"},
		tariff.CategoryInterior2: {"881", "882", "883", "884", "885", "886"},
	},
	"GO": {
		tariff.CategoryCapital:   {"204"},
		tariff.CategoryInterior2: {"203", "205"},
	},
}

// ByFilial returns the category of a destination served by filial in state.
func ByFilial(state, filial string) tariff.Category {
	byCategory, ok := filials[normalize(state)]
	if !ok {
		return tariff.CategoryInterior2
	}
	filial = padFilial(filial)
	for _, c := range tariff.Categories() {
		if slices.Contains(byCategory[c], filial) {
			return c
		}
	}
	return tariff.CategoryInterior2
}

// RegionOf returns the macro-region of state, or "" for an unknown code.
func RegionOf(state string) Region {
	return regions[normalize(state)]
}

// UsesNorteRates reports whether state is billed with the Norte GRIS and toll
// rates. Rondônia is in the Norte region but keeps the standard rates.
func UsesNorteRates(state string) bool {
	state = normalize(state)
	return regions[state] == RegionNorte && state != "RO"
}

// NorteRateStates lists the states billed with Norte rates, sorted.
func NorteRateStates() []string {
	var out []string
	for state := range regions {
		if UsesNorteRates(state) {
			out = append(out, state)
		}
	}
	slices.Sort(out)
	return out
}

func normalize(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// padFilial restores leading zeros lost when codes pass through spreadsheets.
func padFilial(code string) string {
	code = strings.TrimSpace(code)
	for len(code) > 0 && len(code) < 3 {
		code = "0" + code
	}
	return code
}
