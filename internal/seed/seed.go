// Package seed loads the development catalog and tariff data.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/classify"
	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

const initialVersionName = "Tabela inicial"

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type product struct {
	name                   string
	width, height, depth   string
	weight, defaultInvoice string
}

type destination struct {
	name      string
	state     string
	filial    string
	category  tariff.Category // empty means classify by filial
	minDays   int
	maxDays   int
	transport string
}

type specialTax struct {
	city, state string
	entry       tariff.SpecialTaxEntry
}

var products = []product{
	{"Zilla", "111", "111", "150", "63", "8100"},
	{"Juna", "78", "186", "128", "123", "15000"},
	{"Kimbo", "78", "186", "128", "121", "15000"},
	{"Kay", "78", "186", "128", "161", "16000"},
	{"Jaya", "78", "186", "128", "107", "14000"},
}

var destinations = []destination{
	{name: "São Paulo", state: "SP", filial: "207", minDays: 1, maxDays: 1},
	{name: "Campinas", state: "SP", filial: "003", minDays: 2, maxDays: 2},
	{name: "Santos", state: "SP", filial: "095", minDays: 1, maxDays: 2},
	{name: "Ribeirão Preto", state: "SP", filial: "412", minDays: 3, maxDays: 4},
	{name: "Florianópolis", state: "SC", filial: "133", minDays: 2, maxDays: 3},
	{name: "Joinville", state: "SC", filial: "085", minDays: 2, maxDays: 3},
	{name: "Porto Alegre", state: "RS", filial: "505", minDays: 3, maxDays: 4},
	{name: "Caxias do Sul", state: "RS", filial: "113", minDays: 3, maxDays: 5},
	{name: "Curitiba", state: "PR", filial: "108", minDays: 2, maxDays: 3},
	{name: "Londrina", state: "PR", filial: "212", minDays: 3, maxDays: 4},
	{name: "Foz do Iguaçu", state: "PR", filial: "640", minDays: 4, maxDays: 6},
	{name: "Belo Horizonte", state: "MG", filial: "091", minDays: 2, maxDays: 3},
	{name: "Juiz de Fora", state: "MG", filial: "881", minDays: 3, maxDays: 4},
	{name: "Goiânia", state: "GO", filial: "204", minDays: 4, maxDays: 5},
	{name: "Manaus", state: "AM", category: tariff.CategoryFluvial, minDays: 12, maxDays: 18, transport: "FLUVIAL"},
}

var specialTaxes = []specialTax{
	{"Santos", "SP", tariff.SpecialTaxEntry{
		Kind: tariff.TaxTDA, AmountKind: tariff.AmountFixed, Amount: decimal.RequireFromString("45"),
		Description: "Área portuária",
	}},
	{"Caxias do Sul", "RS", tariff.SpecialTaxEntry{
		Kind: tariff.TaxTRT, AmountKind: tariff.AmountPercentage, Amount: decimal.RequireFromString("0.02"),
		Description: "Restrição de circulação no centro",
	}},
	{"Foz do Iguaçu", "PR", tariff.SpecialTaxEntry{
		Kind: tariff.TaxTDA, AmountKind: tariff.AmountFixed, Amount: decimal.RequireFromString("60"),
		MinInvoiceValue: decimal.NewNullDecimal(decimal.RequireFromString("1000")),
	}},
	{"Juiz de Fora", "MG", tariff.SpecialTaxEntry{
		Kind: tariff.TaxTDA, AmountKind: tariff.AmountFixed, Amount: decimal.RequireFromString("35"),
		MinWeightKG: decimal.NewNullDecimal(decimal.RequireFromString("50")),
	}},
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureProducts(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureDestinations(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	st := store.New(db)
	if err := ensureTariffVersion(ctx, st, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensureSpecialTaxes(ctx, db, st, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensureProducts(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, p := range products {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE name = ? LIMIT 1)`, p.name).Scan(&exists); err != nil {
			return fmt.Errorf("check product %s existence: %w", p.name, err)
		}
		if exists {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, width_cm, height_cm, depth_cm, real_weight_kg, default_invoice_value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.name, p.width, p.height, p.depth, p.weight, p.defaultInvoice); err != nil {
			return fmt.Errorf("insert product %s: %w", p.name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureDestinations(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, d := range destinations {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1
				FROM destinations
				WHERE name = ? AND state = ?
				LIMIT 1
			)
		`, d.name, d.state).Scan(&exists); err != nil {
			return fmt.Errorf("check destination %s/%s existence: %w", d.name, d.state, err)
		}
		if exists {
			continue
		}

		category := d.category
		if category == "" {
			category = classify.ByFilial(d.state, d.filial)
		}
		transport := d.transport
		if transport == "" {
			transport = "RODOVIARIO"
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO destinations (name, state, category, filial_code, delivery_min_days, delivery_max_days, transport)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, d.name, d.state, string(category), nullable(d.filial), d.minDays, d.maxDays, transport); err != nil {
			return fmt.Errorf("insert destination %s/%s: %w", d.name, d.state, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureTariffVersion(ctx context.Context, st *store.Store, stats *Stats) error {
	versions, err := st.ListVersions(ctx)
	if err != nil {
		return err
	}
	if len(versions) > 0 {
		return nil
	}

	id, err := st.CreateVersion(ctx, InitialVersion())
	if err != nil {
		return fmt.Errorf("create initial tariff version: %w", err)
	}
	if err := st.ActivateVersion(ctx, id); err != nil {
		return fmt.Errorf("activate initial tariff version: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureSpecialTaxes(ctx context.Context, db *sql.DB, st *store.Store, stats *Stats) error {
	reg, err := st.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	if reg.Len() > 0 {
		return nil
	}

	entries := make([]tariff.SpecialTaxEntry, 0, len(specialTaxes))
	for _, t := range specialTaxes {
		var id int64
		if err := db.QueryRowContext(ctx, `SELECT id FROM destinations WHERE name = ? AND state = ?`, t.city, t.state).Scan(&id); err != nil {
			return fmt.Errorf("find destination %s/%s: %w", t.city, t.state, err)
		}
		e := t.entry
		e.DestinationID = id
		entries = append(entries, e)
	}

	if err := st.ReplaceSpecialTaxes(ctx, entries); err != nil {
		return fmt.Errorf("seed special taxes: %w", err)
	}
	stats.Inserts += len(entries)
	return nil
}

// InitialVersion is the tariff the development database starts with.
func InitialVersion() store.VersionDraft {
	d := decimal.RequireFromString
	rows := func(b10, b20, b40, b60, b100, excess string) []tariff.BracketRow {
		return []tariff.BracketRow{
			{Threshold: d("0"), BasePrice: d(b10)},
			{Threshold: d("10"), BasePrice: d(b20)},
			{Threshold: d("20"), BasePrice: d(b40)},
			{Threshold: d("40"), BasePrice: d(b60)},
			{Threshold: d("60"), BasePrice: d(b100)},
			{Threshold: d("100"), BasePrice: d(b100), ExcessUnitPrice: d(excess), ExcessIncrement: d("1")},
		}
	}

	overrides := make([]tariff.RegionalOverride, 0)
	for _, state := range classify.NorteRateStates() {
		overrides = append(overrides, tariff.RegionalOverride{
			State:         state,
			GRISPercent:   decimal.NewNullDecimal(d("0.004")),
			TollUnitPrice: decimal.NewNullDecimal(d("8.63")),
		})
	}

	return store.VersionDraft{
		Name:          initialVersionName,
		EffectiveFrom: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Rows: map[tariff.Category][]tariff.BracketRow{
			tariff.CategoryCapital:   rows("25", "35", "55", "75", "120", "1.20"),
			tariff.CategoryInterior1: rows("30", "42", "65", "88", "140", "1.40"),
			tariff.CategoryInterior2: rows("35", "48", "75", "100", "160", "1.60"),
			tariff.CategoryFluvial:   rows("55", "75", "115", "155", "240", "2.40"),
		},
		Params: tariff.ParameterSet{
			CubageFactor:     d("6000"),
			TollUnitPrice:    d("3.80"),
			FFeePercent:      d("0.005"),
			FFeeFloor:        d("4.78"),
			GRISThreshold:    d("10000"),
			GRISPercentBelow: d("0.001"),
			GRISPercentAbove: d("0.0023"),
			GRISFloor:        d("1.10"),
			ICMSRate:         d("0.12"),
		},
		Overrides: overrides,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
