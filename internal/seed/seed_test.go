package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/frete/internal/db"
	"github.com/Simplici0/frete/internal/migrations"
	"github.com/Simplici0/frete/internal/quoting"
	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

func newSeededDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(database))
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	database := newSeededDB(t)

	want := len(products) + len(destinations) + 1 + len(specialTaxes)
	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, database)
		require.NoErrorf(t, err, "run seed (iteration=%d)", i)
		if i == 0 {
			require.Equal(t, want, stats.Inserts)
			continue
		}
		require.Zerof(t, stats.Inserts, "iteration %d", i)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM products`, len(products))
	assertCount(t, database, `SELECT COUNT(*) FROM destinations`, len(destinations))
	assertCount(t, database, `SELECT COUNT(*) FROM tariff_versions WHERE active = TRUE`, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM special_taxes`, len(specialTaxes))
	assertCount(t, database, `SELECT COUNT(*) FROM destinations WHERE has_tda = TRUE OR has_trt = TRUE`, len(specialTaxes))
}

func TestSeedClassifiesDestinationsByFilial(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	database := newSeededDB(t)
	_, err := Run(ctx, database)
	require.NoError(t, err)

	for city, want := range map[string]tariff.Category{
		"São Paulo":      tariff.CategoryCapital,
		"Campinas":       tariff.CategoryInterior1,
		"Ribeirão Preto": tariff.CategoryInterior2,
		"Juiz de Fora":   tariff.CategoryInterior2,
		"Manaus":         tariff.CategoryFluvial,
	} {
		var got string
		require.NoError(t, database.QueryRow(`SELECT category FROM destinations WHERE name = ?`, city).Scan(&got))
		require.Equalf(t, string(want), got, "category of %s", city)
	}
}

func TestSeededTariffPricesGoldenQuote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	database := newSeededDB(t)
	_, err := Run(ctx, database)
	require.NoError(t, err)

	st := store.New(database)
	svc := quoting.NewService(st, zap.NewNop())

	productID := idOf(t, database, `SELECT id FROM products WHERE name = 'Juna'`)
	campinas := idOf(t, database, `SELECT id FROM destinations WHERE name = 'Campinas'`)
	manaus := idOf(t, database, `SELECT id FROM destinations WHERE name = 'Manaus'`)
	invoice := decimal.NewNullDecimal(decimal.RequireFromString("1500"))

	q, err := svc.ComputeQuote(ctx, quoting.Request{ProductID: productID, DestinationID: campinas, InvoiceValue: invoice})
	require.NoError(t, err)
	require.Equal(t, "513.18", q.Result.Totals.Total.StringFixed(2))
	require.Equal(t, "2 dias", q.Result.Delivery.String())

	q, err = svc.ComputeQuote(ctx, quoting.Request{ProductID: productID, DestinationID: manaus, InvoiceValue: invoice})
	require.NoError(t, err)
	require.Equal(t, "34.52", q.Result.Breakdown.Toll.StringFixed(2))
	require.Equal(t, "6.00", q.Result.Breakdown.GRIS.StringFixed(2))
	require.Equal(t, tariff.CategoryFluvial, q.Result.Category)
}

func idOf(t *testing.T, database *sql.DB, query string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, database.QueryRow(query).Scan(&id))
	return id
}

func assertCount(t *testing.T, database *sql.DB, query string, expected int) {
	t.Helper()

	var count int
	require.NoError(t, database.QueryRow(query).Scan(&count))
	require.Equalf(t, expected, count, "count for %q", query)
}
