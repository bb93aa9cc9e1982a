package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Simplici0/frete/internal/tariff"
)

const defaultDestinationLimit = 100

// DestinationTaxes is a destination together with its special tax entries.
type DestinationTaxes struct {
	Destination tariff.Destination
	Taxes       []tariff.SpecialTaxEntry
}

// Product returns an active product by id.
func (s *Store) Product(ctx context.Context, id int64) (tariff.Product, error) {
	p := tariff.Product{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, width_cm, height_cm, depth_cm, real_weight_kg, default_invoice_value
		FROM products
		WHERE id = ? AND active = TRUE
	`, id).Scan(&p.Name, &p.WidthCM, &p.HeightCM, &p.DepthCM, &p.RealWeightKG, &p.DefaultInvoiceValue)
	if err != nil {
		return tariff.Product{}, notFound(err, "product %d", id)
	}
	return p, nil
}

// ListProducts returns active products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]tariff.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, width_cm, height_cm, depth_cm, real_weight_kg, default_invoice_value
		FROM products
		WHERE active = TRUE
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []tariff.Product
	for rows.Next() {
		var p tariff.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.WidthCM, &p.HeightCM, &p.DepthCM, &p.RealWeightKG, &p.DefaultInvoiceValue); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

type destinationScanner interface {
	Scan(dest ...any) error
}

const destinationColumns = `d.id, d.name, d.state, d.category, d.has_tda, d.has_trt, d.delivery_min_days, d.delivery_max_days, d.transport`

func scanDestination(row destinationScanner) (tariff.Destination, error) {
	var (
		d           tariff.Destination
		rawCategory string
		minDays     sql.NullInt64
		maxDays     sql.NullInt64
		transport   sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Name, &d.State, &rawCategory, &d.HasTDA, &d.HasTRT, &minDays, &maxDays, &transport); err != nil {
		return tariff.Destination{}, err
	}
	category, err := tariff.ParseCategory(rawCategory)
	if err != nil {
		return tariff.Destination{}, fmt.Errorf("destination %d: %w", d.ID, err)
	}
	d.Category = category
	d.Delivery = tariff.DeliveryWindow{
		MinDays:   int(minDays.Int64),
		MaxDays:   int(maxDays.Int64),
		Transport: transport.String,
	}
	return d, nil
}

// Destination returns an active destination by id.
func (s *Store) Destination(ctx context.Context, id int64) (tariff.Destination, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations d
		WHERE d.id = ? AND d.active = TRUE
	`, id)
	d, err := scanDestination(row)
	if err != nil {
		return tariff.Destination{}, notFound(err, "destination %d", id)
	}
	return d, nil
}

// ListDestinationsWithTaxes returns destinations carrying TDA or TRT,
// optionally restricted to one state, with their entries attached.
func (s *Store) ListDestinationsWithTaxes(ctx context.Context, state string, limit int) ([]DestinationTaxes, error) {
	if limit <= 0 {
		limit = defaultDestinationLimit
	}
	state = strings.ToUpper(strings.TrimSpace(state))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations d
		WHERE d.active = TRUE
			AND (d.has_tda = TRUE OR d.has_trt = TRUE)
			AND (? = '' OR d.state = ?)
		ORDER BY d.state, d.name
		LIMIT ?
	`, state, state, limit)
	if err != nil {
		return nil, fmt.Errorf("query destinations with special taxes: %w", err)
	}

	var (
		out   []DestinationTaxes
		index = map[int64]int{}
	)
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		index[d.ID] = len(out)
		out = append(out, DestinationTaxes{Destination: d})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}

	entries, err := s.specialTaxEntries(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if i, ok := index[e.DestinationID]; ok {
			out[i].Taxes = append(out[i].Taxes, e)
		}
	}
	return out, nil
}
