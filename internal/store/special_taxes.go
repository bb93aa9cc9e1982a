package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Simplici0/frete/internal/tariff"
)

// SpecialTaxRegistry returns a registry snapshot holding the entries of one
// destination.
func (s *Store) SpecialTaxRegistry(ctx context.Context, destinationID int64) (*tariff.Registry, error) {
	entries, err := s.specialTaxEntries(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	return tariff.NewRegistry(entries)
}

// LoadRegistry returns a registry snapshot of every entry.
func (s *Store) LoadRegistry(ctx context.Context) (*tariff.Registry, error) {
	entries, err := s.specialTaxEntries(ctx, 0)
	if err != nil {
		return nil, err
	}
	return tariff.NewRegistry(entries)
}

// specialTaxEntries loads the entries of destinationID, or all entries when it is zero.
func (s *Store) specialTaxEntries(ctx context.Context, destinationID int64) ([]tariff.SpecialTaxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT destination_id, kind, amount_kind, amount, min_invoice_value, min_weight_kg, valid_from, valid_until, COALESCE(description, '')
		FROM special_taxes
		WHERE ? = 0 OR destination_id = ?
		ORDER BY destination_id, kind
	`, destinationID, destinationID)
	if err != nil {
		return nil, fmt.Errorf("query special taxes: %w", err)
	}
	defer rows.Close()

	var out []tariff.SpecialTaxEntry
	for rows.Next() {
		var (
			e          tariff.SpecialTaxEntry
			kind       string
			amountKind string
			validFrom  sql.NullTime
			validUntil sql.NullTime
		)
		if err := rows.Scan(&e.DestinationID, &kind, &amountKind, &e.Amount, &e.MinInvoiceValue, &e.MinWeightKG,
			&validFrom, &validUntil, &e.Description); err != nil {
			return nil, fmt.Errorf("scan special tax: %w", err)
		}
		e.Kind = tariff.TaxKind(kind)
		e.AmountKind = tariff.AmountKind(amountKind)
		if validFrom.Valid {
			e.ValidFrom = validFrom.Time.UTC()
		}
		if validUntil.Valid {
			e.ValidUntil = validUntil.Time.UTC()
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate special taxes: %w", err)
	}
	return out, nil
}

// ReplaceSpecialTaxes swaps the whole registry for entries and refreshes the
// destinations' TDA/TRT flags in the same transaction. A duplicate
// (destination, kind) pair or an unknown destination is rejected before
// anything is written.
func (s *Store) ReplaceSpecialTaxes(ctx context.Context, entries []tariff.SpecialTaxEntry) error {
	reg, err := tariff.NewRegistry(entries)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace special taxes transaction: %w", err)
	}

	checked := make(map[int64]bool)
	for _, e := range reg.Entries() {
		if checked[e.DestinationID] {
			continue
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM destinations WHERE id = ?)`, e.DestinationID).Scan(&exists); err != nil {
			return rollback(tx, fmt.Errorf("check destination %d existence: %w", e.DestinationID, err))
		}
		if !exists {
			return rollback(tx, fmt.Errorf("%w: destination %d has %s entry but does not exist", tariff.ErrNotFound, e.DestinationID, e.Kind))
		}
		checked[e.DestinationID] = true
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM special_taxes`); err != nil {
		return rollback(tx, fmt.Errorf("clear special taxes: %w", err))
	}

	for _, e := range reg.Entries() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO special_taxes (
				destination_id, kind, amount_kind, amount, min_invoice_value, min_weight_kg, valid_from, valid_until, description
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.DestinationID, string(e.Kind), string(e.AmountKind), e.Amount, e.MinInvoiceValue, e.MinWeightKG,
			nullTime(e.ValidFrom), nullTime(e.ValidUntil), nullString(e.Description)); err != nil {
			return rollback(tx, fmt.Errorf("insert %s for destination %d: %w", e.Kind, e.DestinationID, err))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE destinations
		SET
			has_tda = EXISTS(SELECT 1 FROM special_taxes t WHERE t.destination_id = destinations.id AND t.kind = 'TDA'),
			has_trt = EXISTS(SELECT 1 FROM special_taxes t WHERE t.destination_id = destinations.id AND t.kind = 'TRT')
	`); err != nil {
		return rollback(tx, fmt.Errorf("refresh destination tax flags: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace special taxes transaction: %w", err)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
