package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Simplici0/frete/internal/tariff"
)

// VersionDraft is the input of CreateVersion.
type VersionDraft struct {
	Name          string
	EffectiveFrom time.Time
	Rows          map[tariff.Category][]tariff.BracketRow
	Params        tariff.ParameterSet
	Overrides     []tariff.RegionalOverride
}

// VersionSummary is a row of ListVersions.
type VersionSummary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	EffectiveFrom time.Time `json:"effective_from"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActiveVersionID returns the id of the single active tariff version.
func (s *Store) ActiveVersionID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tariff_versions WHERE active = TRUE`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, tariff.ErrMissingActiveVersion
	}
	if err != nil {
		return 0, fmt.Errorf("query active tariff version: %w", err)
	}
	return id, nil
}

// CreateVersion validates and inserts a new, inactive version. Stored
// versions are never updated; a tariff change is always a new version.
func (s *Store) CreateVersion(ctx context.Context, draft VersionDraft) (int64, error) {
	table, err := tariff.NewTable(draft.Rows)
	if err != nil {
		return 0, err
	}
	if _, err := tariff.NewVersion(0, draft.Name, draft.EffectiveFrom, table, draft.Params, draft.Overrides); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create version transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tariff_versions (name, effective_from)
		VALUES (?, ?)
	`, draft.Name, draft.EffectiveFrom.UTC())
	if err != nil {
		return 0, rollback(tx, fmt.Errorf("insert tariff version: %w", err))
	}
	versionID, err := res.LastInsertId()
	if err != nil {
		return 0, rollback(tx, fmt.Errorf("read tariff version id: %w", err))
	}

	p := draft.Params
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tariff_parameters (
			version_id,
			cubage_factor,
			toll_unit_price,
			f_fee_percent,
			f_fee_floor,
			gris_threshold,
			gris_percent_below,
			gris_percent_above,
			gris_floor,
			icms_rate
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, versionID, p.CubageFactor, p.TollUnitPrice, p.FFeePercent, p.FFeeFloor,
		p.GRISThreshold, p.GRISPercentBelow, p.GRISPercentAbove, p.GRISFloor, p.ICMSRate); err != nil {
		return 0, rollback(tx, fmt.Errorf("insert tariff parameters: %w", err))
	}

	for _, category := range table.Categories() {
		rows, _ := table.Rows(category)
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bracket_rows (version_id, category, threshold, base_price, excess_unit_price, excess_increment)
				VALUES (?, ?, ?, ?, ?, ?)
			`, versionID, string(category), row.Threshold, row.BasePrice, row.ExcessUnitPrice, row.ExcessIncrement); err != nil {
				return 0, rollback(tx, fmt.Errorf("insert bracket row %s/%s: %w", category, row.Threshold, err))
			}
		}
	}

	for _, o := range draft.Overrides {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO regional_overrides (version_id, state, f_fee_percent, gris_percent, icms_rate, toll_unit_price)
			VALUES (?, ?, ?, ?, ?, ?)
		`, versionID, o.State, o.FFeePercent, o.GRISPercent, o.ICMSRate, o.TollUnitPrice); err != nil {
			return 0, rollback(tx, fmt.Errorf("insert regional override %s: %w", o.State, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create version transaction: %w", err)
	}
	return versionID, nil
}

// LoadVersion reads a complete version inside one transaction so that the
// table, parameters and overrides come from the same snapshot. Unknown
// category names fail here, never at quote time.
func (s *Store) LoadVersion(ctx context.Context, id int64) (*tariff.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load version transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		name          string
		effectiveFrom time.Time
	)
	if err := tx.QueryRowContext(ctx, `
		SELECT name, effective_from
		FROM tariff_versions
		WHERE id = ?
	`, id).Scan(&name, &effectiveFrom); err != nil {
		return nil, notFound(err, "tariff version %d", id)
	}

	var p tariff.ParameterSet
	if err := tx.QueryRowContext(ctx, `
		SELECT
			cubage_factor,
			toll_unit_price,
			f_fee_percent,
			f_fee_floor,
			gris_threshold,
			gris_percent_below,
			gris_percent_above,
			gris_floor,
			icms_rate
		FROM tariff_parameters
		WHERE version_id = ?
	`, id).Scan(&p.CubageFactor, &p.TollUnitPrice, &p.FFeePercent, &p.FFeeFloor,
		&p.GRISThreshold, &p.GRISPercentBelow, &p.GRISPercentAbove, &p.GRISFloor, &p.ICMSRate); err != nil {
		return nil, notFound(err, "parameters of tariff version %d", id)
	}

	rows, err := loadBracketRows(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	table, err := tariff.NewTable(rows)
	if err != nil {
		return nil, fmt.Errorf("tariff version %d: %w", id, err)
	}

	overrides, err := loadOverrides(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	return tariff.NewVersion(id, name, effectiveFrom, table, p, overrides)
}

func loadBracketRows(ctx context.Context, tx *sql.Tx, versionID int64) (map[tariff.Category][]tariff.BracketRow, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT category, threshold, base_price, excess_unit_price, excess_increment
		FROM bracket_rows
		WHERE version_id = ?
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query bracket rows of version %d: %w", versionID, err)
	}
	defer rows.Close()

	out := map[tariff.Category][]tariff.BracketRow{}
	for rows.Next() {
		var (
			rawCategory string
			row         tariff.BracketRow
		)
		if err := rows.Scan(&rawCategory, &row.Threshold, &row.BasePrice, &row.ExcessUnitPrice, &row.ExcessIncrement); err != nil {
			return nil, fmt.Errorf("scan bracket row: %w", err)
		}
		category, err := tariff.ParseCategory(rawCategory)
		if err != nil {
			return nil, fmt.Errorf("tariff version %d: %w", versionID, err)
		}
		out[category] = append(out[category], row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bracket rows: %w", err)
	}

	// Thresholds are stored as text, so order numerically here.
	for _, categoryRows := range out {
		slices.SortFunc(categoryRows, func(a, b tariff.BracketRow) int {
			return a.Threshold.Cmp(b.Threshold)
		})
	}
	return out, nil
}

func loadOverrides(ctx context.Context, tx *sql.Tx, versionID int64) ([]tariff.RegionalOverride, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT state, f_fee_percent, gris_percent, icms_rate, toll_unit_price
		FROM regional_overrides
		WHERE version_id = ?
		ORDER BY state
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query regional overrides of version %d: %w", versionID, err)
	}
	defer rows.Close()

	var out []tariff.RegionalOverride
	for rows.Next() {
		var o tariff.RegionalOverride
		if err := rows.Scan(&o.State, &o.FFeePercent, &o.GRISPercent, &o.ICMSRate, &o.TollUnitPrice); err != nil {
			return nil, fmt.Errorf("scan regional override: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regional overrides: %w", err)
	}
	return out, nil
}

// ActivateVersion makes id the only active version. Quotes already computed
// keep the version they were priced with.
func (s *Store) ActivateVersion(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate version transaction: %w", err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tariff_versions WHERE id = ?)`, id).Scan(&exists); err != nil {
		return rollback(tx, fmt.Errorf("check tariff version existence: %w", err))
	}
	if !exists {
		return rollback(tx, fmt.Errorf("%w: tariff version %d", tariff.ErrNotFound, id))
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tariff_versions SET active = FALSE WHERE active = TRUE AND id <> ?`, id); err != nil {
		return rollback(tx, fmt.Errorf("deactivate current tariff version: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE tariff_versions
		SET active = TRUE, activated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = FALSE
	`, id); err != nil {
		return rollback(tx, fmt.Errorf("activate tariff version %d: %w", id, err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate version transaction: %w", err)
	}
	return nil
}

// ListVersions returns every stored version, newest first.
func (s *Store) ListVersions(ctx context.Context) ([]VersionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, effective_from, active, created_at
		FROM tariff_versions
		ORDER BY effective_from DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tariff versions: %w", err)
	}
	defer rows.Close()

	var out []VersionSummary
	for rows.Next() {
		var v VersionSummary
		if err := rows.Scan(&v.ID, &v.Name, &v.EffectiveFrom, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tariff version: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tariff versions: %w", err)
	}
	return out, nil
}
