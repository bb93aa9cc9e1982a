package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/frete/internal/pricing"
)

// QuoteRecord is a computed quote ready to be persisted.
type QuoteRecord struct {
	Reference     string
	Title         string
	Notes         string
	ProductID     int64
	DestinationID int64
	Result        pricing.Result
}

// QuoteDetail is a stored quote snapshot. The breakdown is read back as it
// was priced, never recalculated.
type QuoteDetail struct {
	ID              int64          `json:"id"`
	Reference       string         `json:"reference"`
	CreatedAt       time.Time      `json:"created_at"`
	Title           string         `json:"title,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	ProductID       int64          `json:"product_id"`
	ProductName     string         `json:"product_name"`
	DestinationID   int64          `json:"destination_id"`
	DestinationName string         `json:"destination_name"`
	State           string         `json:"state"`
	Result          pricing.Result `json:"result"`
}

// QuoteListItem is a row of ListQuotes.
type QuoteListItem struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
	Title     string          `json:"title"`
	Total     decimal.Decimal `json:"total"`
}

// SaveQuote stores a quote snapshot and returns its id.
func (s *Store) SaveQuote(ctx context.Context, rec QuoteRecord) (int64, error) {
	totalsJSON, err := json.Marshal(rec.Result.Totals)
	if err != nil {
		return 0, fmt.Errorf("encode quote totals: %w", err)
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return 0, fmt.Errorf("encode quote breakdown: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			reference,
			title,
			notes,
			product_id,
			destination_id,
			version_id,
			invoice_value,
			totals_json,
			breakdown_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Reference, nullString(rec.Title), nullString(rec.Notes), rec.ProductID, rec.DestinationID,
		rec.Result.VersionID, rec.Result.InvoiceValue, string(totalsJSON), string(resultJSON))
	if err != nil {
		return 0, fmt.Errorf("insert quote %s: %w", rec.Reference, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read quote id: %w", err)
	}
	return id, nil
}

// GetQuote returns a stored quote by id.
func (s *Store) GetQuote(ctx context.Context, id int64) (QuoteDetail, error) {
	var (
		detail     QuoteDetail
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			q.id,
			q.reference,
			q.created_at,
			COALESCE(q.title, ''),
			COALESCE(q.notes, ''),
			q.product_id,
			p.name,
			q.destination_id,
			d.name,
			d.state,
			q.breakdown_json
		FROM quotes q
		JOIN products p ON p.id = q.product_id
		JOIN destinations d ON d.id = q.destination_id
		WHERE q.id = ?
	`, id).Scan(
		&detail.ID,
		&detail.Reference,
		&detail.CreatedAt,
		&detail.Title,
		&detail.Notes,
		&detail.ProductID,
		&detail.ProductName,
		&detail.DestinationID,
		&detail.DestinationName,
		&detail.State,
		&resultJSON,
	)
	if err != nil {
		return QuoteDetail{}, notFound(err, "quote %d", id)
	}

	if err := json.Unmarshal([]byte(resultJSON), &detail.Result); err != nil {
		return QuoteDetail{}, fmt.Errorf("decode quote %d breakdown: %w", id, err)
	}
	return detail, nil
}

// ListQuotes returns quotes newest first. A non-empty query filters by title
// or notes.
func (s *Store) ListQuotes(ctx context.Context, query string) ([]QuoteListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id,
			reference,
			created_at,
			COALESCE(title, ''),
			totals_json
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]QuoteListItem, 0)
	for rows.Next() {
		var item QuoteListItem
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.Reference, &item.CreatedAt, &item.Title, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.Total = extractTotal(totalsJSON)
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

func extractTotal(totalsJSON string) decimal.Decimal {
	var totals pricing.Totals
	if err := json.Unmarshal([]byte(totalsJSON), &totals); err != nil {
		return decimal.Zero
	}
	return totals.Total
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
