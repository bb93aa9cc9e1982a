package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/frete/internal/observability"
	"github.com/Simplici0/frete/internal/quoting"
	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

type productResponse struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	WidthCM             decimal.Decimal `json:"width_cm"`
	HeightCM            decimal.Decimal `json:"height_cm"`
	DepthCM             decimal.Decimal `json:"depth_cm"`
	RealWeightKG        decimal.Decimal `json:"real_weight_kg"`
	DefaultInvoiceValue decimal.Decimal `json:"default_invoice_value"`
}

type specialTaxPayload struct {
	DestinationID   int64               `json:"destination_id"`
	Kind            tariff.TaxKind      `json:"kind"`
	AmountKind      tariff.AmountKind   `json:"amount_kind"`
	Amount          decimal.Decimal     `json:"amount"`
	MinInvoiceValue decimal.NullDecimal `json:"min_invoice_value"`
	MinWeightKG     decimal.NullDecimal `json:"min_weight_kg"`
	ValidFrom       *time.Time          `json:"valid_from,omitempty"`
	ValidUntil      *time.Time          `json:"valid_until,omitempty"`
	Description     string              `json:"description,omitempty"`
}

type destinationResponse struct {
	ID       int64                 `json:"id"`
	Name     string                `json:"name"`
	State    string                `json:"state"`
	Category tariff.Category       `json:"category"`
	HasTDA   bool                  `json:"has_tda"`
	HasTRT   bool                  `json:"has_trt"`
	Delivery tariff.DeliveryWindow `json:"delivery"`
	Taxes    []specialTaxPayload   `json:"taxes"`
}

func toSpecialTaxPayload(e tariff.SpecialTaxEntry) specialTaxPayload {
	return specialTaxPayload{
		DestinationID:   e.DestinationID,
		Kind:            e.Kind,
		AmountKind:      e.AmountKind,
		Amount:          e.Amount,
		MinInvoiceValue: e.MinInvoiceValue,
		MinWeightKG:     e.MinWeightKG,
		ValidFrom:       optionalTime(e.ValidFrom),
		ValidUntil:      optionalTime(e.ValidUntil),
		Description:     e.Description,
	}
}

func (p specialTaxPayload) entry() tariff.SpecialTaxEntry {
	return tariff.SpecialTaxEntry{
		DestinationID:   p.DestinationID,
		Kind:            tariff.TaxKind(strings.ToUpper(string(p.Kind))),
		AmountKind:      tariff.AmountKind(strings.ToUpper(string(p.AmountKind))),
		Amount:          p.Amount,
		MinInvoiceValue: p.MinInvoiceValue,
		MinWeightKG:     p.MinWeightKG,
		ValidFrom:       timeOrZero(p.ValidFrom),
		ValidUntil:      timeOrZero(p.ValidUntil),
		Description:     p.Description,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:                  p.ID,
			Name:                p.Name,
			WidthCM:             p.WidthCM,
			HeightCM:            p.HeightCM,
			DepthCM:             p.DepthCM,
			RealWeightKG:        p.RealWeightKG,
			DefaultInvoiceValue: p.DefaultInvoiceValue,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleDestinationsWithTaxes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer, got %q", tariff.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	listed, err := s.store.ListDestinationsWithTaxes(r.Context(), r.URL.Query().Get("state"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]destinationResponse, 0, len(listed))
	for _, item := range listed {
		d := item.Destination
		resp := destinationResponse{
			ID:       d.ID,
			Name:     d.Name,
			State:    d.State,
			Category: d.Category,
			HasTDA:   d.HasTDA,
			HasTRT:   d.HasTRT,
			Delivery: d.Delivery,
			Taxes:    make([]specialTaxPayload, 0, len(item.Taxes)),
		}
		for _, e := range item.Taxes {
			resp.Taxes = append(resp.Taxes, toSpecialTaxPayload(e))
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleVersionsList(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListVersions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if versions == nil {
		versions = []store.VersionSummary{}
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *server) handleVersionActivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Load before activating so a version with an unknown category never goes live.
	if _, err := s.quotes.Version(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.ActivateVersion(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("tariff version activated", zap.Int64("version_id", id))
	writeJSON(w, http.StatusOK, map[string]int64{"active_version_id": id})
}

func (s *server) handleSpecialTaxesReplace(w http.ResponseWriter, r *http.Request) {
	var payload []specialTaxPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	entries := make([]tariff.SpecialTaxEntry, 0, len(payload))
	for _, p := range payload {
		entries = append(entries, p.entry())
	}
	if err := s.store.ReplaceSpecialTaxes(r.Context(), entries); err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("special taxes replaced", zap.Int("entries", len(entries)))
	writeJSON(w, http.StatusOK, map[string]int{"entries": len(entries)})
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	var req quoting.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	q, err := s.quotes.ComputeQuote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req quoting.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Notes = strings.TrimSpace(req.Notes)

	q, err := s.quotes.CreateQuote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/quotes/%d", q.ID))
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.store.ListQuotes(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.store.GetQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.store.GetQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderQuoteText(detail)))
}
