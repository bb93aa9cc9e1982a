package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/frete/internal/observability"
	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

type bracketRowPayload struct {
	Threshold       decimal.Decimal `json:"threshold"`
	BasePrice       decimal.Decimal `json:"base_price"`
	ExcessUnitPrice decimal.Decimal `json:"excess_unit_price"`
	ExcessIncrement decimal.Decimal `json:"excess_increment"`
}

type parametersPayload struct {
	CubageFactor     decimal.Decimal `json:"cubage_factor"`
	TollUnitPrice    decimal.Decimal `json:"toll_unit_price"`
	FFeePercent      decimal.Decimal `json:"f_fee_percent"`
	FFeeFloor        decimal.Decimal `json:"f_fee_floor"`
	GRISThreshold    decimal.Decimal `json:"gris_threshold"`
	GRISPercentBelow decimal.Decimal `json:"gris_percent_below"`
	GRISPercentAbove decimal.Decimal `json:"gris_percent_above"`
	GRISFloor        decimal.Decimal `json:"gris_floor"`
	ICMSRate         decimal.Decimal `json:"icms_rate"`
}

type overridePayload struct {
	State         string              `json:"state"`
	FFeePercent   decimal.NullDecimal `json:"f_fee_percent"`
	GRISPercent   decimal.NullDecimal `json:"gris_percent"`
	ICMSRate      decimal.NullDecimal `json:"icms_rate"`
	TollUnitPrice decimal.NullDecimal `json:"toll_unit_price"`
}

// versionPayload is the body of POST /admin/versions. Rows are keyed by
// category label.
type versionPayload struct {
	Name          string                         `json:"name"`
	EffectiveFrom time.Time                      `json:"effective_from"`
	Rows          map[string][]bracketRowPayload `json:"rows"`
	Params        parametersPayload              `json:"params"`
	Overrides     []overridePayload              `json:"overrides"`
}

func (p versionPayload) draft() (store.VersionDraft, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return store.VersionDraft{}, fmt.Errorf("%w: version name is required", tariff.ErrInvalidInput)
	}
	if p.EffectiveFrom.IsZero() {
		return store.VersionDraft{}, fmt.Errorf("%w: effective_from is required", tariff.ErrInvalidInput)
	}
	if len(p.Rows) == 0 {
		return store.VersionDraft{}, fmt.Errorf("%w: a version needs bracket rows", tariff.ErrInvalidInput)
	}

	rows := make(map[tariff.Category][]tariff.BracketRow, len(p.Rows))
	for label, payloadRows := range p.Rows {
		category, err := tariff.ParseCategory(label)
		if err != nil {
			return store.VersionDraft{}, err
		}
		if _, dup := rows[category]; dup {
			return store.VersionDraft{}, fmt.Errorf("%w: category %s listed twice", tariff.ErrInvalidInput, category)
		}
		converted := make([]tariff.BracketRow, 0, len(payloadRows))
		for _, r := range payloadRows {
			converted = append(converted, tariff.BracketRow{
				Threshold:       r.Threshold,
				BasePrice:       r.BasePrice,
				ExcessUnitPrice: r.ExcessUnitPrice,
				ExcessIncrement: r.ExcessIncrement,
			})
		}
		rows[category] = converted
	}

	overrides := make([]tariff.RegionalOverride, 0, len(p.Overrides))
	for _, o := range p.Overrides {
		overrides = append(overrides, tariff.RegionalOverride{
			State:         strings.ToUpper(strings.TrimSpace(o.State)),
			FFeePercent:   o.FFeePercent,
			GRISPercent:   o.GRISPercent,
			ICMSRate:      o.ICMSRate,
			TollUnitPrice: o.TollUnitPrice,
		})
	}

	return store.VersionDraft{
		Name:          name,
		EffectiveFrom: p.EffectiveFrom.UTC(),
		Rows:          rows,
		Params: tariff.ParameterSet{
			CubageFactor:     p.Params.CubageFactor,
			TollUnitPrice:    p.Params.TollUnitPrice,
			FFeePercent:      p.Params.FFeePercent,
			FFeeFloor:        p.Params.FFeeFloor,
			GRISThreshold:    p.Params.GRISThreshold,
			GRISPercentBelow: p.Params.GRISPercentBelow,
			GRISPercentAbove: p.Params.GRISPercentAbove,
			GRISFloor:        p.Params.GRISFloor,
			ICMSRate:         p.Params.ICMSRate,
		},
		Overrides: overrides,
	}, nil
}

// handleVersionCreate stores a new, inactive tariff version. Activation is a
// separate step.
func (s *server) handleVersionCreate(w http.ResponseWriter, r *http.Request) {
	var payload versionPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	draft, err := payload.draft()
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateVersion(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("tariff version created",
		zap.Int64("version_id", id),
		zap.String("name", draft.Name),
	)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
