package tariff

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TaxKind names a city-specific surtax.
type TaxKind string

const (
	// TaxTDA is the access-difficulty surtax.
	TaxTDA TaxKind = "TDA"
	// TaxTRT is the traffic-restriction surtax.
	TaxTRT TaxKind = "TRT"
)

// AmountKind says how a special tax amount is read.
type AmountKind string

const (
	AmountFixed      AmountKind = "FIXED"
	AmountPercentage AmountKind = "PERCENTAGE"
)

// SpecialTaxEntry is one surtax rule for one destination. MinInvoiceValue
// and MinWeightKG, when set, limit the entry to shipments at or above them.
// The entry is in force from ValidFrom (inclusive) until ValidUntil
// (exclusive); a zero bound leaves that side open.
type SpecialTaxEntry struct {
	DestinationID   int64
	Kind            TaxKind
	AmountKind      AmountKind
	Amount          decimal.Decimal
	MinInvoiceValue decimal.NullDecimal
	MinWeightKG     decimal.NullDecimal
	ValidFrom       time.Time
	ValidUntil      time.Time
	Description     string
}

// InForce reports whether the entry's validity window contains at.
func (e SpecialTaxEntry) InForce(at time.Time) bool {
	if !e.ValidFrom.IsZero() && at.Before(e.ValidFrom) {
		return false
	}
	if !e.ValidUntil.IsZero() && !at.Before(e.ValidUntil) {
		return false
	}
	return true
}

// Validate checks kinds and amount ranges.
func (e SpecialTaxEntry) Validate() error {
	if e.Kind != TaxTDA && e.Kind != TaxTRT {
		return fmt.Errorf("%w: destination %d has unknown tax kind %q", ErrInvalidInput, e.DestinationID, e.Kind)
	}
	switch e.AmountKind {
	case AmountFixed:
		if e.Amount.IsNegative() {
			return fmt.Errorf("%w: destination %d %s amount is negative", ErrInvalidInput, e.DestinationID, e.Kind)
		}
	case AmountPercentage:
		if err := checkPercent(string(e.Kind), e.Amount); err != nil {
			return fmt.Errorf("destination %d: %w", e.DestinationID, err)
		}
	default:
		return fmt.Errorf("%w: destination %d has unknown amount kind %q", ErrInvalidInput, e.DestinationID, e.AmountKind)
	}
	if !e.ValidFrom.IsZero() && !e.ValidUntil.IsZero() && !e.ValidUntil.After(e.ValidFrom) {
		return fmt.Errorf("%w: destination %d %s validity ends at %s, not after its start %s",
			ErrInvalidInput, e.DestinationID, e.Kind, e.ValidUntil.Format(time.RFC3339), e.ValidFrom.Format(time.RFC3339))
	}
	return nil
}

type registryKey struct {
	destinationID int64
	kind          TaxKind
}

// Registry is a read-only snapshot of special tax entries, at most one per
// destination and kind. A nil *Registry behaves as an empty one.
type Registry struct {
	entries map[registryKey]SpecialTaxEntry
}

// NewRegistry validates entries and rejects a second entry for the same
// destination and kind with ErrDuplicateSpecialTax.
func NewRegistry(entries []SpecialTaxEntry) (*Registry, error) {
	r := &Registry{entries: make(map[registryKey]SpecialTaxEntry, len(entries))}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		key := registryKey{destinationID: e.DestinationID, kind: e.Kind}
		if _, exists := r.entries[key]; exists {
			return nil, fmt.Errorf("%w: destination %d already has a %s entry", ErrDuplicateSpecialTax, e.DestinationID, e.Kind)
		}
		r.entries[key] = e
	}
	return r, nil
}

// Entry returns the entry of the given kind for a destination.
func (r *Registry) Entry(destinationID int64, kind TaxKind) (SpecialTaxEntry, bool) {
	if r == nil {
		return SpecialTaxEntry{}, false
	}
	e, ok := r.entries[registryKey{destinationID: destinationID, kind: kind}]
	return e, ok
}

// Flags reports which kinds are present for a destination.
func (r *Registry) Flags(destinationID int64) (hasTDA, hasTRT bool) {
	_, hasTDA = r.Entry(destinationID, TaxTDA)
	_, hasTRT = r.Entry(destinationID, TaxTRT)
	return hasTDA, hasTRT
}

// Entries returns every entry ordered by destination then kind.
func (r *Registry) Entries() []SpecialTaxEntry {
	if r == nil {
		return nil
	}
	out := make([]SpecialTaxEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DestinationID != out[j].DestinationID {
			return out[i].DestinationID < out[j].DestinationID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
