package tariff

import "errors"

var (
	// ErrInvalidInput marks a non-positive dimension, weight or invoice value,
	// or a parameter outside its allowed range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownCategory is returned when a category has no bracket rows in
	// the tariff table being priced against, or when a category label does
	// not name one of the known variants.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrMissingActiveVersion means no tariff version is active and none was pinned.
	ErrMissingActiveVersion = errors.New("no active tariff version")

	// ErrDuplicateSpecialTax is a registry integrity violation: two entries
	// for the same destination and tax kind.
	ErrDuplicateSpecialTax = errors.New("duplicate special tax")

	// ErrNotFound is returned by lookups for products, destinations, versions and quotes.
	ErrNotFound = errors.New("not found")
)
