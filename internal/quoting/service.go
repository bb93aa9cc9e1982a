// Package quoting resolves products, destinations, tariff versions and
// special taxes, then prices a shipment with the pricing engine.
package quoting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/frete/internal/pricing"
	"github.com/Simplici0/frete/internal/store"
	"github.com/Simplici0/frete/internal/tariff"
)

// Repository is the persistence the service reads from and writes quotes to.
// *store.Store satisfies it.
type Repository interface {
	ActiveVersionID(ctx context.Context) (int64, error)
	LoadVersion(ctx context.Context, id int64) (*tariff.Version, error)
	Product(ctx context.Context, id int64) (tariff.Product, error)
	Destination(ctx context.Context, id int64) (tariff.Destination, error)
	SpecialTaxRegistry(ctx context.Context, destinationID int64) (*tariff.Registry, error)
	SaveQuote(ctx context.Context, rec store.QuoteRecord) (int64, error)
}

// Request identifies the shipment to price. A zero VersionID prices against
// the active version and a negative one is rejected; an invalid InvoiceValue falls back to the product's
// default invoice value.
type Request struct {
	ProductID     int64               `json:"product_id"`
	DestinationID int64               `json:"destination_id"`
	InvoiceValue  decimal.NullDecimal `json:"invoice_value"`
	VersionID     int64               `json:"version_id,omitempty"`
	Title         string              `json:"title,omitempty"`
	Notes         string              `json:"notes,omitempty"`
}

// Quote is a priced request together with the resolved catalog entries.
type Quote struct {
	ID          int64          `json:"id,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Product     string         `json:"product"`
	Destination string         `json:"destination"`
	State       string         `json:"state"`
	Result      pricing.Result `json:"result"`
}

// Service prices shipments. Loaded versions are immutable and cached by id.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	versions map[int64]*tariff.Version
}

// NewService returns a Service backed by repo.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		now:      time.Now,
		versions: make(map[int64]*tariff.Version),
	}
}

// ActiveVersion returns the currently active tariff version.
func (s *Service) ActiveVersion(ctx context.Context) (*tariff.Version, error) {
	id, err := s.repo.ActiveVersionID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Version(ctx, id)
}

// Version returns version id, loading it once.
func (s *Service) Version(ctx context.Context, id int64) (*tariff.Version, error) {
	s.mu.RLock()
	v, ok := s.versions[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := s.repo.LoadVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if cached, ok := s.versions[id]; ok {
		v = cached
	} else {
		s.versions[id] = v
	}
	s.mu.Unlock()

	s.logger.Debug("tariff version loaded", zap.Int64("version_id", id), zap.String("name", v.Name))
	return v, nil
}

// ComputeQuote prices req without persisting it. Every input is read from
// a snapshot taken for this call, so concurrent calls never observe a
// partially updated tariff.
func (s *Service) ComputeQuote(ctx context.Context, req Request) (Quote, error) {
	if req.ProductID <= 0 || req.DestinationID <= 0 {
		return Quote{}, fmt.Errorf("%w: product_id and destination_id are required", tariff.ErrInvalidInput)
	}
	if req.VersionID < 0 {
		return Quote{}, fmt.Errorf("%w: version_id must be positive, got %d", tariff.ErrInvalidInput, req.VersionID)
	}

	var (
		version *tariff.Version
		err     error
	)
	if req.VersionID > 0 {
		version, err = s.Version(ctx, req.VersionID)
	} else {
		version, err = s.ActiveVersion(ctx)
	}
	if err != nil {
		return Quote{}, err
	}

	product, err := s.repo.Product(ctx, req.ProductID)
	if err != nil {
		return Quote{}, err
	}
	dest, err := s.repo.Destination(ctx, req.DestinationID)
	if err != nil {
		return Quote{}, err
	}
	reg, err := s.repo.SpecialTaxRegistry(ctx, dest.ID)
	if err != nil {
		return Quote{}, err
	}

	invoice := product.DefaultInvoiceValue
	if req.InvoiceValue.Valid {
		invoice = req.InvoiceValue.Decimal
	}

	result, err := pricing.Quote(pricing.Input{
		Product:      product,
		Destination:  dest,
		InvoiceValue: invoice,
		PricedAt:     s.now(),
	}, version, reg)
	if err != nil {
		if errors.Is(err, tariff.ErrUnknownCategory) {
			s.logger.Warn("destination category missing from tariff",
				zap.Int64("destination_id", dest.ID),
				zap.String("category", dest.Category.String()),
				zap.Int64("version_id", version.ID),
			)
		}
		return Quote{}, err
	}

	return Quote{
		Product:     product.Name,
		Destination: dest.Name,
		State:       dest.State,
		Result:      result,
	}, nil
}

// CreateQuote prices req and stores the snapshot under a fresh reference.
func (s *Service) CreateQuote(ctx context.Context, req Request) (Quote, error) {
	q, err := s.ComputeQuote(ctx, req)
	if err != nil {
		return Quote{}, err
	}

	q.Reference = uuid.NewString()
	id, err := s.repo.SaveQuote(ctx, store.QuoteRecord{
		Reference:     q.Reference,
		Title:         req.Title,
		Notes:         req.Notes,
		ProductID:     req.ProductID,
		DestinationID: req.DestinationID,
		Result:        q.Result,
	})
	if err != nil {
		return Quote{}, err
	}
	q.ID = id

	s.logger.Info("quote created",
		zap.Int64("quote_id", id),
		zap.String("reference", q.Reference),
		zap.Int64("version_id", q.Result.VersionID),
		zap.String("total", q.Result.Totals.Total.StringFixed(2)),
	)
	return q, nil
}
