package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/match"
	"github.com/vhrodrigues/notinha/internal/normalize"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=product
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, userID, id uuid.UUID) (*Product, error)
	GetByCode(ctx context.Context, userID uuid.UUID, code string) (*Product, error)
	ListProducts(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Product, error)
	UpdateCategory(ctx context.Context, userID, id uuid.UUID, c category.Category) error

	AppendPrice(ctx context.Context, e *PriceEntry) error
	ListPrices(ctx context.Context, userID, productID uuid.UUID, limit, offset int) ([]*PriceEntry, error)
	DeletePricesByInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error

	// BeginStats opens a serialized read-modify-write window on one
	// product's aggregate fields.
	BeginStats(ctx context.Context, userID, productID uuid.UUID) (StatsTx, error)
}

// StatsTx serializes concurrent statistic updates for a single product.
type StatsTx interface {
	Product(ctx context.Context) (*Product, error)
	// RemainingPrices lists unit prices of the product's history rows,
	// excluding those tied to the given invoice.
	RemainingPrices(ctx context.Context, excludeInvoiceID uuid.UUID) ([]decimal.Decimal, error)
	SaveStats(ctx context.Context, count int64, avg decimal.Decimal, lastPurchaseAt *time.Time) error
	Commit() error
	Rollback() error
}

type ListFilter struct {
	Category *category.Category
	Search   string
	Limit    int
	Offset   int
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolution reports how a line item mapped onto the catalog.
type Resolution struct {
	Product    *Product
	Created    bool
	Confidence float64
}

// ResolveOrCreate maps a normalized line item onto the user's catalog:
// product-code lookup first, then the fuzzy candidate scan, creating a new
// entry when nothing matches. When an existing product still carries the
// generic fallback category and this item classifies better, the category is
// upgraded in place.
func (s *Service) ResolveOrCreate(ctx context.Context, userID uuid.UUID, norm normalize.Product, itemCategory category.Category) (*Resolution, error) {
	if norm.ProductCode != "" {
		p, err := s.repo.GetByCode(ctx, userID, norm.ProductCode)
		if err == nil {
			return s.resolved(ctx, p, itemCategory, 1.0)
		}

		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("product code lookup: %w", err)
		}
	}

	existing, err := s.repo.ListProducts(ctx, userID, ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing catalog for matching: %w", err)
	}

	candidates := make([]match.Candidate, 0, len(existing))
	byID := make(map[uuid.UUID]*Product, len(existing))

	for _, p := range existing {
		byID[p.ID] = p
		candidates = append(candidates, match.Candidate{
			ProductID: p.ID,
			Product: normalize.Product{
				NormalizedName: p.Name,
				ProductCode:    p.ProductCode,
				NCMCode:        p.NCMCode,
				Brand:          p.Brand,
			},
		})
	}

	if best, ok := match.FindBestMatch(norm, candidates); ok {
		return s.resolved(ctx, byID[best.ProductID], itemCategory, best.Result.Confidence)
	}

	created := &Product{
		UserID:       userID,
		Name:         norm.NormalizedName,
		OriginalName: norm.OriginalName,
		ProductCode:  norm.ProductCode,
		NCMCode:      norm.NCMCode,
		Brand:        norm.Brand,
		Category:     itemCategory,
		IsPromotion:  norm.IsPromotion,
		AvgUnitPrice: decimal.Zero,
	}

	if err := s.repo.CreateProduct(ctx, created); err != nil {
		// A concurrent ingestion created the same code first; reuse it.
		if errors.Is(err, ErrCodeExists) && norm.ProductCode != "" {
			p, getErr := s.repo.GetByCode(ctx, userID, norm.ProductCode)
			if getErr == nil {
				return s.resolved(ctx, p, itemCategory, 1.0)
			}
		}

		return nil, fmt.Errorf("creating product: %w", err)
	}

	return &Resolution{Product: created, Created: true, Confidence: 1.0}, nil
}

func (s *Service) resolved(ctx context.Context, p *Product, itemCategory category.Category, confidence float64) (*Resolution, error) {
	if p.Category == category.Other && itemCategory != category.Other && itemCategory.Valid() {
		if err := s.repo.UpdateCategory(ctx, p.UserID, p.ID, itemCategory); err != nil {
			return nil, fmt.Errorf("upgrading product category: %w", err)
		}

		p.Category = itemCategory
	}

	return &Resolution{Product: p, Confidence: confidence}, nil
}

// RecordPurchase appends one purchase event to the product's statistics: a
// plain incremental mean over line items, deliberately not weighted by
// quantity.
func (s *Service) RecordPurchase(ctx context.Context, userID, productID uuid.UUID, unitPrice decimal.Decimal, purchasedAt time.Time) error {
	stx, err := s.repo.BeginStats(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("begin stats update: %w", err)
	}
	defer stx.Rollback()

	p, err := stx.Product(ctx)
	if err != nil {
		return fmt.Errorf("reading product stats: %w", err)
	}

	newCount := p.PurchaseCount + 1
	newAvg := p.AvgUnitPrice.
		Mul(decimal.NewFromInt(p.PurchaseCount)).
		Add(unitPrice).
		Div(decimal.NewFromInt(newCount))

	last := p.LastPurchaseAt
	if last == nil || purchasedAt.After(*last) {
		last = &purchasedAt
	}

	if err := stx.SaveStats(ctx, newCount, newAvg, last); err != nil {
		return fmt.Errorf("saving product stats: %w", err)
	}

	if err := stx.Commit(); err != nil {
		return fmt.Errorf("committing stats update: %w", err)
	}

	return nil
}

// ReversePurchase undoes one purchase event. With purchases remaining, the
// average is recomputed as the arithmetic mean of the surviving history rows;
// at zero the statistics reset entirely.
func (s *Service) ReversePurchase(ctx context.Context, userID, productID uuid.UUID, excludeInvoiceID uuid.UUID) error {
	stx, err := s.repo.BeginStats(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("begin stats update: %w", err)
	}
	defer stx.Rollback()

	p, err := stx.Product(ctx)
	if err != nil {
		return fmt.Errorf("reading product stats: %w", err)
	}

	newCount := p.PurchaseCount - 1
	if newCount < 0 {
		newCount = 0
	}

	var (
		newAvg decimal.Decimal
		last   *time.Time
	)

	if newCount > 0 {
		prices, err := stx.RemainingPrices(ctx, excludeInvoiceID)
		if err != nil {
			return fmt.Errorf("listing remaining prices: %w", err)
		}

		if len(prices) > 0 {
			sum := decimal.Zero
			for _, price := range prices {
				sum = sum.Add(price)
			}

			newAvg = sum.Div(decimal.NewFromInt(int64(len(prices))))
		}

		last = p.LastPurchaseAt
	}

	if err := stx.SaveStats(ctx, newCount, newAvg, last); err != nil {
		return fmt.Errorf("saving product stats: %w", err)
	}

	if err := stx.Commit(); err != nil {
		return fmt.Errorf("committing stats update: %w", err)
	}

	return nil
}

// RecordPrice appends one price-history row for an invoice line item.
func (s *Service) RecordPrice(ctx context.Context, e *PriceEntry) error {
	if err := s.repo.AppendPrice(ctx, e); err != nil {
		return fmt.Errorf("appending price history: %w", err)
	}

	return nil
}

// DeletePricesByInvoice removes the history rows of a deleted invoice.
func (s *Service) DeletePricesByInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error {
	return s.repo.DeletePricesByInvoice(ctx, userID, invoiceID)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Product, error) {
	return s.repo.ListProducts(ctx, userID, filter)
}

func (s *Service) PriceHistory(ctx context.Context, userID, productID uuid.UUID, limit, offset int) ([]*PriceEntry, error) {
	if _, err := s.repo.GetProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	return s.repo.ListPrices(ctx, userID, productID, limit, offset)
}
