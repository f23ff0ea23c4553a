package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/extract"
	"github.com/vhrodrigues/notinha/internal/normalize"
	"github.com/vhrodrigues/notinha/internal/product"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	FindByKey(ctx context.Context, userID uuid.UUID, accessKey string) (*Invoice, error)
	CreateInvoice(ctx context.Context, inv *Invoice) error
	CreateItems(ctx context.Context, items []*Item) error
	GetInvoice(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)
	GetItems(ctx context.Context, userID, invoiceID uuid.UUID) ([]*Item, error)
	ListInvoices(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Invoice, error)
	DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error
	MonthlySummary(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]CategoryTotal, error)
}

// Catalog is the product-catalog collaborator; satisfied by product.Service.
type Catalog interface {
	ResolveOrCreate(ctx context.Context, userID uuid.UUID, norm normalize.Product, itemCategory category.Category) (*product.Resolution, error)
	RecordPurchase(ctx context.Context, userID, productID uuid.UUID, unitPrice decimal.Decimal, purchasedAt time.Time) error
	RecordPrice(ctx context.Context, e *product.PriceEntry) error
	ReversePurchase(ctx context.Context, userID, productID, excludeInvoiceID uuid.UUID) error
	DeletePricesByInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error
}

type ListFilter struct {
	Category  *category.Category
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// CreateOptions carries the optional ingestion overrides.
type CreateOptions struct {
	CustomCategory      *category.Category
	LinkedTransactionID *uuid.UUID
	LinkedAccountID     *uuid.UUID
}

// Create assembles and persists a parsed invoice: duplicate check, invoice
// row, then per line item normalization, product resolution, statistics and
// price history. A failure after the invoice row is written triggers
// compensating cleanup of everything created so far.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, parsed *extract.ParsedInvoice, opts CreateOptions) (*WithItems, error) {
	existing, err := s.repo.FindByKey(ctx, userID, parsed.AccessKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}

	if existing != nil {
		return nil, &DuplicateError{ExistingID: existing.ID, CreatedAt: existing.CreatedAt}
	}

	cat := parsed.Category
	if opts.CustomCategory != nil && opts.CustomCategory.Valid() {
		cat = *opts.CustomCategory
	}

	inv := &Invoice{
		UserID:              userID,
		AccessKey:           parsed.AccessKey,
		Number:              parsed.Number,
		Series:              parsed.Series,
		IssuedAt:            parsed.IssuedAt,
		MerchantTaxID:       parsed.Merchant.TaxID,
		MerchantName:        parsed.Merchant.LegalName,
		MerchantTradeName:   parsed.Merchant.TradeName,
		MerchantAddress:     parsed.Merchant.Address,
		MerchantCity:        parsed.Merchant.City,
		MerchantState:       parsed.Merchant.State,
		Total:               parsed.Totals.Total,
		Category:            cat,
		LinkedTransactionID: opts.LinkedTransactionID,
		LinkedAccountID:     opts.LinkedAccountID,
	}

	// The unique (user, access key) index is the authoritative duplicate
	// guard; the check above only catches the common case early.
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	items, recorded, err := s.createItems(ctx, userID, inv, parsed)
	if err != nil {
		return nil, s.cleanup(ctx, userID, inv.ID, recorded, err)
	}

	return &WithItems{Invoice: inv, Items: items}, nil
}

// createItems builds and persists the line items, then records each line's
// purchase and price-history entry. The second return value lists the lines
// whose purchase statistics were already applied, so a failure mid-loop can
// be compensated precisely.
func (s *Service) createItems(ctx context.Context, userID uuid.UUID, inv *Invoice, parsed *extract.ParsedInvoice) ([]*Item, []*Item, error) {
	items := make([]*Item, 0, len(parsed.Items))

	for i, it := range parsed.Items {
		norm := normalize.Describe(it.Description, it.ProductCode, it.NCMCode)

		res, err := s.catalog.ResolveOrCreate(ctx, userID, norm, itemCategory(it.NCMCode, inv.Category))
		if err != nil {
			return nil, nil, fmt.Errorf("resolving product for line %d: %w", i+1, err)
		}

		items = append(items, &Item{
			InvoiceID:   inv.ID,
			UserID:      userID,
			ProductID:   res.Product.ID,
			Description: it.Description,
			ProductCode: it.ProductCode,
			NCMCode:     it.NCMCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			Discount:    it.Discount,
			LineNumber:  i + 1,
		})
	}

	if err := s.repo.CreateItems(ctx, items); err != nil {
		return nil, nil, fmt.Errorf("creating invoice items: %w", err)
	}

	// Each line is an independent purchase event, even when two lines of one
	// invoice resolve to the same product.
	recorded := make([]*Item, 0, len(items))

	for _, item := range items {
		if err := s.catalog.RecordPurchase(ctx, userID, item.ProductID, item.UnitPrice, inv.IssuedAt); err != nil {
			return nil, recorded, fmt.Errorf("recording purchase for line %d: %w", item.LineNumber, err)
		}

		recorded = append(recorded, item)

		if err := s.catalog.RecordPrice(ctx, &product.PriceEntry{
			UserID:        userID,
			ProductID:     item.ProductID,
			InvoiceID:     inv.ID,
			MerchantTaxID: inv.MerchantTaxID,
			MerchantName:  inv.MerchantName,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			PurchasedAt:   inv.IssuedAt,
		}); err != nil {
			return nil, recorded, fmt.Errorf("recording price history for line %d: %w", item.LineNumber, err)
		}
	}

	return items, recorded, nil
}

// cleanup removes the partially created invoice after a mid-assembly
// failure: purchase statistics applied so far are reversed, then the price
// rows and the invoice are deleted. If the cleanup itself fails, both errors
// are surfaced.
func (s *Service) cleanup(ctx context.Context, userID, invoiceID uuid.UUID, recorded []*Item, cause error) error {
	slog.Warn("invoice assembly failed, cleaning up", "invoice_id", invoiceID, "error", cause)

	var cleanupErrs []error

	// Reversal excludes this invoice's history rows by id, so running it
	// before deleting them yields the same averages.
	for _, item := range recorded {
		if err := s.catalog.ReversePurchase(ctx, userID, item.ProductID, invoiceID); err != nil {
			cleanupErrs = append(cleanupErrs, fmt.Errorf("cleanup purchase reversal for line %d: %w", item.LineNumber, err))
		}
	}

	if err := s.catalog.DeletePricesByInvoice(ctx, userID, invoiceID); err != nil {
		cleanupErrs = append(cleanupErrs, fmt.Errorf("cleanup price history: %w", err))
	}

	if err := s.repo.DeleteInvoice(ctx, userID, invoiceID); err != nil && !errors.Is(err, ErrNotFound) {
		cleanupErrs = append(cleanupErrs, fmt.Errorf("cleanup invoice: %w", err))
	}

	if len(cleanupErrs) > 0 {
		return errors.Join(append([]error{cause}, cleanupErrs...)...)
	}

	return cause
}

// Delete removes an invoice, its items and price history, and reverses the
// product statistics of every line. Ownership mismatch reports not-found.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.GetInvoice(ctx, userID, id); err != nil {
		return err
	}

	items, err := s.repo.GetItems(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("loading invoice items: %w", err)
	}

	// Reversal excludes this invoice's history rows by id, so running it
	// before the physical delete yields the same averages.
	for _, item := range items {
		if err := s.catalog.ReversePurchase(ctx, userID, item.ProductID, id); err != nil {
			return fmt.Errorf("reversing purchase for line %d: %w", item.LineNumber, err)
		}
	}

	if err := s.catalog.DeletePricesByInvoice(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting price history: %w", err)
	}

	if err := s.repo.DeleteInvoice(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*WithItems, error) {
	inv, err := s.repo.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading invoice items: %w", err)
	}

	return &WithItems{Invoice: inv, Items: items}, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Invoice, error) {
	return s.repo.ListInvoices(ctx, userID, filter)
}

func (s *Service) MonthlySummary(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]CategoryTotal, error) {
	return s.repo.MonthlySummary(ctx, userID, year, month)
}

// itemCategory classifies a single line by its NCM code, falling back to the
// invoice category when the code says nothing.
func itemCategory(ncm string, invoiceCategory category.Category) category.Category {
	if c := category.Classify("", "", []string{ncm}); c != category.Other {
		return c
	}

	return invoiceCategory
}
