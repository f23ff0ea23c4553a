// Package product is the per-user product catalog: one row per distinct
// physical product, deduplicated across invoices by the matcher, carrying
// running purchase statistics and an append-only price history.
package product

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
)

var (
	ErrNotFound = errors.New("product not found")

	// ErrCodeExists is returned by the store when an insert collides with
	// the unique (user, product code) index. The caller re-fetches by code.
	ErrCodeExists = errors.New("product code already exists for user")
)

// Product is a catalog entry. Products are never deleted when their last
// referencing invoice is deleted; statistics are reset instead, preserving
// the identity for future purchases.
type Product struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string // normalized display name
	OriginalName   string // raw description from the first sighting
	ProductCode    string // EAN/GTIN, optional
	NCMCode        string
	Brand          string
	Category       category.Category
	Subcategory    string
	IsPromotion    bool
	PurchaseCount  int64
	AvgUnitPrice   decimal.Decimal
	LastPurchaseAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// PriceEntry is one price-history row: one per invoice line item, never
// deduplicated across invoices. Rows belonging to a deleted invoice are
// physically removed.
type PriceEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ProductID     uuid.UUID
	InvoiceID     uuid.UUID
	MerchantTaxID string
	MerchantName  string
	UnitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	PurchasedAt   time.Time
	CreatedAt     time.Time
}
