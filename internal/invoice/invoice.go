// Package invoice owns the persisted invoice and its line items, and the
// assembler that turns a ParsedInvoice into catalog-linked rows.
package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
)

var ErrNotFound = errors.New("invoice not found")

// DuplicateError reports an ingestion of an access key the user already has.
// An expected user-facing condition, not a system fault.
type DuplicateError struct {
	ExistingID uuid.UUID
	CreatedAt  time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("invoice already exists (id %s, created %s)", e.ExistingID, e.CreatedAt.Format(time.RFC3339))
}

// IsDuplicate reports whether err is a duplicate-invoice error.
func IsDuplicate(err error) bool {
	var e *DuplicateError

	return errors.As(err, &e)
}

// Invoice is a persisted fiscal document. The merchant is a snapshot, not a
// reference; merchants are not deduplicated into their own entity.
type Invoice struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AccessKey string
	Number    string
	Series    string
	IssuedAt  time.Time

	MerchantTaxID     string
	MerchantName      string
	MerchantTradeName string
	MerchantAddress   string
	MerchantCity      string
	MerchantState     string

	Total    decimal.Decimal
	Category category.Category

	LinkedTransactionID *uuid.UUID
	LinkedAccountID     *uuid.UUID

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Item is one persisted invoice line. LineNumber is 1-based and contiguous
// within an invoice.
type Item struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	Description string
	ProductCode string
	NCMCode     string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Discount    decimal.Decimal
	LineNumber  int
	CreatedAt   time.Time
}

// WithItems pairs an invoice with its ordered line items.
type WithItems struct {
	Invoice *Invoice
	Items   []*Item
}

// CategoryTotal is one row of the monthly spending summary.
type CategoryTotal struct {
	Category category.Category
	Total    decimal.Decimal
	Count    int
}
