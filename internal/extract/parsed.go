// Package extract turns raw fiscal-document payloads (tax-authority XML,
// scraped portal HTML, PDF uploads, QR/URL key references) into one
// canonical ParsedInvoice, trying structured parsing first and falling back
// to heuristics and the AI oracle.
package extract

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
)

// Method records which extraction strategy produced a ParsedInvoice.
type Method string

const (
	MethodXML  Method = "xml"
	MethodHTML Method = "html"
	MethodPDF  Method = "pdf"
	MethodAI   Method = "ai"
)

// MerchantInfo is the issuer snapshot carried on a parsed invoice. Merchants
// are not deduplicated into their own entity; only products are.
type MerchantInfo struct {
	TaxID     string // CNPJ, variable-length numeric string
	LegalName string
	TradeName string
	Address   string
	City      string
	State     string
}

// Totals are the document-level amounts. All values are non-negative.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Item is one parsed coupon line.
type Item struct {
	Description string
	ProductCode string // EAN/GTIN, optional
	NCMCode     string // optional
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Discount    decimal.Decimal
}

// Metadata describes how and when the extraction happened.
type Metadata struct {
	ExtractedAt time.Time
	Method      Method
	CacheHit    bool
}

// ParsedInvoice is the canonical in-memory record produced by extraction and
// consumed by the invoice assembler. It is ephemeral: assembly transforms it
// into the persisted Invoice + items.
type ParsedInvoice struct {
	AccessKey string // 44 digits, or a synthetic key for PDF/manual uploads
	Number    string
	Series    string
	IssuedAt  time.Time
	Merchant  MerchantInfo
	Items     []Item
	Totals    Totals
	Category  category.Category
	RawSource string // original payload kept for audit and debugging
	Metadata  Metadata
}

// ItemNCMs collects the NCM codes of all items, for classification.
func (p *ParsedInvoice) ItemNCMs() []string {
	ncms := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		ncms = append(ncms, it.NCMCode)
	}

	return ncms
}

// sumItems recomputes subtotal, discount and total from the item list.
// Used when the document's declared totals are missing or untrustworthy.
func sumItems(items []Item) Totals {
	var t Totals

	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(it.TotalPrice).Add(it.Discount)
		t.Discount = t.Discount.Add(it.Discount)
		t.Total = t.Total.Add(it.TotalPrice)
	}

	return t
}
