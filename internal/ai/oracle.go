// Package ai is the contract with the AI extraction oracle: a model asked to
// turn free text from an unstructured document into invoice fields, and to
// clean up heuristically extracted item lines in batches.
//
// The oracle is an untrusted data source. Every response passes structural
// validation and numeric coercion before anything downstream sees it.
package ai

import (
	"context"
	"encoding/json"
)

// Oracle is implemented by the OpenAI client and by test fakes.
type Oracle interface {
	// ExtractInvoice reads the full text of a document and returns the
	// structured fields. knownKey, when non-empty, is echoed into the result.
	ExtractInvoice(ctx context.Context, text, knownKey string) (*InvoiceExtraction, error)

	// EnrichItems normalizes a batch of heuristically extracted item lines.
	// The response preserves input order and length.
	EnrichItems(ctx context.Context, items []RawItem) ([]EnrichedItem, error)
}

// InvoiceExtraction is the oracle's answer to ExtractInvoice, after
// validation. Numeric fields use json.Number so that models answering with
// either strings or numbers both decode.
type InvoiceExtraction struct {
	AccessKey string             `json:"access_key"`
	Number    string             `json:"invoice_number"`
	Series    string             `json:"series"`
	IssuedAt  string             `json:"issue_date"`
	Merchant  MerchantExtraction `json:"merchant"`
	Items     []ItemExtraction   `json:"items"`
	Totals    TotalsExtraction   `json:"totals"`
	Category  string             `json:"category"`
}

type MerchantExtraction struct {
	TaxID     string `json:"tax_id"`
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
}

type ItemExtraction struct {
	Description string      `json:"description"`
	ProductCode string      `json:"product_code"`
	NCMCode     string      `json:"ncm_code"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	TotalPrice  json.Number `json:"total_price"`
	Discount    json.Number `json:"discount"`
}

type TotalsExtraction struct {
	Subtotal json.Number `json:"subtotal"`
	Discount json.Number `json:"discount"`
	Tax      json.Number `json:"tax"`
	Total    json.Number `json:"total"`
}

// RawItem is one heuristically extracted line sent for enrichment.
type RawItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

// EnrichedItem is the cleaned-up form of a RawItem, same slice position.
type EnrichedItem struct {
	Description string      `json:"description"`
	ProductCode string      `json:"product_code"`
	NCMCode     string      `json:"ncm_code"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	TotalPrice  json.Number `json:"total_price"`
	Discount    json.Number `json:"discount"`
}
