package ingest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/ai"
	"github.com/vhrodrigues/notinha/internal/extract"
	"github.com/vhrodrigues/notinha/internal/fetch"
	"github.com/vhrodrigues/notinha/internal/invoice"
)

type duplicateResponse struct {
	Message    string    `json:"message"`
	ExistingID uuid.UUID `json:"existing_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type invoiceResponse struct {
	ID        uuid.UUID `json:"id"`
	AccessKey string    `json:"access_key"`
	Number    string    `json:"number,omitempty"`
	Series    string    `json:"series,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`

	MerchantTaxID     string `json:"merchant_tax_id"`
	MerchantName      string `json:"merchant_name"`
	MerchantTradeName string `json:"merchant_trade_name,omitempty"`
	MerchantAddress   string `json:"merchant_address,omitempty"`
	MerchantCity      string `json:"merchant_city,omitempty"`
	MerchantState     string `json:"merchant_state,omitempty"`

	Total    decimal.Decimal `json:"total"`
	Category string          `json:"category"`

	LinkedTransactionID *uuid.UUID `json:"linked_transaction_id,omitempty"`
	LinkedAccountID     *uuid.UUID `json:"linked_account_id,omitempty"`

	Items []itemResponse `json:"items"`

	ExtractionMethod string    `json:"extraction_method"`
	CacheHit         bool      `json:"cache_hit"`
	CreatedAt        time.Time `json:"created_at"`
}

type itemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Description string          `json:"description"`
	ProductCode string          `json:"product_code,omitempty"`
	NCMCode     string          `json:"ncm_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineNumber  int             `json:"line_number"`
}

func toResponse(created *invoice.WithItems, meta extract.Metadata) invoiceResponse {
	inv := created.Invoice

	items := make([]itemResponse, 0, len(created.Items))
	for _, item := range created.Items {
		items = append(items, itemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Description: item.Description,
			ProductCode: item.ProductCode,
			NCMCode:     item.NCMCode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			Discount:    item.Discount,
			LineNumber:  item.LineNumber,
		})
	}

	return invoiceResponse{
		ID:                  inv.ID,
		AccessKey:           inv.AccessKey,
		Number:              inv.Number,
		Series:              inv.Series,
		IssuedAt:            inv.IssuedAt,
		MerchantTaxID:       inv.MerchantTaxID,
		MerchantName:        inv.MerchantName,
		MerchantTradeName:   inv.MerchantTradeName,
		MerchantAddress:     inv.MerchantAddress,
		MerchantCity:        inv.MerchantCity,
		MerchantState:       inv.MerchantState,
		Total:               inv.Total,
		Category:            string(inv.Category),
		LinkedTransactionID: inv.LinkedTransactionID,
		LinkedAccountID:     inv.LinkedAccountID,
		Items:               items,
		ExtractionMethod:    string(meta.Method),
		CacheHit:            meta.CacheHit,
		CreatedAt:           inv.CreatedAt,
	}
}

// isUpstream reports whether err came from the portal fetcher or the oracle.
func isUpstream(err error) bool {
	var fe *fetch.Error

	var ae *ai.Error

	return errors.As(err, &fe) || errors.As(err, &ae)
}
