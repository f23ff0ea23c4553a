package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/product"
)

type productResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	OriginalName  string          `json:"original_name,omitempty"`
	ProductCode   string          `json:"product_code,omitempty"`
	NCMCode       string          `json:"ncm_code,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory,omitempty"`
	IsPromotion   bool            `json:"is_promotion"`
	PurchaseCount int64           `json:"purchase_count"`
	AvgUnitPrice  decimal.Decimal `json:"avg_unit_price"`

	LastPurchaseAt *time.Time `json:"last_purchase_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type priceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	MerchantTaxID string          `json:"merchant_tax_id"`
	MerchantName  string          `json:"merchant_name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

func toResponse(p *product.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		OriginalName:   p.OriginalName,
		ProductCode:    p.ProductCode,
		NCMCode:        p.NCMCode,
		Brand:          p.Brand,
		Category:       string(p.Category),
		Subcategory:    p.Subcategory,
		IsPromotion:    p.IsPromotion,
		PurchaseCount:  p.PurchaseCount,
		AvgUnitPrice:   p.AvgUnitPrice,
		LastPurchaseAt: p.LastPurchaseAt,
		CreatedAt:      p.CreatedAt,
	}
}

func toResponseList(products []*product.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toResponse(p))
	}

	return out
}

func toPriceList(entries []*product.PriceEntry) []priceResponse {
	out := make([]priceResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, priceResponse{
			ID:            e.ID,
			InvoiceID:     e.InvoiceID,
			MerchantTaxID: e.MerchantTaxID,
			MerchantName:  e.MerchantName,
			UnitPrice:     e.UnitPrice,
			Quantity:      e.Quantity,
			PurchasedAt:   e.PurchasedAt,
		})
	}

	return out
}
