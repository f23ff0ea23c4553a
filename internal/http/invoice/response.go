package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/invoice"
)

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

	CreatedAt time.Time `json:"created_at"`
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

type detailResponse struct {
	invoiceResponse
	Items []itemResponse `json:"items"`
}

type summaryResponse struct {
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	Total      decimal.Decimal         `json:"total"`
	Categories []categoryTotalResponse `json:"categories"`
}

type categoryTotalResponse struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
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
		CreatedAt:           inv.CreatedAt,
	}
}

func toResponseList(invoices []*invoice.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toResponse(inv))
	}

	return out
}

func toDetailResponse(inv *invoice.WithItems) detailResponse {
	items := make([]itemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
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

	return detailResponse{
		invoiceResponse: toResponse(inv.Invoice),
		Items:           items,
	}
}

func toSummaryResponse(year int, month time.Month, totals []invoice.CategoryTotal) summaryResponse {
	resp := summaryResponse{
		Year:       year,
		Month:      int(month),
		Categories: make([]categoryTotalResponse, 0, len(totals)),
	}

	for _, t := range totals {
		resp.Total = resp.Total.Add(t.Total)
		resp.Categories = append(resp.Categories, categoryTotalResponse{
			Category: string(t.Category),
			Total:    t.Total,
			Count:    t.Count,
		})
	}

	return resp
}
