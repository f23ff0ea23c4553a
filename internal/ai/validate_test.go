package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExtraction(t *testing.T) {
	valid := func() *InvoiceExtraction {
		return &InvoiceExtraction{
			Merchant: MerchantExtraction{
				TaxID:     "12.345.678/0001-95",
				LegalName: "SUPERMERCADO EXEMPLO LTDA",
			},
			Items: []ItemExtraction{
				{Description: "ARROZ BRANCO 5KG", Quantity: "1", UnitPrice: "25.90", TotalPrice: "25.90"},
			},
			Totals: TotalsExtraction{Total: "25.90"},
		}
	}

	t.Run("CoercesTaxID", func(t *testing.T) {
		ext := valid()

		require.NoError(t, validateExtraction(ext))
		assert.Equal(t, "12345678000195", ext.Merchant.TaxID)
	})

	t.Run("NilResponse", func(t *testing.T) {
		err := validateExtraction(nil)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("MissingMerchantName", func(t *testing.T) {
		ext := valid()
		ext.Merchant.LegalName = ""
		ext.Merchant.TradeName = "  "

		var verr *ValidationError
		require.ErrorAs(t, validateExtraction(ext), &verr)
		assert.Contains(t, verr.Failures, "merchant section has no name")
	})

	t.Run("NoItems", func(t *testing.T) {
		ext := valid()
		ext.Items = nil

		var verr *ValidationError
		require.ErrorAs(t, validateExtraction(ext), &verr)
	})

	t.Run("ItemWithoutDescription", func(t *testing.T) {
		ext := valid()
		ext.Items = append(ext.Items, ItemExtraction{Description: "  "})

		var verr *ValidationError
		require.ErrorAs(t, validateExtraction(ext), &verr)
		assert.Contains(t, verr.Failures, "item 2 has no description")
	})
}

func TestCoerceTaxID(t *testing.T) {
	assert.Equal(t, "12345678000195", CoerceTaxID("12.345.678/0001-95"))
	assert.Equal(t, "12345678000195", CoerceTaxID("CNPJ: 12345678000195 extra"))
	assert.Equal(t, "", CoerceTaxID("no digits"))
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   json.Number
		want string
	}{
		{"25.90", "25.9"},
		{"2.349,90", "2349.9"},
		{"1.234,56", "1234.56"},
		{"", "0"},
		{"-3.50", "0"},
		{"abc", "0"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Decimal(tc.in).String(), "input %q", tc.in)
	}
}
