package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxTaxIDLen bounds merchant tax IDs coming back from the model; a CNPJ is
// 14 digits and anything longer is hallucinated filler.
const maxTaxIDLen = 14

// validateExtraction checks the structural contract of an ExtractInvoice
// response and coerces its loose fields in place. The model's output is
// untrusted: numbers may be absent, negative or non-numeric, and string
// fields may be padded with junk.
func validateExtraction(ext *InvoiceExtraction) error {
	var failures []string

	if ext == nil {
		return &ValidationError{Failures: []string{"empty response"}}
	}

	if strings.TrimSpace(ext.Merchant.LegalName) == "" && strings.TrimSpace(ext.Merchant.TradeName) == "" {
		failures = append(failures, "merchant section has no name")
	}

	if len(ext.Items) == 0 {
		failures = append(failures, "items section is empty")
	}

	for i, it := range ext.Items {
		if strings.TrimSpace(it.Description) == "" {
			failures = append(failures, fmt.Sprintf("item %d has no description", i+1))
		}
	}

	if Decimal(ext.Totals.Total).IsZero() && len(ext.Items) == 0 {
		failures = append(failures, "totals section is empty")
	}

	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}

	ext.Merchant.TaxID = CoerceTaxID(ext.Merchant.TaxID)

	return nil
}

// CoerceTaxID keeps digits only and truncates to the CNPJ length. Exposed so
// consumers of oracle responses can re-apply it to untrusted data.
func CoerceTaxID(s string) string {
	var b strings.Builder

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	id := b.String()
	if len(id) > maxTaxIDLen {
		id = id[:maxTaxIDLen]
	}

	return id
}

// Decimal converts an oracle number to a non-negative decimal, defaulting
// missing or malformed values to zero.
func Decimal(n json.Number) decimal.Decimal {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return decimal.Zero
	}

	// Models occasionally answer with the document's comma decimals.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}

	return d
}
