package extract

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
)

// The consumer portal does not expose raw XML, only a rendered page. Its
// markup has been stable for years: item rows carry an "Item<N>" id prefix
// and fixed class names for description, quantity, unit price and line
// total; document totals sit behind "Valor a pagar" / "Descontos" labels.
// Everything here is regex over that convention; the pages are too
// malformed for a strict parser to be worth it.
var (
	htmlItemRowRe = regexp.MustCompile(`(?is)<tr[^>]*\bid="Item[^"]*"[^>]*>(.*?)</tr>`)

	htmlDescRe = regexp.MustCompile(`(?is)<span[^>]*\bclass="txtTit[^"]*"[^>]*>(.*?)</span>`)
	htmlCodeRe = regexp.MustCompile(`(?is)\(\s*C[óo]d(?:igo)?\s*:?\s*(\d+)\s*\)`)
	htmlQtyRe  = regexp.MustCompile(`(?is)<span[^>]*\bclass="Rqtd"[^>]*>.*?:\s*</strong>\s*([\d.,]+)`)
	htmlUnitRe = regexp.MustCompile(`(?is)<span[^>]*\bclass="RvlUnit"[^>]*>.*?:\s*</strong>\s*(?:&nbsp;|\s)*([\d.,]+)`)
	htmlLineRe = regexp.MustCompile(`(?is)<span[^>]*\bclass="valor"[^>]*>\s*([\d.,]+)`)

	htmlMerchantRe = regexp.MustCompile(`(?is)<[^>]*\bclass="txtTopo"[^>]*>(.*?)</`)
	htmlCNPJRe     = regexp.MustCompile(`(?i)CNPJ\s*:?\s*([\d][\d./-]{12,17}[\d])`)
	htmlAddressRe  = regexp.MustCompile(`(?is)CNPJ[^<]*</[^>]+>\s*<[^>]*\bclass="text"[^>]*>(.*?)</`)

	htmlNumberRe = regexp.MustCompile(`(?i)N[úu]mero\s*:?\s*<?[^>]*>?\s*(\d+)`)
	htmlSeriesRe = regexp.MustCompile(`(?i)S[ée]rie\s*:?\s*<?[^>]*>?\s*(\d+)`)
	htmlIssueRe  = regexp.MustCompile(`(?i)Emiss[ãa]o\s*:?\s*<?[^>]*>?\s*(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}:\d{2}:\d{2}))?`)

	htmlPayRe      = regexp.MustCompile(`(?is)Valor\s+a\s+pagar[^<]*</label>\s*<span[^>]*>\s*([\d.,]+)`)
	htmlDiscountRe = regexp.MustCompile(`(?is)Descontos?[^<]*</label>\s*<span[^>]*>\s*([\d.,]+)`)

	htmlTagRe = regexp.MustCompile(`<[^>]*>`)
)

// FromHTML extracts a ParsedInvoice from a scraped portal page.
func FromHTML(raw string, knownKey string) (*ParsedInvoice, error) {
	rows := htmlItemRowRe.FindAllStringSubmatch(raw, -1)
	if len(rows) == 0 {
		return nil, malformed("no item rows found in portal page", nil)
	}

	items := make([]Item, 0, len(rows))

	for _, row := range rows {
		it, ok := htmlItem(row[1])
		if !ok {
			continue
		}

		items = append(items, it)
	}

	if len(items) == 0 {
		return nil, malformed("item rows present but none parseable", nil)
	}

	totals := htmlTotals(raw, items)

	key := knownKey
	if key == "" {
		// Best effort: portal pages usually print the key; a missing one is
		// not fatal here since the caller may already have it from the URL.
		if found, err := KeyFromBody(raw); err == nil {
			key = found
		}
	}

	merchant := htmlMerchant(raw)

	issuedAt := time.Time{}
	if m := htmlIssueRe.FindStringSubmatch(raw); m != nil {
		issuedAt = parseBRDate(m[1], m[2])
	}

	p := &ParsedInvoice{
		AccessKey: key,
		Number:    firstGroup(htmlNumberRe, raw),
		Series:    firstGroup(htmlSeriesRe, raw),
		IssuedAt:  issuedAt,
		Merchant:  merchant,
		Items:     items,
		Totals:    totals,
		RawSource: raw,
		Metadata: Metadata{
			ExtractedAt: time.Now().UTC(),
			Method:      MethodHTML,
		},
	}

	p.Category = category.Classify(merchant.LegalName, merchant.TradeName, p.ItemNCMs())

	return p, nil
}

// htmlItem reads one item row. Description is required; quantity defaults
// to 1 and prices to zero when their cells are missing or unparseable, which
// happens on promotional filler rows.
func htmlItem(row string) (Item, bool) {
	desc := cleanHTMLText(firstGroup(htmlDescRe, row))
	if desc == "" {
		return Item{}, false
	}

	qty := parseBRNumber(firstGroup(htmlQtyRe, row))
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}

	unit := parseBRNumber(firstGroup(htmlUnitRe, row))
	total := parseBRNumber(firstGroup(htmlLineRe, row))

	if total.IsZero() && !unit.IsZero() {
		total = qty.Mul(unit)
	}

	return Item{
		Description: desc,
		ProductCode: firstGroup(htmlCodeRe, row),
		Quantity:    qty,
		UnitPrice:   unit,
		TotalPrice:  total,
		Discount:    decimal.Zero,
	}, true
}

// htmlTotals reads "Valor a pagar" and "Descontos"; subtotal is their sum.
// When the labels are absent the item sum is used instead.
func htmlTotals(raw string, items []Item) Totals {
	pay := parseBRNumber(firstGroup(htmlPayRe, raw))
	discount := parseBRNumber(firstGroup(htmlDiscountRe, raw))

	if pay.IsZero() {
		return sumItems(items)
	}

	return Totals{
		Subtotal: pay.Add(discount),
		Discount: discount,
		Total:    pay,
	}
}

func htmlMerchant(raw string) MerchantInfo {
	m := MerchantInfo{
		LegalName: cleanHTMLText(firstGroup(htmlMerchantRe, raw)),
	}

	if cnpj := firstGroup(htmlCNPJRe, raw); cnpj != "" {
		m.TaxID = nonDigitRe.ReplaceAllString(cnpj, "")
	}

	if addr := cleanHTMLText(firstGroup(htmlAddressRe, raw)); addr != "" {
		m.Address = addr

		// The portal renders "street, number, district, CITY, UF" in one
		// run of text; the last two comma fields are city and state.
		parts := strings.Split(addr, ",")
		if len(parts) >= 2 {
			m.State = strings.TrimSpace(parts[len(parts)-1])
			m.City = strings.TrimSpace(parts[len(parts)-2])
		}
	}

	return m
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}

	return strings.TrimSpace(m[1])
}

// cleanHTMLText strips tags, decodes entities and collapses whitespace.
func cleanHTMLText(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	return strings.Join(strings.Fields(s), " ")
}

// parseBRNumber parses Brazilian-formatted numbers ("1.234,56"): dots are
// thousand separators and the comma is the decimal mark.
func parseBRNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}

func parseBRDate(date, clock string) time.Time {
	if clock != "" {
		if t, err := time.Parse("02/01/2006 15:04:05", date+" "+clock); err == nil {
			return t
		}
	}

	t, err := time.Parse("02/01/2006", date)
	if err != nil {
		return time.Time{}
	}

	return t
}
