package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/ai"
	"github.com/vhrodrigues/notinha/internal/category"
)

// totalTolerance is how far the printed header total may drift from the sum
// of item lines before the item sum becomes authoritative. PDF text loses
// layout, so the header regex sometimes grabs a tax subtotal instead.
var totalTolerance = decimal.NewFromFloat(0.10)

var (
	// An item line in DANFE/coupon text: description, quantity, an "x" or a
	// unit token, unit price, line total. Prices use the comma decimal mark.
	pdfItemRe = regexp.MustCompile(`(?i)^\s*(?:\d{1,3}\s+)?(.*\pL{3,}.*?)\s+(\d+(?:[.,]\d+)?)\s*(?:un|und|pc|pct|kg|g|lt?|ml)?\s*[x×]\s*(\d{1,3}(?:\.\d{3})*,\d{2})\s*=?\s*(\d{1,3}(?:\.\d{3})*,\d{2})\s*$`)

	// Fallback form without an explicit quantity: description then one price.
	pdfBareItemRe = regexp.MustCompile(`(?i)^\s*(?:\d{1,3}\s+)?(.*\pL{3,}.*?)\s{2,}(\d{1,3}(?:\.\d{3})*,\d{2})\s*$`)

	pdfTotalRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)valor\s+a\s+pagar\D{0,20}?(\d{1,3}(?:\.\d{3})*,\d{2})`),
		regexp.MustCompile(`(?i)valor\s+total\D{0,20}?(\d{1,3}(?:\.\d{3})*,\d{2})`),
		regexp.MustCompile(`(?i)\btotal\D{0,20}?(\d{1,3}(?:\.\d{3})*,\d{2})`),
	}

	pdfNumberRe = regexp.MustCompile(`(?i)(?:n[úu]mero|n[º°o]\.?)\s*:?\s*(\d{1,12})\b`)
	pdfSeriesRe = regexp.MustCompile(`(?i)s[ée]rie\s*:?\s*(\d{1,5})\b`)
	pdfDateRe   = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}:\d{2}:\d{2}))?`)
)

// PDFExtractor turns uploaded PDF bytes into a ParsedInvoice. Line heuristics
// run first; the oracle is the fallback when they find nothing, and the
// refinement step when they do.
type PDFExtractor struct {
	oracle ai.Oracle
}

func NewPDFExtractor(oracle ai.Oracle) *PDFExtractor {
	return &PDFExtractor{oracle: oracle}
}

// FromPDF extracts a ParsedInvoice from a PDF upload.
func (e *PDFExtractor) FromPDF(ctx context.Context, raw []byte, knownKey string) (*ParsedInvoice, error) {
	text, err := pdfText(raw)
	if err != nil {
		return nil, malformed("unreadable PDF stream", err)
	}

	return e.fromText(ctx, text, knownKey)
}

// fromText runs heuristics and the oracle over already-extracted text.
func (e *PDFExtractor) fromText(ctx context.Context, text, knownKey string) (*ParsedInvoice, error) {
	if strings.TrimSpace(text) == "" {
		return nil, malformed("PDF contains no extractable text", nil)
	}

	rawItems := pdfHeuristicItems(text)
	if len(rawItems) == 0 {
		return oracleInvoice(ctx, e.oracle, text, knownKey)
	}

	items := e.refineItems(ctx, rawItems)

	merchant := pdfMerchant(text)
	number := firstGroup(pdfNumberRe, text)
	series := firstGroup(pdfSeriesRe, text)

	p := &ParsedInvoice{
		AccessKey: resolveKey(knownKey, text, merchant.TaxID, number, series),
		Number:    number,
		Series:    series,
		IssuedAt:  pdfIssueDate(text),
		Merchant:  merchant,
		Items:     items,
		Totals:    reconcileTotals(pdfHeaderTotal(text), items),
		RawSource: text,
		Metadata: Metadata{
			ExtractedAt: time.Now().UTC(),
			Method:      MethodPDF,
		},
	}

	p.Category = category.Classify(merchant.LegalName, merchant.TradeName, p.ItemNCMs())

	return p, nil
}

// oracleInvoice hands the full text to the oracle in a single call and maps
// its structured answer. Shared by the PDF fallback and the portal-page
// last-resort strategy.
func oracleInvoice(ctx context.Context, oracle ai.Oracle, text, knownKey string) (*ParsedInvoice, error) {
	ext, err := oracle.ExtractInvoice(ctx, text, knownKey)
	if err != nil {
		return nil, fmt.Errorf("oracle extraction: %w", err)
	}

	items := make([]Item, 0, len(ext.Items))

	for _, it := range ext.Items {
		qty := ai.Decimal(it.Quantity)
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}

		unit := ai.Decimal(it.UnitPrice)

		total := ai.Decimal(it.TotalPrice)
		if total.IsZero() && !unit.IsZero() {
			total = qty.Mul(unit)
		}

		items = append(items, Item{
			Description: strings.TrimSpace(it.Description),
			ProductCode: strings.TrimSpace(it.ProductCode),
			NCMCode:     strings.TrimSpace(it.NCMCode),
			Quantity:    qty,
			UnitPrice:   unit,
			TotalPrice:  total,
			Discount:    ai.Decimal(it.Discount),
		})
	}

	merchant := MerchantInfo{
		TaxID:     ai.CoerceTaxID(ext.Merchant.TaxID),
		LegalName: strings.TrimSpace(ext.Merchant.LegalName),
		TradeName: strings.TrimSpace(ext.Merchant.TradeName),
		Address:   strings.TrimSpace(ext.Merchant.Address),
		City:      strings.TrimSpace(ext.Merchant.City),
		State:     strings.TrimSpace(ext.Merchant.State),
	}

	key := knownKey
	if key == "" && IsAccessKey(ext.AccessKey) {
		key = ext.AccessKey
	}

	if key == "" {
		key = resolveKey("", text, merchant.TaxID, ext.Number, ext.Series)
	}

	totals := Totals{
		Subtotal: ai.Decimal(ext.Totals.Subtotal),
		Discount: ai.Decimal(ext.Totals.Discount),
		Tax:      ai.Decimal(ext.Totals.Tax),
		Total:    ai.Decimal(ext.Totals.Total),
	}

	if totals.Total.IsZero() {
		totals = sumItems(items)
	}

	p := &ParsedInvoice{
		AccessKey: key,
		Number:    strings.TrimSpace(ext.Number),
		Series:    strings.TrimSpace(ext.Series),
		IssuedAt:  parseOracleDate(ext.IssuedAt),
		Merchant:  merchant,
		Items:     items,
		Totals:    totals,
		RawSource: text,
		Metadata: Metadata{
			ExtractedAt: time.Now().UTC(),
			Method:      MethodAI,
		},
	}

	p.Category = oracleCategory(ext.Category, merchant, p.ItemNCMs())

	return p, nil
}

// refineItems runs the oracle enrichment pass over heuristic lines. The
// heuristic values already stand on their own, so an oracle failure here
// degrades to the unrefined items instead of failing the extraction.
func (e *PDFExtractor) refineItems(ctx context.Context, rawItems []ai.RawItem) []Item {
	enriched, err := e.oracle.EnrichItems(ctx, rawItems)
	if err != nil || len(enriched) != len(rawItems) {
		return heuristicToItems(rawItems)
	}

	items := make([]Item, 0, len(enriched))

	for i, en := range enriched {
		desc := strings.TrimSpace(en.Description)
		if desc == "" {
			desc = rawItems[i].Description
		}

		qty := ai.Decimal(en.Quantity)
		if qty.IsZero() {
			qty = parseBRNumber(rawItems[i].Quantity)
		}

		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}

		unit := ai.Decimal(en.UnitPrice)
		if unit.IsZero() {
			unit = parseBRNumber(rawItems[i].UnitPrice)
		}

		total := ai.Decimal(en.TotalPrice)
		if total.IsZero() {
			total = parseBRNumber(rawItems[i].TotalPrice)
		}

		if total.IsZero() && !unit.IsZero() {
			total = qty.Mul(unit)
		}

		items = append(items, Item{
			Description: desc,
			ProductCode: strings.TrimSpace(en.ProductCode),
			NCMCode:     strings.TrimSpace(en.NCMCode),
			Quantity:    qty,
			UnitPrice:   unit,
			TotalPrice:  total,
			Discount:    ai.Decimal(en.Discount),
		})
	}

	return items
}

func heuristicToItems(rawItems []ai.RawItem) []Item {
	items := make([]Item, 0, len(rawItems))

	for _, r := range rawItems {
		qty := parseBRNumber(r.Quantity)
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}

		unit := parseBRNumber(r.UnitPrice)

		total := parseBRNumber(r.TotalPrice)
		if total.IsZero() && !unit.IsZero() {
			total = qty.Mul(unit)
		}

		items = append(items, Item{
			Description: r.Description,
			Quantity:    qty,
			UnitPrice:   unit,
			TotalPrice:  total,
			Discount:    decimal.Zero,
		})
	}

	return items
}

// pdfText flattens every page into newline-separated rows.
func pdfText(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}

	var b strings.Builder

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteString(" ")
			}

			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// pdfHeuristicItems scans line by line for item-shaped rows. Lines matching
// the total labels are skipped so a "TOTAL 19,40" footer never becomes an
// item.
func pdfHeuristicItems(text string) []ai.RawItem {
	var items []ai.RawItem

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " ")
		if line == "" || looksLikeTotalLine(line) {
			continue
		}

		if m := pdfItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, ai.RawItem{
				Description: strings.Join(strings.Fields(m[1]), " "),
				Quantity:    m[2],
				UnitPrice:   m[3],
				TotalPrice:  m[4],
			})

			continue
		}

		if m := pdfBareItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, ai.RawItem{
				Description: strings.Join(strings.Fields(m[1]), " "),
				Quantity:    "1",
				TotalPrice:  m[2],
			})
		}
	}

	return items
}

func looksLikeTotalLine(line string) bool {
	lower := strings.ToLower(line)

	for _, label := range []string{"total", "subtotal", "desconto", "troco", "valor a pagar", "forma de pagamento"} {
		if strings.Contains(lower, label) {
			return true
		}
	}

	return false
}

// reconcileTotals keeps the printed header total when it agrees with the item
// sum to within the tolerance; otherwise the item sum wins.
func reconcileTotals(headerTotal decimal.Decimal, items []Item) Totals {
	t := sumItems(items)

	if headerTotal.IsZero() || t.Total.IsZero() {
		return t
	}

	diff := headerTotal.Sub(t.Total).Abs()
	if diff.LessThanOrEqual(t.Total.Mul(totalTolerance)) {
		t.Total = headerTotal
		t.Subtotal = headerTotal.Add(t.Discount)
	}

	return t
}

func pdfHeaderTotal(text string) decimal.Decimal {
	for _, re := range pdfTotalRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return parseBRNumber(m[1])
		}
	}

	return decimal.Zero
}

// pdfMerchant pulls CNPJ via the shared regex and takes the first line with
// letters as the legal name, which is where receipt layouts put it.
func pdfMerchant(text string) MerchantInfo {
	var m MerchantInfo

	if cnpj := firstGroup(htmlCNPJRe, text); cnpj != "" {
		m.TaxID = nonDigitRe.ReplaceAllString(cnpj, "")
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if len(line) < 4 || !strings.ContainsFunc(line, isLetter) {
			continue
		}

		m.LegalName = line

		break
	}

	return m
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= 'À' && r <= 'ÿ')
}

func pdfIssueDate(text string) time.Time {
	m := pdfDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}

	return parseBRDate(m[1], m[2])
}

// resolveKey walks the fallback chain: a caller-supplied key, a 44-digit run
// in the text, the deterministic synthetic key, and finally the timestamp
// key that forfeits duplicate detection.
func resolveKey(knownKey, text, taxID, number, series string) string {
	if knownKey != "" {
		return knownKey
	}

	if key, err := KeyFromBody(text); err == nil {
		return key
	}

	if taxID != "" && number != "" {
		return SyntheticKey(taxID, number, series)
	}

	return TimestampKey(time.Now())
}

func parseOracleDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	if m := pdfDateRe.FindStringSubmatch(s); m != nil {
		return parseBRDate(m[1], m[2])
	}

	return time.Time{}
}

// oracleCategory trusts the oracle's label only when it names a known
// category; anything else goes through the regular classifier.
func oracleCategory(label string, merchant MerchantInfo, ncms []string) category.Category {
	c := category.Category(strings.ToLower(strings.TrimSpace(label)))
	if c.Valid() {
		return c
	}

	return category.Classify(merchant.LegalName, merchant.TradeName, ncms)
}
