package extract

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vhrodrigues/notinha/internal/category"
)

// xmlEnvelope absorbs both document shapes the tax authority emits: the
// processed wrapper (<nfeProc><NFe><infNFe>...) and the bare <NFe><infNFe>.
type xmlEnvelope struct {
	Wrapped *xmlInfNFe `xml:"NFe>infNFe"`
	Bare    *xmlInfNFe `xml:"infNFe"`
	// chNFe from the authorization protocol, an alternative key source.
	ProtocolKey string `xml:"protNFe>infProt>chNFe"`
}

type xmlInfNFe struct {
	ID     string      `xml:"Id,attr"`
	Ide    xmlIde      `xml:"ide"`
	Issuer xmlIssuer   `xml:"emit"`
	Detail []xmlDetail `xml:"det"`
	Totals xmlICMSTot  `xml:"total>ICMSTot"`
}

type xmlIde struct {
	Number    string `xml:"nNF"`
	Series    string `xml:"serie"`
	IssuedAt  string `xml:"dhEmi"`
	IssuedOld string `xml:"dEmi"` // layout 2.0 documents carry date only
}

type xmlIssuer struct {
	CNPJ      string `xml:"CNPJ"`
	LegalName string `xml:"xNome"`
	TradeName string `xml:"xFant"`
	Address   struct {
		Street string `xml:"xLgr"`
		Number string `xml:"nro"`
		City   string `xml:"xMun"`
		State  string `xml:"UF"`
	} `xml:"enderEmit"`
}

// xmlDetail is one <det> line. encoding/xml accumulates repeated elements
// into the slice, so single-item and multi-item documents parse the same way.
type xmlDetail struct {
	Product struct {
		Code        string `xml:"cProd"`
		EAN         string `xml:"cEAN"`
		Description string `xml:"xProd"`
		NCM         string `xml:"NCM"`
		Quantity    string `xml:"qCom"`
		UnitPrice   string `xml:"vUnCom"`
		Total       string `xml:"vProd"`
		Discount    string `xml:"vDesc"`
	} `xml:"prod"`
}

type xmlICMSTot struct {
	Subtotal string `xml:"vProd"`
	Discount string `xml:"vDesc"`
	Tax      string `xml:"vTotTrib"`
	Total    string `xml:"vNF"`
}

// FromXML parses a tax-authority XML document into a ParsedInvoice. Some
// portals hand back an HTML page from the "XML" endpoint; that case is
// sniffed and delegated to the HTML extractor.
func FromXML(raw string, knownKey string) (*ParsedInvoice, error) {
	if looksLikeHTML(raw) {
		return FromHTML(raw, knownKey)
	}

	var env xmlEnvelope
	if err := xml.Unmarshal([]byte(raw), &env); err != nil {
		return nil, malformed("unparseable XML document", err)
	}

	inf := env.Wrapped
	if inf == nil {
		inf = env.Bare
	}

	if inf == nil {
		return nil, malformed("XML document has no infNFe section", nil)
	}

	if len(inf.Detail) == 0 {
		return nil, malformed("XML document has no line items", nil)
	}

	items := make([]Item, 0, len(inf.Detail))

	for _, det := range inf.Detail {
		discount := parseXMLDecimal(det.Product.Discount)
		gross := parseXMLDecimal(det.Product.Total)

		items = append(items, Item{
			Description: strings.TrimSpace(det.Product.Description),
			ProductCode: cleanEAN(det.Product.EAN),
			NCMCode:     strings.TrimSpace(det.Product.NCM),
			Quantity:    parseXMLDecimal(det.Product.Quantity),
			UnitPrice:   parseXMLDecimal(det.Product.UnitPrice),
			TotalPrice:  gross.Sub(discount),
			Discount:    discount,
		})
	}

	totals := Totals{
		Subtotal: parseXMLDecimal(inf.Totals.Subtotal),
		Discount: parseXMLDecimal(inf.Totals.Discount),
		Tax:      parseXMLDecimal(inf.Totals.Tax),
		Total:    parseXMLDecimal(inf.Totals.Total),
	}

	// Corrupted or absent totals section: the item list is authoritative.
	if totals.Total.IsZero() && len(items) > 0 {
		recomputed := sumItems(items)
		recomputed.Tax = totals.Tax
		totals = recomputed
	}

	key := knownKey
	if key == "" {
		key = keyFromXMLIdentifiers(inf.ID, env.ProtocolKey)
	}

	merchant := MerchantInfo{
		TaxID:     strings.TrimSpace(inf.Issuer.CNPJ),
		LegalName: strings.TrimSpace(inf.Issuer.LegalName),
		TradeName: strings.TrimSpace(inf.Issuer.TradeName),
		Address:   strings.TrimSpace(inf.Issuer.Address.Street + " " + inf.Issuer.Address.Number),
		City:      strings.TrimSpace(inf.Issuer.Address.City),
		State:     strings.TrimSpace(inf.Issuer.Address.State),
	}

	p := &ParsedInvoice{
		AccessKey: key,
		Number:    strings.TrimSpace(inf.Ide.Number),
		Series:    strings.TrimSpace(inf.Ide.Series),
		IssuedAt:  parseXMLDate(inf.Ide.IssuedAt, inf.Ide.IssuedOld),
		Merchant:  merchant,
		Items:     items,
		Totals:    totals,
		RawSource: raw,
		Metadata: Metadata{
			ExtractedAt: time.Now().UTC(),
			Method:      MethodXML,
		},
	}

	p.Category = category.Classify(merchant.LegalName, merchant.TradeName, p.ItemNCMs())

	return p, nil
}

func looksLikeHTML(raw string) bool {
	head := strings.ToLower(raw)
	if len(head) > 512 {
		head = head[:512]
	}

	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}

// keyFromXMLIdentifiers extracts the access key from the infNFe Id attribute
// ("NFe" + 44 digits) or the authorization protocol's chNFe.
func keyFromXMLIdentifiers(id, protocolKey string) string {
	if key := digitRunRe.FindString(id); key != "" {
		return key
	}

	if IsAccessKey(strings.TrimSpace(protocolKey)) {
		return strings.TrimSpace(protocolKey)
	}

	return ""
}

// cleanEAN drops the placeholder values ("SEM GTIN", zeros) merchants put in
// the EAN field when the product has no barcode.
func cleanEAN(ean string) string {
	ean = strings.TrimSpace(ean)
	if ean == "" || strings.EqualFold(ean, "SEM GTIN") {
		return ""
	}

	if strings.Trim(ean, "0") == "" {
		return ""
	}

	return ean
}

// parseXMLDecimal reads a dot-separated decimal, defaulting to zero on any
// malformed value; absent optional fields come through as empty strings.
func parseXMLDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}

func parseXMLDate(dhEmi, dEmi string) time.Time {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(dhEmi)); err == nil {
		return t
	}

	if t, err := time.Parse("2006-01-02", strings.TrimSpace(dEmi)); err == nil {
		return t
	}

	return time.Time{}
}
