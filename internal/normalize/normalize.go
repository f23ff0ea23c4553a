// Package normalize canonicalizes free-text product descriptions from fiscal
// coupons so that the same physical product, named differently by different
// merchants, lands on the same normalized name.
//
// The pipeline is a pure function of its input and the static lexicons:
// lower-case → capture pharmacy quantity → expand abbreviations → extract
// brand → strip symbols and numerals → drop noise words → dedupe →
// title-case → re-append the pharmacy quantity.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Product is the normalized form of one coupon line description. Computed
// fresh at ingestion time and never mutated; it exists only to drive catalog
// matching.
type Product struct {
	NormalizedName string
	OriginalName   string
	ProductCode    string
	NCMCode        string
	Brand          string
	IsPromotion    bool
}

var (
	// "30 COMP", "C/ 20 COMPRIMIDOS"
	pharmacyCountFirst = regexp.MustCompile(`(\d+)\s*(?:` + pharmacyUnits + `)\b`)
	// "COMP X 30", "CAPS 20"
	pharmacyUnitFirst = regexp.MustCompile(`\b(?:` + pharmacyUnits + `)\s*x?\s*(\d+)`)

	// Keeps letters (accented included) and spaces; everything else becomes a
	// space so glued tokens like "500ML" split cleanly.
	symbolsAndDigits = regexp.MustCompile(`[^a-zà-ÿ ]+`)
)

// Name normalizes a bare description.
func Name(raw string) Product {
	return Describe(raw, "", "")
}

// Describe normalizes a description and carries the coupon's product and NCM
// codes through onto the result.
func Describe(raw, productCode, ncmCode string) Product {
	p := Product{
		OriginalName: raw,
		ProductCode:  strings.TrimSpace(productCode),
		NCMCode:      strings.TrimSpace(ncmCode),
		IsPromotion:  IsPromotion(raw),
	}

	working := strings.ToLower(strings.TrimSpace(raw))
	if working == "" {
		return p
	}

	// Pharmacy quantities are captured before any cleanup so the count
	// survives numeral stripping; the matched expression is removed from the
	// working string and re-appended in canonical form at the end.
	working, pharmacyCount := capturePharmacyCount(working)

	tokens := expandAbbreviations(strings.Fields(working))

	// Remove every lexicon brand so renormalizing an already-normalized name
	// is a no-op; the first one found is the one recorded.
	for {
		brand, rest, found := extractBrand(tokens)
		if !found {
			break
		}

		if p.Brand == "" {
			p.Brand = brand
		}

		tokens = rest
	}

	working = symbolsAndDigits.ReplaceAllString(strings.Join(tokens, " "), " ")

	var kept []string

	for _, word := range strings.Fields(working) {
		if len([]rune(word)) <= 1 {
			continue
		}

		if _, noise := noiseWords[word]; noise {
			continue
		}

		kept = append(kept, word)
	}

	kept = dedupe(kept)

	name := titleCase(strings.Join(kept, " "))

	if pharmacyCount != "" {
		name = strings.TrimSpace(name + " " + pharmacyCount + " Comprimidos")
	}

	p.NormalizedName = name

	return p
}

// IsPromotion reports whether the raw description carries a promotional
// marker. Pure substring containment, independent of normalization.
func IsPromotion(raw string) bool {
	lower := strings.ToLower(raw)

	for _, kw := range promotionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}

// capturePharmacyCount removes a "30 comp" / "caps x 20" expression from the
// working string and returns the captured count. Empty count means no
// pharmacy marker was present.
func capturePharmacyCount(s string) (rest, count string) {
	if m := pharmacyCountFirst.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(pharmacyCountFirst.ReplaceAllString(s, " ")), m[1]
	}

	if m := pharmacyUnitFirst.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(pharmacyUnitFirst.ReplaceAllString(s, " ")), m[1]
	}

	return s, ""
}

// expandAbbreviations replaces whole-word short forms with their expansions.
// Runs before brand extraction so abbreviations hiding next to brand tokens
// are already expanded when the brand window scan happens.
func expandAbbreviations(tokens []string) []string {
	out := make([]string, len(tokens))

	for i, tok := range tokens {
		// Coupon abbreviations often end in a period ("REFRI." etc).
		key := strings.Trim(tok, ".")

		if full, ok := abbreviations[key]; ok {
			out[i] = full
			continue
		}

		out[i] = tok
	}

	return out
}

// dedupe removes repeated words keeping one occurrence each. Order of the
// result is first-occurrence order; callers must not rely on it beyond
// determinism.
func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))

	var out []string

	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}

		seen[w] = struct{}{}

		out = append(out, w)
	}

	return out
}

// titleCase builds a fresh caser per call: cases.Caser carries internal
// state and is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// Lexicons returns the sizes of the static tables, for startup logging.
func Lexicons() map[string]int {
	sizes := map[string]int{
		"brands":        len(brandIndex),
		"abbreviations": len(abbreviations),
		"noise_words":   len(noiseWords),
		"promo_words":   len(promotionKeywords),
	}

	return sizes
}
