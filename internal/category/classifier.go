// Package category classifies merchants, invoices and products into a fixed
// taxonomy from noisy Portuguese merchant names and NCM tax codes.
//
// Classification is deterministic rule matching only: the keyword table is
// walked in its declared priority order, then NCM chapter prefixes, then the
// Other fallback. Same inputs always produce the same category.
package category

import "strings"

// Classify infers a category from merchant naming plus, optionally, the NCM
// codes of the purchased items.
//
// Decision order:
//  1. First keyword rule whose any keyword is a case-insensitive substring of
//     "legal name + trade name" wins.
//  2. Otherwise the first item NCM code whose chapter prefix is mapped wins.
//  3. Otherwise Other.
func Classify(legalName, tradeName string, itemNCMs []string) Category {
	haystack := strings.ToLower(legalName + " " + tradeName)

	for _, rule := range merchantRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Category
			}
		}
	}

	for _, ncm := range itemNCMs {
		if c, ok := byNCM(strings.TrimSpace(ncm)); ok {
			return c
		}
	}

	return Other
}
