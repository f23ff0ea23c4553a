// Package match decides whether two normalized products are the same
// physical product. The decision procedure is ordered: exact product-code
// equality, then NCM equality backed by name similarity, then pure name
// similarity against a threshold.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/vhrodrigues/notinha/internal/normalize"
)

// Thresholds are documented judgment calls, tunable against real purchase
// data rather than hard correctness requirements.
const (
	// NameThreshold is the minimum name similarity for a name-only match.
	NameThreshold = 0.75
	// ncmNameThreshold is the weaker name bar when NCM codes already agree.
	ncmNameThreshold = 0.6

	confidenceCode = 1.0
	confidenceNCM  = 0.9
)

// Result is the outcome of comparing two products. Confidence is in [0,1]
// and is meaningful for ranking even when IsMatch is false.
type Result struct {
	IsMatch    bool
	Confidence float64
}

// Candidate is an existing catalog entry offered to FindBestMatch.
type Candidate struct {
	ProductID uuid.UUID
	Product   normalize.Product
}

// Best is the winning candidate of a FindBestMatch scan.
type Best struct {
	ProductID uuid.UUID
	Result    Result
}

// Similarity is Levenshtein-based string similarity in [0,1]. Equal
// non-empty strings score 1.0; if either side is empty the score is 0.0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	if a == b {
		return 1.0
	}

	la := len([]rune(a))

	lb := len([]rune(b))

	longest := la
	if lb > longest {
		longest = lb
	}

	dist := levenshtein.ComputeDistance(a, b)

	return 1.0 - float64(dist)/float64(longest)
}

// Match compares two normalized products. First satisfied rule wins:
//
//  1. both carry a product code and the codes are equal → 1.0
//  2. both carry an NCM code, the codes are equal, and names are ≥ 0.6
//     similar → 0.9
//  3. names are ≥ 0.75 similar → confidence = similarity
//  4. no match; confidence carries the similarity for diagnostics
func Match(a, b normalize.Product) Result {
	if a.ProductCode != "" && b.ProductCode != "" {
		if a.ProductCode == b.ProductCode {
			return Result{IsMatch: true, Confidence: confidenceCode}
		}
	}

	sim := Similarity(normalizedKey(a), normalizedKey(b))

	if a.NCMCode != "" && b.NCMCode != "" && a.NCMCode == b.NCMCode && sim >= ncmNameThreshold {
		return Result{IsMatch: true, Confidence: confidenceNCM}
	}

	if sim >= NameThreshold {
		return Result{IsMatch: true, Confidence: sim}
	}

	return Result{IsMatch: false, Confidence: sim}
}

// FindBestMatch scans every candidate and keeps the highest-confidence
// match, short-circuiting on an exact code match. The scan is
// O(candidates × name-length²); callers bound it by scoping candidates to
// one user's catalog (and by code lookup before falling back to this scan).
func FindBestMatch(candidate normalize.Product, existing []Candidate) (Best, bool) {
	var (
		best  Best
		found bool
	)

	for _, c := range existing {
		r := Match(candidate, c.Product)
		if !r.IsMatch {
			continue
		}

		if !found || r.Confidence > best.Result.Confidence {
			best = Best{ProductID: c.ProductID, Result: r}
			found = true
		}

		if r.Confidence == confidenceCode {
			break
		}
	}

	return best, found
}

// normalizedKey is the string compared for similarity: the normalized name
// folded to lower case so display casing doesn't affect distance.
func normalizedKey(p normalize.Product) string {
	return strings.ToLower(p.NormalizedName)
}
