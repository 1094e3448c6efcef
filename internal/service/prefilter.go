package service

import (
	"strings"

	"github.com/heritagepool/poolops/internal/domain"
)

const (
	// maxCandidates bounds the slice handed to the ranking oracle, which has
	// bounded input size and per-token cost.
	maxCandidates = 100
	// minFilteredMatches is the size below which the filtered set is returned
	// as-is without truncation logic kicking in.
	minFilteredMatches = 3
	// minTokenLen discards short noise tokens ("a", "of", "2").
	minTokenLen = 3
)

// Narrow reduces the catalog to a bounded, relevance-biased candidate slice.
// A product qualifies if any query token of length >= 3 appears as a
// substring of its searchable text. Precision is the oracle's job; this step
// only keeps the oracle's input small.
//
// If nothing matches at all, the first maxCandidates catalog entries are
// returned unfiltered so the oracle still has material to work with.
func Narrow(query string, products []domain.CatalogProduct) []domain.CatalogProduct {
	tokens := queryTokens(query)

	var filtered []domain.CatalogProduct
	if len(tokens) > 0 {
		for i := range products {
			text := products[i].SearchText()
			for _, token := range tokens {
				if strings.Contains(text, token) {
					filtered = append(filtered, products[i])
					break
				}
			}
		}
	}

	if len(filtered) == 0 {
		if len(products) > maxCandidates {
			return products[:maxCandidates]
		}
		return products
	}

	if len(filtered) >= minFilteredMatches && len(filtered) > maxCandidates {
		return filtered[:maxCandidates]
	}
	return filtered
}

// queryTokens splits the query on whitespace, lowercases the tokens and
// drops those too short to be meaningful.
func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
