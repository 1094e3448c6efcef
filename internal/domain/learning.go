package domain

import (
	"fmt"
	"time"
)

// QueryMapping is a learned query→product association. SuccessCount tracks
// how often the mapping led to a selection out of TotalCount suggestions.
// UserID empty means the mapping is global.
type QueryMapping struct {
	ID               string
	UserID           string
	QueryTerm        string
	MappedProductSKU string
	SuccessCount     int
	TotalCount       int
	LastUsed         time.Time
}

// SuccessRate returns the fraction of suggestions that were selected.
func (m *QueryMapping) SuccessRate() float64 {
	if m.TotalCount == 0 {
		return 0
	}
	return float64(m.SuccessCount) / float64(m.TotalCount)
}

// ValidateQueryMapping validates a QueryMapping instance
func ValidateQueryMapping(m *QueryMapping) error {
	if m == nil {
		return fmt.Errorf("query mapping cannot be nil")
	}
	if m.QueryTerm == "" {
		return fmt.Errorf("query mapping QueryTerm is required")
	}
	if m.MappedProductSKU == "" {
		return fmt.Errorf("query mapping MappedProductSKU is required")
	}
	if m.SuccessCount > m.TotalCount {
		return fmt.Errorf("query mapping SuccessCount cannot exceed TotalCount")
	}
	return nil
}

// ProductPattern records two products chosen together on finalized estimates.
// Tracked as a directed edge: (A,B) and (B,A) are separate rows.
// AvgQuantityRatio is the related quantity relative to the primary quantity.
type ProductPattern struct {
	ID                string
	UserID            string
	PrimaryProductSKU string
	RelatedProductSKU string
	CoOccurrenceCount int
	PropertyType      string
	AvgQuantityRatio  float64
	LastUpdated       time.Time
}

// ValidateProductPattern validates a ProductPattern instance
func ValidateProductPattern(p *ProductPattern) error {
	if p == nil {
		return fmt.Errorf("product pattern cannot be nil")
	}
	if p.PrimaryProductSKU == "" {
		return fmt.Errorf("product pattern PrimaryProductSKU is required")
	}
	if p.RelatedProductSKU == "" {
		return fmt.Errorf("product pattern RelatedProductSKU is required")
	}
	if p.PrimaryProductSKU == p.RelatedProductSKU {
		return fmt.Errorf("product pattern cannot relate a product to itself")
	}
	if p.CoOccurrenceCount < 1 {
		return fmt.Errorf("product pattern CoOccurrenceCount must be at least 1")
	}
	return nil
}

// RelatedProduct is one co-occurrence lookup result: a SKU and how many
// times it was finalized together with the primary SKU(s).
type RelatedProduct struct {
	SKU   string
	Count int
}
