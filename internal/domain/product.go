package domain

import "strings"

// CatalogProduct is one normalized entry from the upstream product catalog.
// The set is owned by the catalog cache and replaced wholesale on refresh;
// nothing else mutates it within a cache generation.
type CatalogProduct struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
	Cost         float64 `json:"cost"`
	Unit         string  `json:"unit"`
	Description  string  `json:"description"`
}

// SearchText returns the lowercased haystack used by the keyword prefilter.
func (p *CatalogProduct) SearchText() string {
	return strings.ToLower(p.Name + " " + p.Category + " " + p.Subcategory + " " + p.Description + " " + p.SKU)
}

// CandidateMatch is a scored match produced by the ranking oracle for one
// search request. Not persisted; Selected is caller-mutable UI state.
type CandidateMatch struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
	Unit         string  `json:"unit"`
	Confidence   int     `json:"confidence"`
	Reason       string  `json:"reason"`
	Selected     bool    `json:"selected"`
	// IsManualEntry marks specialty parts not carried by the catalog; the
	// technician prices these by hand.
	IsManualEntry bool `json:"isManualEntry,omitempty"`
}

// ValidateCandidateMatch validates a CandidateMatch instance
func ValidateCandidateMatch(m *CandidateMatch) error {
	if m == nil {
		return NewDomainError(ErrCodeValidation, "candidate match cannot be nil")
	}
	if m.SKU == "" {
		return NewDomainError(ErrCodeValidation, "candidate match SKU is required")
	}
	if m.Confidence < 0 || m.Confidence > 100 {
		return NewDomainError(ErrCodeValidation, "candidate match confidence must be in [0,100]")
	}
	return nil
}
