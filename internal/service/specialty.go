package service

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/heritagepool/poolops/internal/domain"
)

// SpecialtyPart is a known line item that the upstream catalog does not carry
// and that must be added to an estimate as a manually priced entry. Terms are
// the lowercase keywords that map a query onto the part.
type SpecialtyPart struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Price       float64  `json:"price"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
	Terms       []string `json:"terms"`
}

// SpecialtyDictionary matches free-text queries against non-catalog specialty
// parts. The part list is data, not code: deployments override it with a JSON
// file via LoadSpecialtyDictionary.
type SpecialtyDictionary struct {
	parts        []SpecialtyPart
	triggerTerms []string
}

// genericTriggerTerms flag a query as specialty work even when no specific
// part matched, so the caller can tell the technician to price it manually.
var genericTriggerTerms = []string{
	"plumbing",
	"drain line",
	"backwash line",
	"sewer",
	"cast iron",
	"dwv",
}

// NewSpecialtyDictionary returns a dictionary seeded with the built-in
// drain-and-backwash plumbing parts.
func NewSpecialtyDictionary() *SpecialtyDictionary {
	return &SpecialtyDictionary{
		parts:        defaultSpecialtyParts(),
		triggerTerms: genericTriggerTerms,
	}
}

// LoadSpecialtyDictionary reads the part list from a JSON file. An empty path
// falls back to the built-in defaults.
func LoadSpecialtyDictionary(path string) (*SpecialtyDictionary, error) {
	if path == "" {
		return NewSpecialtyDictionary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specialty parts file: %w", err)
	}
	var parts []SpecialtyPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("parse specialty parts file: %w", err)
	}
	return &SpecialtyDictionary{parts: parts, triggerTerms: genericTriggerTerms}, nil
}

// Match scans the query for specialty parts. Parts whose SKU already appears
// in matchedSKUs are skipped. The returned message distinguishes specific
// hits from a generic "this is specialty work" signal; both the slice and the
// message are empty when the query has no specialty character at all.
func (d *SpecialtyDictionary) Match(query string, matchedSKUs map[string]bool) ([]domain.CandidateMatch, string) {
	q := strings.ToLower(query)

	var items []domain.CandidateMatch
	for _, part := range d.parts {
		if matchedSKUs[part.SKU] {
			continue
		}
		for _, term := range part.Terms {
			if strings.Contains(q, term) {
				items = append(items, domain.CandidateMatch{
					SKU:           part.SKU,
					Name:          part.Name,
					Category:      part.Category,
					Subcategory:   part.Subcategory,
					Price:         part.Price,
					Unit:          part.Unit,
					Confidence:    85,
					Reason:        "Known specialty part matched by keyword",
					IsManualEntry: true,
				})
				break
			}
		}
	}

	if len(items) > 0 {
		return items, fmt.Sprintf("Found %d specialty plumbing part(s). These are priced manually and not part of the standard catalog.", len(items))
	}

	for _, term := range d.triggerTerms {
		if strings.Contains(q, term) {
			return nil, "This looks like specialty plumbing work. Add the parts manually with your own pricing."
		}
	}
	return nil, ""
}

func defaultSpecialtyParts() []SpecialtyPart {
	return []SpecialtyPart{
		{SKU: "PLUMB-MISSION-4", Name: `4" Mission Clamp (no-hub coupling)`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 24.99, Unit: "each", Description: "No-hub coupling for cast iron to PVC connection", Terms: []string{"mission clamp", "no-hub", "no hub coupling"}},
		{SKU: "PLUMB-SANT-4", Name: `4" Sanitary Tee (San T)`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 38.50, Unit: "each", Description: "DWV sanitary tee for drain connections", Terms: []string{"sanitary tee", "san t", "san tee"}},
		{SKU: "PLUMB-SANT-PLUG-4", Name: `4" San T with Threaded Service Plug`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 45.00, Unit: "each", Description: "Sanitary tee with access plug", Terms: []string{"san t with plug", "tee with plug"}},
		{SKU: "PLUMB-PLUG-4", Name: `4" Threaded Service Plug`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 12.99, Unit: "each", Description: "Threaded cleanout plug", Terms: []string{"service plug", "threaded plug", "cleanout plug"}},
		{SKU: "PLUMB-90-4", Name: `4" DWV 90° Elbow`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 18.75, Unit: "each", Description: "90 degree elbow for drain piping", Terms: []string{"90 elbow", "90 degree elbow", "dwv 90"}},
		{SKU: "PLUMB-45-4", Name: `4" DWV 45° Elbow`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 16.50, Unit: "each", Description: "45 degree elbow for drain piping", Terms: []string{"45 elbow", "45 degree elbow", "dwv 45"}},
		{SKU: "PLUMB-PTRAP-4", Name: `4" P-Trap`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 42.00, Unit: "each", Description: "P-trap for proper drainage", Terms: []string{"p-trap", "p trap", "ptrap"}},
		{SKU: "PLUMB-CONE-4-5", Name: `4" to 5" Backwash Cone Increaser`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 34.99, Unit: "each", Description: "Backwash cone increaser for filter discharge", Terms: []string{"backwash cone", "cone increaser"}},
		{SKU: "PLUMB-STRUT", Name: "Shallow Strut Channel (per foot)", Category: "Plumbing", Subcategory: "Supports", Price: 8.50, Unit: "foot", Description: "Strut channel for pipe support", Terms: []string{"strut channel", "strut"}},
		{SKU: "PLUMB-STRUT-CLAMP-4", Name: `4" Strut Clamp`, Category: "Plumbing", Subcategory: "Supports", Price: 12.00, Unit: "each", Description: "Strut clamp for 4\" pipe", Terms: []string{"strut clamp"}},
		{SKU: "PLUMB-STRUT-L", Name: "Strut L-Bracket", Category: "Plumbing", Subcategory: "Supports", Price: 8.50, Unit: "each", Description: "L-bracket for strut mounting", Terms: []string{"l-bracket", "l bracket"}},
		{SKU: "PLUMB-ANCHOR-SS", Name: `Stainless Steel Red Head Anchor 3/8"x3"`, Category: "Plumbing", Subcategory: "Supports", Price: 4.25, Unit: "each", Description: "SS concrete anchor", Terms: []string{"red head anchor", "concrete anchor"}},
		{SKU: "PLUMB-CLEANOUT-4", Name: `4" Cleanout w/ Plug`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 28.50, Unit: "each", Description: "Cleanout fitting with plug", Terms: []string{"cleanout"}},
		{SKU: "PLUMB-AIRGAP-1", Name: `1" Air Gap/Siphon Break Fitting`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 45.00, Unit: "each", Description: "Air gap fitting to prevent siphon", Terms: []string{"air gap", "siphon break"}},
		{SKU: "PLUMB-FERNCO-4", Name: `Fernco Flexible Coupling 4"`, Category: "Plumbing", Subcategory: "Drain & Backwash", Price: 18.99, Unit: "each", Description: "Flexible rubber coupling", Terms: []string{"fernco", "flexible coupling"}},
	}
}
