package poolbrain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heritagepool/poolops/internal/domain"
)

// RawRecord is one upstream product record before normalization. The API has
// shipped several synonymous field-name variants over time (differently cased
// spellings, renamed keys), so each logical field is resolved from a fixed
// priority list rather than a single key.
type RawRecord map[string]any

// Per-field key priority. First non-empty wins.
var (
	skuKeys          = []string{"Part#", "PartNumber", "partNumber", "part_number"}
	nameKeys         = []string{"Name", "name", "NAME"}
	descriptionKeys  = []string{"Description", "description", "DESCRIPTION"}
	categoryKeys     = []string{"Category", "category", "CATEGORY"}
	subcategoryKeys  = []string{"Subcategory", "SubCategory", "subcategory"}
	manufacturerKeys = []string{"Manufacturer", "manufacturer", "Brand"}
	priceKeys        = []string{"Price", "price", "PRICE"}
	costKeys         = []string{"Cost", "cost", "COST"}
	unitKeys         = []string{"Unit", "unit", "UnitOfSale"}
	recordIDKeys     = []string{"RecordID", "recordId", "record_id"}
	statusKeys       = []string{"Status", "status"}
)

// IsActive reports whether the record is active upstream. Missing status
// counts as active.
func (r RawRecord) IsActive() bool {
	for _, key := range statusKeys {
		if v, ok := r[key]; ok {
			return pickNumberValue(v) != 0
		}
	}
	return true
}

// Normalize resolves a raw upstream record into a CatalogProduct. Numeric
// fields default to 0 and string fields to "" when entirely absent; sku falls
// back to a synthetic PB-<RecordID> identifier.
func Normalize(rec RawRecord) domain.CatalogProduct {
	sku := pickString(rec, skuKeys)
	if sku == "" {
		sku = fmt.Sprintf("PB-%d", int64(pickNumber(rec, recordIDKeys)))
	}

	name := pickString(rec, nameKeys)
	if name == "" {
		name = "Unknown Product"
	}

	category := pickString(rec, categoryKeys)
	if category == "" {
		category = "Uncategorized"
	}

	unit := pickString(rec, unitKeys)
	if unit == "" {
		unit = "EA"
	}

	return domain.CatalogProduct{
		SKU:          sku,
		Name:         name,
		Category:     category,
		Subcategory:  pickString(rec, subcategoryKeys),
		Manufacturer: pickString(rec, manufacturerKeys),
		Price:        pickNumber(rec, priceKeys),
		Cost:         pickNumber(rec, costKeys),
		Unit:         unit,
		Description:  pickString(rec, descriptionKeys),
	}
}

// pickString returns the first non-empty string value among the given keys.
func pickString(rec RawRecord, keys []string) string {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// pickNumber returns the first present numeric value among the given keys.
// String-encoded numbers are parsed; anything else counts as absent.
func pickNumber(rec RawRecord, keys []string) float64 {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		if n := pickNumberValue(v); n != 0 {
			return n
		}
		// a literal zero still resolves the field
		switch v.(type) {
		case float64, int, int64:
			return 0
		}
	}
	return 0
}

func pickNumberValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}
