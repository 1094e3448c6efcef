package domain

import (
	"fmt"
	"time"
)

// SuggestedProduct is the snapshot of one suggestion shown to the user,
// recorded on the interaction for later correlation with feedback.
type SuggestedProduct struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
}

// SelectedProduct is one finalized line item from a completed estimate.
type SelectedProduct struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Interaction is one entry in the append-only learning log: a search query,
// what was suggested, and (once the estimate completes) what was kept.
type Interaction struct {
	ID                string
	UserID            string // optional; empty = anonymous
	SessionID         string
	UserQuery         string
	SuggestedProducts []SuggestedProduct
	SelectedProducts  []SelectedProduct // attached at estimate completion
	PropertyType      string            // optional
	CreatedAt         time.Time
}

// NewInteraction creates a new Interaction instance
func NewInteraction(id, userID, sessionID, userQuery string, suggested []SuggestedProduct, propertyType string, createdAt time.Time) *Interaction {
	return &Interaction{
		ID:                id,
		UserID:            userID,
		SessionID:         sessionID,
		UserQuery:         userQuery,
		SuggestedProducts: suggested,
		PropertyType:      propertyType,
		CreatedAt:         createdAt,
	}
}

// ValidateInteraction validates an Interaction instance
func ValidateInteraction(i *Interaction) error {
	if i == nil {
		return fmt.Errorf("interaction cannot be nil")
	}
	if i.ID == "" {
		return fmt.Errorf("interaction ID is required")
	}
	if i.UserQuery == "" {
		return fmt.Errorf("interaction UserQuery is required")
	}
	if i.SessionID == "" {
		return fmt.Errorf("interaction SessionID is required")
	}
	return nil
}
