package domain

import (
	"fmt"
	"time"
)

// FeedbackType classifies how the user acted on a suggested product.
type FeedbackType string

const (
	FeedbackSelected FeedbackType = "selected"
	FeedbackRejected FeedbackType = "rejected"
	FeedbackModified FeedbackType = "modified"
	FeedbackIgnored  FeedbackType = "ignored"
)

// IsValid returns true if the feedback type is one of the known values
func (t FeedbackType) IsValid() bool {
	switch t {
	case FeedbackSelected, FeedbackRejected, FeedbackModified, FeedbackIgnored:
		return true
	}
	return false
}

// FeedbackRecord captures one user action on one suggested product.
// Created exactly once per product per interaction; immutable after creation.
type FeedbackRecord struct {
	ID               string
	InteractionID    string
	ProductSKU       string
	ProductName      string
	FeedbackType     FeedbackType
	QuantitySelected *int
	ConfidenceScore  *float64 // the oracle's original confidence, 0.0-1.0
	CreatedAt        time.Time
}

// NewFeedbackRecord creates a new FeedbackRecord instance
func NewFeedbackRecord(id, interactionID, productSKU, productName string, feedbackType FeedbackType, quantity *int, confidence *float64, createdAt time.Time) *FeedbackRecord {
	return &FeedbackRecord{
		ID:               id,
		InteractionID:    interactionID,
		ProductSKU:       productSKU,
		ProductName:      productName,
		FeedbackType:     feedbackType,
		QuantitySelected: quantity,
		ConfidenceScore:  confidence,
		CreatedAt:        createdAt,
	}
}

// ValidateFeedbackRecord validates a FeedbackRecord instance
func ValidateFeedbackRecord(f *FeedbackRecord) error {
	if f == nil {
		return fmt.Errorf("feedback record cannot be nil")
	}
	if f.ID == "" {
		return fmt.Errorf("feedback record ID is required")
	}
	if f.InteractionID == "" {
		return fmt.Errorf("feedback record InteractionID is required")
	}
	if f.ProductSKU == "" {
		return fmt.Errorf("feedback record ProductSKU is required")
	}
	if !f.FeedbackType.IsValid() {
		return ErrInvalidFeedbackType
	}
	return nil
}
