package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heritagepool/poolops/internal/domain"
)

type mockQueryMappingRepo struct {
	mock.Mock
}

func (m *mockQueryMappingRepo) FindByQuery(ctx context.Context, userID, query string, limit int) ([]*domain.QueryMapping, error) {
	args := m.Called(ctx, userID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QueryMapping), args.Error(1)
}

func (m *mockQueryMappingRepo) RecordUse(ctx context.Context, userID, queryTerm, productSKU string) error {
	args := m.Called(ctx, userID, queryTerm, productSKU)
	return args.Error(0)
}

type mockProductPatternRepo struct {
	mock.Mock
}

func (m *mockProductPatternRepo) FindRelated(ctx context.Context, userID string, skus []string, propertyType string, limit int) ([]*domain.RelatedProduct, error) {
	args := m.Called(ctx, userID, skus, propertyType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RelatedProduct), args.Error(1)
}

func (m *mockProductPatternRepo) IncrementPattern(ctx context.Context, p *domain.ProductPattern) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func TestGetLearnedMappingsNormalizesQuery(t *testing.T) {
	mappings := new(mockQueryMappingRepo)
	svc := NewLearningService(mappings, new(mockProductPatternRepo))

	want := []*domain.QueryMapping{{QueryTerm: "pump seal", MappedProductSKU: "P1", SuccessCount: 4, TotalCount: 5}}
	mappings.On("FindByQuery", mock.Anything, "tech-1", "pump seal", maxLearnedHints).Return(want, nil)

	got := svc.GetLearnedMappings(context.Background(), "tech-1", "  Pump Seal  ")

	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].MappedProductSKU)
	mappings.AssertExpectations(t)
}

func TestGetLearnedMappingsEmptyQuerySkipsLookup(t *testing.T) {
	mappings := new(mockQueryMappingRepo)
	svc := NewLearningService(mappings, new(mockProductPatternRepo))

	got := svc.GetLearnedMappings(context.Background(), "tech-1", "   ")

	assert.Nil(t, got)
	mappings.AssertNotCalled(t, "FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetLearnedMappingsDegradesOnError(t *testing.T) {
	mappings := new(mockQueryMappingRepo)
	svc := NewLearningService(mappings, new(mockProductPatternRepo))

	mappings.On("FindByQuery", mock.Anything, "tech-1", "pump", maxLearnedHints).Return(nil, errors.New("db down"))

	got := svc.GetLearnedMappings(context.Background(), "tech-1", "pump")

	assert.Empty(t, got)
}

func TestRecordSelection(t *testing.T) {
	mappings := new(mockQueryMappingRepo)
	svc := NewLearningService(mappings, new(mockProductPatternRepo))

	mappings.On("RecordUse", mock.Anything, "tech-1", "pump seal", "P1").Return(nil)

	svc.RecordSelection(context.Background(), "tech-1", "Pump Seal", "P1")

	mappings.AssertExpectations(t)
}

func TestRecordSelectionSwallowsError(t *testing.T) {
	mappings := new(mockQueryMappingRepo)
	svc := NewLearningService(mappings, new(mockProductPatternRepo))

	mappings.On("RecordUse", mock.Anything, "tech-1", "pump", "P1").Return(errors.New("db down"))

	// Must not panic or propagate.
	svc.RecordSelection(context.Background(), "tech-1", "pump", "P1")
}

func TestRecordSelectionSkipsEmptyInput(t *testing.T) {
	mappings := new(mockQueryMappingRepo)
	svc := NewLearningService(mappings, new(mockProductPatternRepo))

	svc.RecordSelection(context.Background(), "tech-1", "", "P1")
	svc.RecordSelection(context.Background(), "tech-1", "pump", "")

	mappings.AssertNotCalled(t, "RecordUse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRelatedProducts(t *testing.T) {
	patterns := new(mockProductPatternRepo)
	svc := NewLearningService(new(mockQueryMappingRepo), patterns)

	want := []*domain.RelatedProduct{{SKU: "P2", Count: 7}}
	patterns.On("FindRelated", mock.Anything, "tech-1", []string{"P1"}, "commercial", maxRelatedProducts).Return(want, nil)

	got := svc.GetRelatedProducts(context.Background(), "tech-1", []string{"P1"}, "commercial")

	require.Len(t, got, 1)
	assert.Equal(t, "P2", got[0].SKU)
}

func TestGetRelatedProductsEmptySKUsSkipsLookup(t *testing.T) {
	patterns := new(mockProductPatternRepo)
	svc := NewLearningService(new(mockQueryMappingRepo), patterns)

	got := svc.GetRelatedProducts(context.Background(), "tech-1", nil, "")

	assert.Nil(t, got)
	patterns.AssertNotCalled(t, "FindRelated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordCoOccurrenceWritesBothDirections(t *testing.T) {
	patterns := new(mockProductPatternRepo)
	svc := NewLearningService(new(mockQueryMappingRepo), patterns)

	var got []*domain.ProductPattern
	patterns.On("IncrementPattern", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = append(got, args.Get(1).(*domain.ProductPattern))
	}).Return(nil)

	svc.RecordCoOccurrence(context.Background(), "tech-1", "residential", []domain.SelectedProduct{
		{SKU: "P1", Quantity: 1},
		{SKU: "P2", Quantity: 2},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "P1", got[0].PrimaryProductSKU)
	assert.Equal(t, "P2", got[0].RelatedProductSKU)
	assert.InDelta(t, 2.0, got[0].AvgQuantityRatio, 1e-9)
	assert.Equal(t, "P2", got[1].PrimaryProductSKU)
	assert.Equal(t, "P1", got[1].RelatedProductSKU)
	assert.InDelta(t, 0.5, got[1].AvgQuantityRatio, 1e-9)
}

func TestRecordCoOccurrenceAllPairs(t *testing.T) {
	patterns := new(mockProductPatternRepo)
	svc := NewLearningService(new(mockQueryMappingRepo), patterns)

	patterns.On("IncrementPattern", mock.Anything, mock.Anything).Return(nil)

	svc.RecordCoOccurrence(context.Background(), "", "", []domain.SelectedProduct{
		{SKU: "A", Quantity: 1},
		{SKU: "B", Quantity: 1},
		{SKU: "C", Quantity: 1},
	})

	// 3 unordered pairs, two directed writes each.
	patterns.AssertNumberOfCalls(t, "IncrementPattern", 6)
}

func TestRecordCoOccurrenceCapsSelectionSize(t *testing.T) {
	patterns := new(mockProductPatternRepo)
	svc := NewLearningService(new(mockQueryMappingRepo), patterns)

	patterns.On("IncrementPattern", mock.Anything, mock.Anything).Return(nil)

	selections := make([]domain.SelectedProduct, maxCoOccurrenceItems+10)
	for i := range selections {
		selections[i] = domain.SelectedProduct{SKU: fmt.Sprintf("SKU-%d", i), Quantity: 1}
	}

	svc.RecordCoOccurrence(context.Background(), "", "", selections)

	wantCalls := maxCoOccurrenceItems * (maxCoOccurrenceItems - 1)
	patterns.AssertNumberOfCalls(t, "IncrementPattern", wantCalls)
}

func TestRecordCoOccurrenceSkipsDuplicateAndEmptySKUs(t *testing.T) {
	patterns := new(mockProductPatternRepo)
	svc := NewLearningService(new(mockQueryMappingRepo), patterns)

	svc.RecordCoOccurrence(context.Background(), "", "", []domain.SelectedProduct{
		{SKU: "A", Quantity: 1},
		{SKU: "A", Quantity: 2},
		{SKU: "", Quantity: 1},
	})

	patterns.AssertNotCalled(t, "IncrementPattern", mock.Anything, mock.Anything)
}
