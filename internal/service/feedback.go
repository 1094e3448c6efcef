package service

import (
	"context"
	"fmt"
	"log"

	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/pagination"
	"github.com/heritagepool/poolops/internal/telemetry"
)

// InteractionRepositoryInterface defines the repository interface for
// interaction persistence.
type InteractionRepositoryInterface interface {
	Create(ctx context.Context, i *domain.Interaction) error
	GetByID(ctx context.Context, id string) (*domain.Interaction, error)
	ListWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*InteractionPageResult, error)
	AttachSelections(ctx context.Context, sessionID string, selections []domain.SelectedProduct) (string, error)
	CountAll(ctx context.Context) (int, error)
}

// InteractionPageResult is one page of interactions.
type InteractionPageResult struct {
	Items      []*domain.Interaction
	NextCursor string
	HasMore    bool
}

// FeedbackRepositoryInterface defines the repository interface for feedback
// persistence.
type FeedbackRepositoryInterface interface {
	Create(ctx context.Context, f *domain.FeedbackRecord) error
	CountByType(ctx context.Context) (map[domain.FeedbackType]int, error)
}

// LearningStats summarizes the state of the learning loop.
type LearningStats struct {
	TotalInteractions int                         `json:"totalInteractions"`
	FeedbackByType    map[domain.FeedbackType]int `json:"feedbackByType"`
	SelectionRate     float64                     `json:"selectionRate"`
}

// FeedbackService records interactions and technician feedback, and feeds
// finalized selections back into the learning store.
type FeedbackService struct {
	interactions InteractionRepositoryInterface
	feedback     FeedbackRepositoryInterface
	learning     *LearningService
	uuidGen      UUIDGenerator
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(
	interactions InteractionRepositoryInterface,
	feedback FeedbackRepositoryInterface,
	learning *LearningService,
) *FeedbackService {
	return &FeedbackService{
		interactions: interactions,
		feedback:     feedback,
		learning:     learning,
		uuidGen:      &DefaultUUIDGenerator{},
	}
}

// NewFeedbackServiceWithUUIDGen creates a FeedbackService with a custom UUID
// generator for deterministic tests.
func NewFeedbackServiceWithUUIDGen(
	interactions InteractionRepositoryInterface,
	feedback FeedbackRepositoryInterface,
	learning *LearningService,
	uuidGen UUIDGenerator,
) *FeedbackService {
	return &FeedbackService{
		interactions: interactions,
		feedback:     feedback,
		learning:     learning,
		uuidGen:      uuidGen,
	}
}

// LogInteraction persists one search interaction and returns its id so later
// feedback can reference it.
func (s *FeedbackService) LogInteraction(ctx context.Context, i *domain.Interaction) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "FeedbackService.LogInteraction", telemetry.SpanAttributes{
		UserID:    i.UserID,
		SessionID: i.SessionID,
		Operation: "create",
	})
	defer span.End()

	if i.ID == "" {
		i.ID = s.uuidGen.NewString()
	}
	if err := domain.ValidateInteraction(i); err != nil {
		return "", err
	}

	if err := s.interactions.Create(ctx, i); err != nil {
		span.SetError(err)
		return "", fmt.Errorf("create interaction: %w", err)
	}
	return i.ID, nil
}

// LogFeedback persists one feedback record. A "selected" record also updates
// the query mapping for the originating interaction's query; that update is
// best-effort and never fails the call.
func (s *FeedbackService) LogFeedback(ctx context.Context, f *domain.FeedbackRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "FeedbackService.LogFeedback", telemetry.SpanAttributes{
		SKU:       f.ProductSKU,
		Operation: "create",
	})
	defer span.End()

	if f.ID == "" {
		f.ID = s.uuidGen.NewString()
	}
	if err := domain.ValidateFeedbackRecord(f); err != nil {
		return err
	}

	if err := s.feedback.Create(ctx, f); err != nil {
		span.SetError(err)
		return fmt.Errorf("create feedback: %w", err)
	}

	if f.FeedbackType == domain.FeedbackSelected {
		interaction, err := s.interactions.GetByID(ctx, f.InteractionID)
		if err != nil {
			log.Printf("feedback: interaction %s lookup for selection learning failed: %v", f.InteractionID, err)
			telemetry.CaptureError(ctx, err)
			return nil
		}
		s.learning.RecordSelection(ctx, interaction.UserID, interaction.UserQuery, f.ProductSKU)
	}
	return nil
}

// LogEstimateCompletion attaches the finalized selections to the session's
// interaction and records co-occurrence patterns for the full set. Completion
// is the only path that writes ProductPattern rows; in-progress picks are
// never learned from.
func (s *FeedbackService) LogEstimateCompletion(ctx context.Context, sessionID, propertyType string, selections []domain.SelectedProduct) error {
	ctx, span := telemetry.StartSpan(ctx, "FeedbackService.LogEstimateCompletion", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "update",
	})
	defer span.End()

	if sessionID == "" {
		return &domain.DomainError{
			Code:    domain.ErrCodeValidation,
			Message: "sessionId is required",
			Err:     domain.ErrMissingRequiredField,
		}
	}
	if len(selections) == 0 {
		return nil
	}

	userID, err := s.interactions.AttachSelections(ctx, sessionID, selections)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("attach selections: %w", err)
	}

	s.learning.RecordCoOccurrence(ctx, userID, propertyType, selections)
	return nil
}

// ListInteractions returns a page of logged interactions, newest first.
// userID is optional and narrows the listing to one technician.
func (s *FeedbackService) ListInteractions(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*InteractionPageResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "FeedbackService.ListInteractions", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "list",
	})
	defer span.End()

	page, err := s.interactions.ListWithCursor(ctx, userID, cursor, limit)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return page, nil
}

// Stats reports aggregate learning-loop counters.
func (s *FeedbackService) Stats(ctx context.Context) (*LearningStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "FeedbackService.Stats", telemetry.SpanAttributes{
		Operation: "read",
	})
	defer span.End()

	total, err := s.interactions.CountAll(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	byType, err := s.feedback.CountByType(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("count feedback: %w", err)
	}

	stats := &LearningStats{
		TotalInteractions: total,
		FeedbackByType:    byType,
	}
	var feedbackTotal int
	for _, n := range byType {
		feedbackTotal += n
	}
	if feedbackTotal > 0 {
		stats.SelectionRate = float64(byType[domain.FeedbackSelected]) / float64(feedbackTotal)
	}
	return stats, nil
}
