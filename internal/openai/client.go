// Package openai adapts the OpenAI API to the ranking-oracle, transcription,
// and quote-description capabilities the matching pipeline needs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/heritagepool/poolops/internal/domain"
)

const (
	// DefaultChatModel is the model used for product ranking and descriptions
	DefaultChatModel = openai.GPT4oMini
	// DefaultTranscribeModel is the speech-to-text model
	DefaultTranscribeModel = "gpt-4o-mini-transcribe"
	// DefaultRankTimeout is the hard wall-clock bound on one ranking call
	DefaultRankTimeout = 60 * time.Second
	// MaxMatches caps the number of matches accepted from the oracle
	MaxMatches = 5
)

// ErrNoAPIKey is returned when the OpenAI API key is not set
var ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// rankSystemPrompt instructs the model to act as the ranking oracle. The
// response shape is pinned to {"matches": [{sku, confidence, reason}]}.
const rankSystemPrompt = `You are a commercial pool equipment expert assistant. Your job is to match technician descriptions of needed parts or equipment to products in our catalog.

Given a description of what the technician needs, find the most relevant products from the candidate list. Consider:
- The type of equipment mentioned (pumps, filters, heaters, chemicals, etc.)
- Brand preferences if mentioned
- Specifications like horsepower, size, or model numbers
- Common pool industry terminology

If a list of previously-successful SKUs is provided, prioritize those products when they fit the description.

Return a JSON object with matched products, confidence scores (0-100) and brief reasons why each product matches.

IMPORTANT: Only return products that genuinely match the description. If nothing matches well, return an empty matches array.
Return at most 5 products, ordered by relevance.

Response format:
{
  "matches": [
    {
      "sku": "product SKU",
      "confidence": 85,
      "reason": "Brief explanation of why this matches"
    }
  ]
}`

const describeSystemPrompt = `You are a professional commercial pool service technician. Write clear, professional quote descriptions for repair estimates. Keep descriptions concise (2-3 sentences) and focus on the work being performed.`

// ChatAPI is the chat-completion surface used by the client.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AudioAPI is the transcription surface used by the client.
type AudioAPI interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Client wraps the OpenAI API behind the capabilities the services consume.
type Client struct {
	chat            ChatAPI
	audio           AudioAPI
	model           string
	transcribeModel string
	rankTimeout     time.Duration
}

// Config holds explicit client configuration.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
	RankTimeout     time.Duration
}

// NewClient creates a client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	api := openai.NewClientWithConfig(apiCfg)

	c := &Client{
		chat:            api,
		audio:           api,
		model:           cfg.Model,
		transcribeModel: cfg.TranscribeModel,
		rankTimeout:     cfg.RankTimeout,
	}
	if c.model == "" {
		c.model = DefaultChatModel
	}
	if c.transcribeModel == "" {
		c.transcribeModel = DefaultTranscribeModel
	}
	if c.rankTimeout <= 0 {
		c.rankTimeout = DefaultRankTimeout
	}
	return c
}

// NewClientFromEnv creates a client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Disabled stands in for the client when no API key is configured. Every
// call reports the matching service as offline so callers get a 503 with a
// stable error shape instead of an auth failure from the upstream API.
type Disabled struct{}

func (Disabled) RankProducts(context.Context, string, []domain.CatalogProduct, []string) ([]domain.CandidateMatch, error) {
	return nil, errMatchingDisabled()
}

func (Disabled) Transcribe(context.Context, []byte) (string, error) {
	return "", errMatchingDisabled()
}

func (Disabled) DescribeQuote(context.Context, string) (string, error) {
	return "", errMatchingDisabled()
}

func errMatchingDisabled() error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeOffline,
		"product matching is not configured on this server", ErrNoAPIKey)
}

// rankCandidate is the candidate view sent to the oracle. Internal cost is
// deliberately absent from the payload.
type rankCandidate struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Price        float64 `json:"price"`
	Unit         string  `json:"unit"`
}

type rankPayload struct {
	Query        string          `json:"query"`
	LearnedHints []string        `json:"learnedHints,omitempty"`
	Candidates   []rankCandidate `json:"candidates"`
}

type rankResponse struct {
	Matches []struct {
		SKU        string `json:"sku"`
		Confidence int    `json:"confidence"`
		Reason     string `json:"reason"`
	} `json:"matches"`
}

// RankProducts asks the oracle to rank candidates against the query. Returned
// SKUs are re-joined against the candidate list; anything the oracle invents
// is dropped. An empty result is a valid "nothing matches" answer.
func (c *Client) RankProducts(ctx context.Context, query string, candidates []domain.CatalogProduct, learnedHints []string) ([]domain.CandidateMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.rankTimeout)
	defer cancel()

	payload := rankPayload{
		Query:        query,
		LearnedHints: learnedHints,
		Candidates:   make([]rankCandidate, len(candidates)),
	}
	for i, p := range candidates {
		payload.Candidates[i] = rankCandidate{
			SKU:          p.SKU,
			Name:         p.Name,
			Category:     p.Category,
			Subcategory:  p.Subcategory,
			Manufacturer: p.Manufacturer,
			Price:        p.Price,
			Unit:         p.Unit,
		}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeOracleFailure, "failed to encode ranking request", err)
	}

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rankSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payloadJSON)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, classifyOracleError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return []domain.CandidateMatch{}, nil
	}

	var parsed rankResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeOracleFailure, "failed to parse oracle response", err)
	}

	bySKU := make(map[string]*domain.CatalogProduct, len(candidates))
	for i := range candidates {
		bySKU[candidates[i].SKU] = &candidates[i]
	}

	matches := make([]domain.CandidateMatch, 0, MaxMatches)
	for _, m := range parsed.Matches {
		if len(matches) >= MaxMatches {
			break
		}
		product, ok := bySKU[m.SKU]
		if !ok {
			// hallucinated sku, drop silently
			continue
		}
		matches = append(matches, domain.CandidateMatch{
			SKU:          product.SKU,
			Name:         product.Name,
			Category:     product.Category,
			Subcategory:  product.Subcategory,
			Manufacturer: product.Manufacturer,
			Price:        product.Price,
			Unit:         product.Unit,
			Confidence:   clampConfidence(m.Confidence),
			Reason:       m.Reason,
		})
	}
	return matches, nil
}

// Transcribe converts raw audio bytes to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "audio data is required")
	}

	resp, err := c.audio.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		Reader:   bytes.NewReader(audio),
		FilePath: "audio.wav",
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.Text, nil
}

// DescribeQuote turns a rough work description into a professional quote
// description.
func (c *Client) DescribeQuote(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", domain.ErrEmptyQuery
	}

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: describeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		return "", classifyOracleError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrOracleFailure
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOracleError maps transport failures onto the domain's oracle error
// taxonomy so the caller can show an actionable message.
func classifyOracleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeOracleTimeout, "product matching timed out, try again", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401:
			return domain.NewDomainErrorWithCause(domain.ErrCodeOracleAuth, "product matching session expired", err)
		case apiErr.HTTPStatusCode >= 500:
			return domain.NewDomainErrorWithCause(domain.ErrCodeOracleBusy, "product matching service is busy", err)
		}
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeOracleFailure, "product matching failed", err)
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
