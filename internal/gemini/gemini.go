// Package gemini adapts the Google Gemini API to the provider interfaces the
// pipeline consumes: embedding.Client for vectors and rag.Completer for text
// generation. Nothing outside this package imports the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/aldeialab/sage/internal/embedding"
)

// ErrEmptyResponse indicates the model returned no usable candidate.
var ErrEmptyResponse = errors.New("model returned empty response")

var _ embedding.Client = (*Client)(nil)

// Client wraps a genai client with fixed model choices.
type Client struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimension       int
	logger          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithGenerativeModel overrides the completion model.
func WithGenerativeModel(model string) Option {
	return func(c *Client) { c.generativeModel = model }
}

// WithEmbeddingModel overrides the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(c *Client) { c.embeddingModel = model }
}

// WithDimension overrides the embedding output dimensionality.
func WithDimension(dim int) Option {
	return func(c *Client) { c.dimension = dim }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Gemini client using API-key authentication.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	c := &Client{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		dimension:       768,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EmbedContent embeds every text in a single provider call and reports token
// usage when the API provides it. Implements embedding.Client.
func (c *Client) EmbedContent(ctx context.Context, texts []string) ([][]float32, embedding.Usage, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(c.dimension)),
	})
	if err != nil {
		return nil, embedding.Usage{}, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, embedding.Usage{}, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrEmptyResponse, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	var usage embedding.Usage
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
		if emb.Statistics != nil {
			usage.Add(embedding.Usage{Tokens: int(emb.Statistics.TokenCount)})
		}
	}

	c.logger.Debug("embedded texts",
		"model", c.embeddingModel, "count", len(texts), "dimension", c.dimension)
	return vectors, usage, nil
}

// Complete generates a single completion under the given system instruction.
// Implements the orchestrator's completion dependency.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, int, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.generativeModel, genai.Text(userPrompt), config)
	if err != nil {
		return "", 0, fmt.Errorf("generating content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, ErrEmptyResponse
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	c.logger.Debug("generated completion",
		"model", c.generativeModel, "tokens", tokens)
	return text, tokens, nil
}
