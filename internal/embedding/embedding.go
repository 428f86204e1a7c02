// Package embedding converts text into fixed-length vectors and compares them.
//
// The provider sits behind the Client interface so tests can substitute a
// deterministic fake; production wires the Gemini-backed client from
// internal/gemini. Transient provider failures are retried with backoff
// (internal/retry); permanent ones surface immediately as ErrEmbedding.
package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/aldeialab/sage/internal/retry"
)

// Usage counts provider tokens for cost accounting.
type Usage struct {
	Tokens int
}

// Add accumulates usage from another call.
func (u *Usage) Add(other Usage) {
	u.Tokens += other.Tokens
}

// Client is the provider boundary for embedding generation. Implementations
// must return one vector per input text, in input order, or an error with no
// partial results.
type Client interface {
	EmbedContent(ctx context.Context, texts []string) ([][]float32, Usage, error)
}

// Option configures a Service.
type Option func(*Service)

// WithRetryConfig overrides the provider retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Service) { s.retryConfig = cfg }
}

// WithRateLimiter applies a rate limiter to every provider attempt.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// Service produces vector representations of text.
type Service struct {
	client      Client
	logger      *slog.Logger
	retryConfig retry.Config
	limiter     *rate.Limiter
}

// NewService creates an embedding service backed by the given provider client.
func NewService(client Client, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{client: client, logger: logger, retryConfig: retry.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed converts a single text into a vector.
// Fails with ErrEmbedding when the provider call fails.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, Usage, error) {
	vectors, usage, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, Usage{}, err
	}
	return vectors[0], usage, nil
}

// EmbedBatch converts texts into vectors with a single provider call.
// The result has exactly one vector per input, in input order. The call is
// all-or-nothing: any provider failure returns ErrEmbedding with no vectors.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, Usage, error) {
	if len(texts) == 0 {
		return nil, Usage{}, fmt.Errorf("%w: no texts to embed", ErrEmbedding)
	}
	for i, text := range texts {
		if text == "" {
			return nil, Usage{}, fmt.Errorf("%w: empty text at index %d", ErrEmbedding, i)
		}
	}

	var vectors [][]float32
	var usage Usage
	err := retry.Do(ctx, s.logger, s.retryConfig, s.limiter, func() error {
		var callErr error
		vectors, usage, callErr = s.client.EmbedContent(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, Usage{}, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	if len(vectors) != len(texts) {
		return nil, Usage{}, fmt.Errorf("%w: provider returned %d embeddings for %d texts",
			ErrEmbedding, len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, Usage{}, fmt.Errorf("%w: empty embedding at index %d", ErrEmbedding, i)
		}
	}

	s.logger.Debug("embedded texts", "count", len(texts), "dimension", len(vectors[0]), "tokens", usage.Tokens)
	return vectors, usage, nil
}
