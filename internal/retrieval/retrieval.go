// Package retrieval composes embedding and knowledge search into one call:
// embed the query text, then ask the store for the nearest items.
//
// Errors from either collaborator surface unchanged (wrapped with %w, never
// translated), so callers can still branch on embedding.ErrEmbedding or
// knowledge.ErrSearch.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aldeialab/sage/internal/embedding"
	"github.com/aldeialab/sage/internal/knowledge"
)

// Embedder is the embedding dependency of Service.
// *embedding.Service satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, embedding.Usage, error)
}

// Searcher is the ranked-search dependency of Service.
// *knowledge.Store satisfies it.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, p knowledge.SearchParams) ([]knowledge.Result, error)
}

// Query is a similarity retrieval request.
type Query struct {
	Text      string
	Threshold float64
	Count     int
	Source    knowledge.Source
	Category  knowledge.Category
}

// Service retrieves the stored items most similar to a text query.
type Service struct {
	embedder Embedder
	store    Searcher
	logger   *slog.Logger
}

// NewService creates a retrieval service.
func NewService(embedder Embedder, store Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embedder: embedder, store: store, logger: logger}
}

// Retrieve embeds q.Text and returns the nearest items under the query's
// filters and threshold, ordered by similarity descending. The returned usage
// covers the embedding call, for answer-level token accounting.
//
// Zero results is not an error.
func (s *Service) Retrieve(ctx context.Context, q Query) ([]knowledge.Result, embedding.Usage, error) {
	vector, usage, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, embedding.Usage{}, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.store.Search(ctx, vector, knowledge.SearchParams{
		Threshold: q.Threshold,
		Count:     q.Count,
		Source:    q.Source,
		Category:  q.Category,
	})
	if err != nil {
		return nil, embedding.Usage{}, fmt.Errorf("searching knowledge: %w", err)
	}

	s.logger.Debug("retrieved knowledge",
		"query_length", len(q.Text), "results", len(results),
		"threshold", q.Threshold, "count", q.Count)
	return results, usage, nil
}
