package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/aldeialab/sage/internal/config"
	"github.com/aldeialab/sage/internal/database"
	"github.com/aldeialab/sage/internal/embedding"
	"github.com/aldeialab/sage/internal/gemini"
	"github.com/aldeialab/sage/internal/knowledge"
	"github.com/aldeialab/sage/internal/log"
	"github.com/aldeialab/sage/internal/rag"
	"github.com/aldeialab/sage/internal/retrieval"
)

// app holds the wired dependencies shared by the commands. Provider clients
// are built on demand so storage-only commands work without an API key.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	store   *knowledge.Store
	limiter *rate.Limiter
}

// newApp loads configuration and connects to the database.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: level, JSON: cfg.LogJSON})

	pool, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		store:  knowledge.NewStore(pool, logger),
		// One limiter across embedding and completion: the per-minute quota
		// is shared on the provider side too.
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, cfg.RequestsPerMinute),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

// gemini builds the provider client, failing with guidance when no API key is
// configured.
func (a *app) gemini(ctx context.Context) (*gemini.Client, error) {
	if a.cfg.GeminiAPIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Please run:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	return gemini.New(ctx, a.cfg.GeminiAPIKey,
		gemini.WithGenerativeModel(a.cfg.GenerativeModel),
		gemini.WithEmbeddingModel(a.cfg.EmbeddingModel),
		gemini.WithDimension(a.cfg.EmbeddingDim),
		gemini.WithLogger(a.logger),
	)
}

// embedder wires the embedding service on top of the provider client.
func (a *app) embedder(ctx context.Context) (*embedding.Service, error) {
	client, err := a.gemini(ctx)
	if err != nil {
		return nil, err
	}
	return embedding.NewService(client, a.logger, embedding.WithRateLimiter(a.limiter)), nil
}

// rag wires the full question-answering pipeline.
func (a *app) rag(ctx context.Context) (*rag.Service, error) {
	client, err := a.gemini(ctx)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewService(client, a.logger, embedding.WithRateLimiter(a.limiter))
	retriever := retrieval.NewService(embedder, a.store, a.logger)
	return rag.NewService(retriever, client, a.logger,
		rag.WithMaxOutputTokens(a.cfg.MaxOutputTokens),
		rag.WithRateLimiter(a.limiter),
	), nil
}
