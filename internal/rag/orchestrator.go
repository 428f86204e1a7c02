// Package rag answers questions about altas habilidades/superdotação by
// grounding a language model on retrieved knowledge items.
//
// The pipeline is: embed the question, fetch the most similar stored items,
// assemble them into a context block under a persona-specific system prompt,
// call the completion model, and score the answer's confidence from its
// grounding. Failures keep their kind (embedding.ErrEmbedding,
// knowledge.ErrSearch, ErrCompletion, ErrInvalidPersona) so callers can
// branch with errors.Is.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/aldeialab/sage/internal/embedding"
	"github.com/aldeialab/sage/internal/knowledge"
	"github.com/aldeialab/sage/internal/retrieval"
	"github.com/aldeialab/sage/internal/retry"
)

// Retriever fetches the stored items most similar to a text query.
// *retrieval.Service satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query) ([]knowledge.Result, embedding.Usage, error)
}

// Completer generates a completion for a system/user prompt pair and reports
// how many tokens the call consumed.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, int, error)
}

// Query is a question for the pipeline. Zero-valued Threshold, Count and
// Persona fall back to DefaultMatchThreshold, DefaultMatchCount and
// PersonaGeneralist. Source and Category optionally restrict retrieval.
type Query struct {
	Question  string
	Persona   Persona
	Threshold float64
	Count     int
	Source    knowledge.Source
	Category  knowledge.Category
}

// Answer is a grounded response.
type Answer struct {
	Text       string
	Sources    []knowledge.Result
	Confidence float64
	TokensUsed int
}

// Profile describes a child or adolescent for resource suggestions.
type Profile struct {
	Age             int
	Characteristics []string
	Needs           []string
}

// Option configures a Service.
type Option func(*Service)

// WithMaxOutputTokens overrides the completion token limit.
func WithMaxOutputTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOutputTokens = n
		}
	}
}

// WithRetryConfig overrides the completion retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Service) { s.retryConfig = cfg }
}

// WithRateLimiter applies a rate limiter to every completion attempt.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// Service orchestrates retrieval-augmented answers.
type Service struct {
	retriever       Retriever
	completer       Completer
	logger          *slog.Logger
	maxOutputTokens int
	retryConfig     retry.Config
	limiter         *rate.Limiter
}

// NewService creates the orchestrator.
func NewService(retriever Retriever, completer Completer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		retriever:       retriever,
		completer:       completer,
		logger:          logger,
		maxOutputTokens: defaultMaxOutputTokens,
		retryConfig:     retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the full pipeline for q. The persona is validated before any
// provider call; retrieval finding nothing is not an error, the model is told
// to answer from general knowledge instead.
func (s *Service) Answer(ctx context.Context, q Query) (*Answer, error) {
	persona := q.Persona
	if persona == "" {
		persona = PersonaGeneralist
	}
	systemPrompt, err := persona.SystemPrompt()
	if err != nil {
		return nil, err
	}

	threshold := q.Threshold
	if threshold == 0 {
		threshold = DefaultMatchThreshold
	}
	count := q.Count
	if count == 0 {
		count = DefaultMatchCount
	}

	results, usage, err := s.retriever.Retrieve(ctx, retrieval.Query{
		Text:      q.Question,
		Threshold: threshold,
		Count:     count,
		Source:    q.Source,
		Category:  q.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	userPrompt := buildUserPrompt(buildContext(results), q.Question)

	var text string
	var completionTokens int
	err = retry.Do(ctx, s.logger, s.retryConfig, s.limiter, func() error {
		var callErr error
		text, completionTokens, callErr = s.completer.Complete(ctx, systemPrompt, userPrompt, s.maxOutputTokens)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	answer := &Answer{
		Text:       text,
		Sources:    results,
		Confidence: confidence(results),
		TokensUsed: usage.Tokens + completionTokens,
	}
	s.logger.Info("answered question",
		"persona", string(persona),
		"sources", len(results),
		"confidence", answer.Confidence,
		"tokens", answer.TokensUsed,
	)
	return answer, nil
}

// AnalyzeCase answers a structured analysis of a case description, retrieving
// with a lower threshold since narratives rarely match stored passages
// closely. An empty persona defaults to the generalist.
func (s *Service) AnalyzeCase(ctx context.Context, caseText string, persona Persona) (*Answer, error) {
	if persona == "" {
		persona = PersonaGeneralist
	}
	question := fmt.Sprintf(`Analise o seguinte caso de possível altas habilidades/superdotação:

%s

Estruture a análise em:
1. Indicadores de AH/SD presentes no relato.
2. Aspectos que merecem investigação adicional.
3. Encaminhamentos recomendados.`, caseText)

	return s.Answer(ctx, Query{
		Question:  question,
		Persona:   persona,
		Threshold: CaseMatchThreshold,
		Count:     CaseMatchCount,
	})
}

// SuggestResources recommends activities and materials for a profile. Empty
// profile fields are rendered as "não especificado" so the model does not
// invent them.
func (s *Service) SuggestResources(ctx context.Context, profile Profile, persona Persona) (*Answer, error) {
	if persona == "" {
		persona = PersonaGeneralist
	}
	question := fmt.Sprintf(`Sugira recursos, atividades e materiais adequados ao seguinte perfil:

Idade: %s
Características: %s
Necessidades: %s

Para cada sugestão, explique brevemente por que ela atende ao perfil.`,
		formatAge(profile.Age),
		formatList(profile.Characteristics),
		formatList(profile.Needs))

	return s.Answer(ctx, Query{
		Question:  question,
		Persona:   persona,
		Threshold: ResourceMatchThreshold,
		Count:     ResourceMatchCount,
	})
}

func formatAge(age int) string {
	if age <= 0 {
		return "não especificado"
	}
	return fmt.Sprintf("%d anos", age)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "não especificado"
	}
	return strings.Join(items, ", ")
}
