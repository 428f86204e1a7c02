package testutil

import (
	"context"
	"strings"
	"sync"
)

// CompleterCall records a single call to the mock completion model.
type CompleterCall struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// MockCompleter provides deterministic completion responses for testing.
// It matches the user prompt against registered patterns and returns the
// corresponding response; the fallback is returned when nothing matches.
//
// Thread-safe for concurrent use.
type MockCompleter struct {
	mu       sync.Mutex
	rules    []completerRule
	fallback string
	tokens   int
	errs     []error // consumed one per call; nil entries mean success
	calls    []CompleterCall
}

type completerRule struct {
	pattern  string // substring match, case-insensitive
	response string
}

// NewMockCompleter creates a mock completion model with the given fallback
// response and a fixed token count per call.
func NewMockCompleter(fallback string, tokens int) *MockCompleter {
	return &MockCompleter{fallback: fallback, tokens: tokens}
}

// AddResponse registers a pattern-response pair. Patterns are checked in
// registration order; first match wins.
func (m *MockCompleter) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, completerRule{pattern: strings.ToLower(pattern), response: response})
}

// FailNext queues errors for upcoming calls.
func (m *MockCompleter) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

// Calls returns a copy of all recorded calls.
func (m *MockCompleter) Calls() []CompleterCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompleterCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Complete implements the orchestrator's completion dependency.
func (m *MockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, CompleterCall{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    maxTokens,
	})

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", 0, err
		}
	}

	lower := strings.ToLower(userPrompt)
	for _, rule := range m.rules {
		if strings.Contains(lower, rule.pattern) {
			return rule.response, m.tokens, nil
		}
	}
	return m.fallback, m.tokens, nil
}
