// Package testutil provides shared testing utilities for the sage project:
// deterministic provider fakes and a PostgreSQL test container harness.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/aldeialab/sage/internal/embedding"
)

// EmbedClient is a deterministic fake for embedding.Client.
//
// By default every text maps to a stable unit vector derived from its hash,
// so equal texts embed equally and different texts are almost never parallel.
// Fixed vectors can be pinned per text, and errors injected per call.
type EmbedClient struct {
	mu      sync.Mutex
	fixed   map[string][]float32
	usage   embedding.Usage
	errs    []error // consumed one per call; nil entries mean success
	calls   int
	batches [][]string
}

// NewEmbedClient creates a fake embedding client.
func NewEmbedClient() *EmbedClient {
	return &EmbedClient{fixed: make(map[string][]float32)}
}

// Pin fixes the vector returned for an exact text.
func (c *EmbedClient) Pin(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fixed[text] = vector
}

// SetUsage sets the usage reported per call.
func (c *EmbedClient) SetUsage(u embedding.Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage = u
}

// FailNext queues errors for upcoming calls; a nil entry means that call
// succeeds. Used for retry fault injection.
func (c *EmbedClient) FailNext(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, errs...)
}

// Calls returns how many provider calls were made.
func (c *EmbedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Batches returns the texts of every call, in call order.
func (c *EmbedClient) Batches() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.batches))
	copy(out, c.batches)
	return out
}

// EmbedContent implements embedding.Client.
func (c *EmbedClient) EmbedContent(ctx context.Context, texts []string) ([][]float32, embedding.Usage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	c.batches = append(c.batches, append([]string(nil), texts...))

	if err := ctx.Err(); err != nil {
		return nil, embedding.Usage{}, err
	}
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, embedding.Usage{}, err
		}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := c.fixed[text]; ok {
			vectors[i] = vec
			continue
		}
		vectors[i] = HashVector(text, 8)
	}
	return vectors, c.usage, nil
}

// HashVector derives a stable unit vector of the given dimension from text.
func HashVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	var norm float64
	for i := 0; i < dim; i++ {
		// Two bytes per component, centered around zero.
		v := float64(int(binary.BigEndian.Uint16(sum[(i*2)%30:]))-math.MaxInt16) / math.MaxInt16
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
