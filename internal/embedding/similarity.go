package embedding

import (
	"fmt"
	"math"
)

// Similarity computes the cosine similarity between two vectors:
// dot(a,b) / (‖a‖·‖b‖). The result is in [-1, 1]; callers must not assume
// non-negativity. A zero-magnitude vector yields 0.
//
// Fails with ErrDimensionMismatch when the vectors differ in length.
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Guard against floating point drift past the mathematical bounds.
	return math.Max(-1, math.Min(1, sim)), nil
}
