package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldeialab/sage/internal/knowledge"
)

func resultsWithSimilarity(sims ...float64) []knowledge.Result {
	out := make([]knowledge.Result, len(sims))
	for i, s := range sims {
		out[i] = knowledge.Result{Similarity: s}
	}
	return out
}

func TestConfidenceNoGrounding(t *testing.T) {
	assert.InDelta(t, 0.3, confidence(nil), 1e-9)
	assert.InDelta(t, 0.3, confidence([]knowledge.Result{}), 1e-9)
}

func TestConfidenceSingleSource(t *testing.T) {
	// One source: relevance 0.8 * 0.7 + (1/5) * 0.3 = 0.62.
	assert.InDelta(t, 0.62, confidence(resultsWithSimilarity(0.8)), 1e-9)
}

func TestConfidenceCorroborationSaturates(t *testing.T) {
	five := confidence(resultsWithSimilarity(0.9, 0.9, 0.9, 0.9, 0.9))
	eight := confidence(resultsWithSimilarity(0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9))
	assert.InDelta(t, five, eight, 1e-9, "beyond five sources corroboration stops growing")
	assert.InDelta(t, 0.9*0.7+0.3, five, 1e-9)
}

func TestConfidenceApproachesOne(t *testing.T) {
	score := confidence(resultsWithSimilarity(1, 1, 1, 1, 1, 1))
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestConfidenceBounds(t *testing.T) {
	cases := [][]knowledge.Result{
		resultsWithSimilarity(-1, -1, -1),
		resultsWithSimilarity(0),
		resultsWithSimilarity(0.5, 0.7),
		resultsWithSimilarity(1, 1, 1, 1, 1, 1, 1),
		nil,
	}
	for _, rs := range cases {
		score := confidence(rs)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestConfidenceMoreSimilarIsMoreConfident(t *testing.T) {
	low := confidence(resultsWithSimilarity(0.7, 0.7))
	high := confidence(resultsWithSimilarity(0.95, 0.95))
	assert.Greater(t, high, low)
}
