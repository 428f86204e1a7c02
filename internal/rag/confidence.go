package rag

import "github.com/aldeialab/sage/internal/knowledge"

// confidence scores an answer from its grounding: average similarity of the
// retrieved items weighted against how many items corroborate it. Always in
// [0, 1]. An answer with no grounding keeps a fixed low baseline rather than
// zero, since the model may still answer correctly from general knowledge.
func confidence(results []knowledge.Result) float64 {
	if len(results) == 0 {
		return noGroundingConfidence
	}

	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	relevance := sum / float64(len(results))

	corroboration := float64(len(results)) / corroborationCap
	if corroboration > 1 {
		corroboration = 1
	}

	score := relevance*relevanceWeight + corroboration*corroborationWeight
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
