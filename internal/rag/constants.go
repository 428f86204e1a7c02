package rag

// Retrieval defaults applied when a Query leaves them unset.
const (
	// DefaultMatchThreshold is the minimum similarity kept by default.
	DefaultMatchThreshold = 0.7

	// DefaultMatchCount is the maximum number of grounding items by default.
	DefaultMatchCount = 10
)

// Case analysis retrieves more permissively: case narratives rarely match
// stored passages verbatim, so the threshold drops and the net widens.
const (
	CaseMatchThreshold = 0.5
	CaseMatchCount     = 15
)

// Resource suggestion sits between the two: profiles are structured enough to
// match reasonably, but still benefit from a wider net.
const (
	ResourceMatchThreshold = 0.6
	ResourceMatchCount     = 12
)

// Confidence scoring. Relevance (average similarity) dominates; corroboration
// (source count) contributes up to corroborationWeight, saturating at
// corroborationCap sources. With no grounding at all the answer carries a
// fixed low baseline.
const (
	noGroundingConfidence = 0.3
	relevanceWeight       = 0.7
	corroborationWeight   = 0.3
	corroborationCap      = 5
)

// defaultMaxOutputTokens bounds completion length when the orchestrator is
// built without an explicit limit.
const defaultMaxOutputTokens = 1024
