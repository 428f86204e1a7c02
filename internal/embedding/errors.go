package embedding

import "errors"

var (
	// ErrEmbedding indicates the embedding provider call failed.
	ErrEmbedding = errors.New("embedding provider call failed")

	// ErrDimensionMismatch indicates two vectors of unequal length were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
