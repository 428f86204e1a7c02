package rag

import "errors"

var (
	// ErrInvalidPersona indicates an unknown persona key. Raised before any
	// network call is made.
	ErrInvalidPersona = errors.New("invalid persona")

	// ErrCompletion indicates the completion model call failed.
	ErrCompletion = errors.New("completion provider call failed")
)
