package usecase

import "errors"

var (
	// ErrEmptyMessage rejects chat turns with no content.
	ErrEmptyMessage = errors.New("message is required")
	// ErrEmptyGeneration marks a backend response with no text; it counts
	// as a failed attempt under retry.
	ErrEmptyGeneration = errors.New("generation returned empty response")
	// ErrDegradedEmbedding refuses to index passages embedded with a
	// synthetic vector, which would poison the index.
	ErrDegradedEmbedding = errors.New("embedding degraded, refusing to index")
)
