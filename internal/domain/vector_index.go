package domain

import "context"

// IndexQuery describes a nearest-neighbor lookup against the vector index.
type IndexQuery struct {
	Vector          []float32
	TopK            int
	IncludeMetadata bool
}

// IndexMatch is a single scored hit returned by the index. The passage text
// travels in Metadata under the "text" key; a match without it is treated as
// an empty payload by the ranker, not an error.
type IndexMatch struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// IndexItem is a vector plus metadata to be written into the index.
type IndexItem struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// VectorIndex is the contract over a remote nearest-neighbor index.
type VectorIndex interface {
	Query(ctx context.Context, q IndexQuery) ([]IndexMatch, error)
	Upsert(ctx context.Context, items []IndexItem) error
}
