package domain

import (
	"context"
	"math/rand"
)

// EmbeddingDim is the output dimension of the feature-extraction model
// (all-MiniLM class), and therefore the dimension of every index vector.
const EmbeddingDim = 384

// Embedding carries an encoded vector together with a degradation tag.
// When the encoder backend is unavailable the pipeline continues on a
// pseudo-random vector; Degraded makes that observable instead of silent.
type Embedding struct {
	Vector   []float32
	Degraded bool
	Reason   string
}

// VectorEncoder converts text into a fixed-dimension embedding.
type VectorEncoder interface {
	Encode(ctx context.Context, text string) (Embedding, error)
	Version() string
}

// RandomVector returns a vector of dim components uniformly drawn from
// [-1, 1). Used both for encoder degradation and for the keyword-only
// fallback query, where the semantic score is ignored.
func RandomVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = rand.Float32()*2 - 1
	}
	return vec
}
