package embedding

import (
	"context"
	"log/slog"

	"handbook-rag/internal/domain"
)

// DegradableEncoder wraps a VectorEncoder and substitutes a pseudo-random
// vector when the backend fails. Encode never returns an error; the
// substitution is tagged on the Embedding so callers can treat degraded
// vectors differently (the indexer refuses them, retrieval carries on).
type DegradableEncoder struct {
	inner  domain.VectorEncoder
	logger *slog.Logger
}

// NewDegradableEncoder wraps inner with random-vector degradation.
func NewDegradableEncoder(inner domain.VectorEncoder, logger *slog.Logger) *DegradableEncoder {
	return &DegradableEncoder{inner: inner, logger: logger}
}

func (e *DegradableEncoder) Encode(ctx context.Context, text string) (domain.Embedding, error) {
	emb, err := e.inner.Encode(ctx, text)
	if err == nil {
		return emb, nil
	}

	e.logger.Warn("embedding_degraded",
		slog.String("error", err.Error()),
		slog.Int("dimension", domain.EmbeddingDim))

	return domain.Embedding{
		Vector:   domain.RandomVector(domain.EmbeddingDim),
		Degraded: true,
		Reason:   err.Error(),
	}, nil
}

func (e *DegradableEncoder) Version() string {
	return e.inner.Version()
}

var _ domain.VectorEncoder = (*DegradableEncoder)(nil)
