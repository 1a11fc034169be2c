package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"handbook-rag/internal/domain"
	"handbook-rag/internal/usecase/retrieval"

	"github.com/google/uuid"
)

const (
	defaultTopK = 5
	// overFetchFactor over-requests candidates so the hybrid ranker has
	// enough material to re-sort against.
	overFetchFactor = 3
	// fallbackFetchSize is the broad pool requested by the keyword-only
	// fallback, where the query vector carries no signal.
	fallbackFetchSize = 100
)

// RetrieveContextInput carries the parameters of one retrieval call.
type RetrieveContextInput struct {
	Query string
	TopK  int
}

// RetrieveContextOutput is the ranked result set. UsedFallback reports that
// the keyword-only path produced it; DegradedEmbedding reports that the
// query vector was synthetic.
type RetrieveContextOutput struct {
	Candidates        []domain.ScoredCandidate
	UsedFallback      bool
	DegradedEmbedding bool
	RetrievalID       string
}

// RetrieveContextUsecase retrieves ranked handbook passages for a query.
// Execute never fails: it degrades through the fallback path down to an
// empty result set.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, input RetrieveContextInput) *RetrieveContextOutput
	FormatContext(candidates []domain.ScoredCandidate) string
}

type retrieveContextUsecase struct {
	index   domain.VectorIndex
	encoder domain.VectorEncoder
	weights retrieval.RankWeights
	logger  *slog.Logger
}

// NewRetrieveContextUsecase wires the retrieval pipeline.
func NewRetrieveContextUsecase(
	index domain.VectorIndex,
	encoder domain.VectorEncoder,
	weights retrieval.RankWeights,
	logger *slog.Logger,
) RetrieveContextUsecase {
	return &retrieveContextUsecase{
		index:   index,
		encoder: encoder,
		weights: weights,
		logger:  logger,
	}
}

func (u *retrieveContextUsecase) Execute(ctx context.Context, input RetrieveContextInput) *RetrieveContextOutput {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	retrievalID := uuid.NewString()
	start := time.Now()

	candidates, degraded, err := u.primary(ctx, input.Query, topK, retrievalID)
	if err == nil {
		u.logger.Info("retrieval_completed",
			slog.String("retrieval_id", retrievalID),
			slog.Int("result_count", len(candidates)),
			slog.Bool("degraded_embedding", degraded),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return &RetrieveContextOutput{
			Candidates:        candidates,
			DegradedEmbedding: degraded,
			RetrievalID:       retrievalID,
		}
	}

	u.logger.Warn("primary_retrieval_failed",
		slog.String("retrieval_id", retrievalID),
		slog.String("query", input.Query),
		slog.String("error", err.Error()))

	candidates, err = u.fallback(ctx, input.Query, topK, retrievalID)
	if err != nil {
		// Double fault is absorbed, not propagated.
		u.logger.Error("fallback_retrieval_failed",
			slog.String("retrieval_id", retrievalID),
			slog.String("error", err.Error()))
		return &RetrieveContextOutput{UsedFallback: true, RetrievalID: retrievalID}
	}

	u.logger.Info("fallback_retrieval_completed",
		slog.String("retrieval_id", retrievalID),
		slog.Int("result_count", len(candidates)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return &RetrieveContextOutput{
		Candidates:   candidates,
		UsedFallback: true,
		RetrievalID:  retrievalID,
	}
}

// primary runs the hybrid pipeline: expand, embed the expanded text, query
// the index with over-fetch, rank.
func (u *retrieveContextUsecase) primary(ctx context.Context, query string, topK int, retrievalID string) ([]domain.ScoredCandidate, bool, error) {
	expanded := retrieval.ExpandQuery(query)
	u.logger.Debug("query_expanded",
		slog.String("retrieval_id", retrievalID),
		slog.String("original", expanded.Original),
		slog.String("expanded", expanded.Text))

	embedding, err := u.encoder.Encode(ctx, expanded.Text)
	if err != nil {
		return nil, false, fmt.Errorf("encode expanded query: %w", err)
	}

	medicalKeywords := retrieval.FilterMedicalKeywords(expanded.Keywords)

	matches, err := u.index.Query(ctx, domain.IndexQuery{
		Vector:          embedding.Vector,
		TopK:            topK * overFetchFactor,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("query vector index: %w", err)
	}

	ranked := retrieval.Rank(matches, expanded.Keywords, medicalKeywords, topK, u.weights)
	return ranked, embedding.Degraded, nil
}

// fallback runs the keyword-only path against the same index. Expansion is
// re-run from scratch; no partial state from the failed primary path is
// reused.
func (u *retrieveContextUsecase) fallback(ctx context.Context, query string, topK int, retrievalID string) ([]domain.ScoredCandidate, error) {
	expanded := retrieval.ExpandQuery(query)
	keywords := retrieval.ExtractKeywords(expanded.Text)
	if len(keywords) == 0 {
		u.logger.Info("fallback_skipped_no_keywords",
			slog.String("retrieval_id", retrievalID))
		return nil, nil
	}

	// The vector carries no signal here; the broad fetch plus keyword
	// post-filtering does the work.
	matches, err := u.index.Query(ctx, domain.IndexQuery{
		Vector:          domain.RandomVector(domain.EmbeddingDim),
		TopK:            fallbackFetchSize,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fallback index query: %w", err)
	}

	return retrieval.RankKeywordOnly(matches, keywords, topK), nil
}

// FormatContext builds the numbered citation block injected into prompts:
// "[1] passage\n\n[2] passage". Empty input yields an empty string; callers
// must substitute their own placeholder rather than injecting it.
func (u *retrieveContextUsecase) FormatContext(candidates []domain.ScoredCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, strings.TrimSpace(c.Text))
	}
	return strings.Join(parts, "\n\n")
}
