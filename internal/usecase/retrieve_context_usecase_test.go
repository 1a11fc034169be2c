package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"handbook-rag/internal/domain"
	"handbook-rag/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockVectorIndex struct {
	mock.Mock
}

func (m *mockVectorIndex) Query(ctx context.Context, q domain.IndexQuery) ([]domain.IndexMatch, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexMatch), args.Error(1)
}

func (m *mockVectorIndex) Upsert(ctx context.Context, items []domain.IndexItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) Encode(ctx context.Context, text string) (domain.Embedding, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.Embedding), args.Error(1)
}

func (m *mockEncoder) Version() string { return "test-encoder" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func goodEmbedding() domain.Embedding {
	return domain.Embedding{Vector: domain.RandomVector(domain.EmbeddingDim)}
}

func indexMatches(texts ...string) []domain.IndexMatch {
	matches := make([]domain.IndexMatch, 0, len(texts))
	for i, text := range texts {
		matches = append(matches, domain.IndexMatch{
			ID:       string(rune('a' + i)),
			Score:    0.9 - float64(i)*0.1,
			Metadata: map[string]string{"text": text},
		})
	}
	return matches
}

func TestRetrieveContext_PrimaryPath(t *testing.T) {
	index := new(mockVectorIndex)
	encoder := new(mockEncoder)

	encoder.On("Encode", mock.Anything, mock.Anything).Return(goodEmbedding(), nil)
	index.On("Query", mock.Anything, mock.MatchedBy(func(q domain.IndexQuery) bool {
		return q.TopK == 15 && q.IncludeMetadata // topK 5 with over-fetch factor 3
	})).Return(indexMatches(
		"Diabetes symptoms include excessive thirst.",
		"Unrelated gardening tips.",
	), nil)

	uc := NewRetrieveContextUsecase(index, encoder, retrieval.DefaultRankWeights, discardLogger())
	output := uc.Execute(context.Background(), RetrieveContextInput{Query: "diabetes symptoms", TopK: 5})

	assert.False(t, output.UsedFallback)
	assert.False(t, output.DegradedEmbedding)
	assert.NotEmpty(t, output.RetrievalID)
	assert.NotEmpty(t, output.Candidates)
	assert.Equal(t, "Diabetes symptoms include excessive thirst.", output.Candidates[0].Text)
	index.AssertExpectations(t)
	encoder.AssertExpectations(t)
}

func TestRetrieveContext_DegradedEmbeddingIsReported(t *testing.T) {
	index := new(mockVectorIndex)
	encoder := new(mockEncoder)

	encoder.On("Encode", mock.Anything, mock.Anything).Return(domain.Embedding{
		Vector:   domain.RandomVector(domain.EmbeddingDim),
		Degraded: true,
		Reason:   "backend unreachable",
	}, nil)
	index.On("Query", mock.Anything, mock.Anything).Return(indexMatches("Diabetes overview."), nil)

	uc := NewRetrieveContextUsecase(index, encoder, retrieval.DefaultRankWeights, discardLogger())
	output := uc.Execute(context.Background(), RetrieveContextInput{Query: "diabetes"})

	assert.True(t, output.DegradedEmbedding)
	assert.False(t, output.UsedFallback)
}

func TestRetrieveContext_FallbackOnIndexError(t *testing.T) {
	index := new(mockVectorIndex)
	encoder := new(mockEncoder)

	encoder.On("Encode", mock.Anything, mock.Anything).Return(goodEmbedding(), nil)
	// Primary query fails, fallback query succeeds.
	index.On("Query", mock.Anything, mock.MatchedBy(func(q domain.IndexQuery) bool {
		return q.TopK == 15
	})).Return(nil, errors.New("connection refused")).Once()
	index.On("Query", mock.Anything, mock.MatchedBy(func(q domain.IndexQuery) bool {
		return q.TopK == 100
	})).Return(indexMatches(
		"Diabetes is a chronic disease.",
		"Cooking with olive oil.",
	), nil).Once()

	uc := NewRetrieveContextUsecase(index, encoder, retrieval.DefaultRankWeights, discardLogger())
	output := uc.Execute(context.Background(), RetrieveContextInput{Query: "diabetes", TopK: 5})

	assert.True(t, output.UsedFallback)
	assert.LessOrEqual(t, len(output.Candidates), 5)
	assert.Len(t, output.Candidates, 1, "only the keyword-matching passage survives")
	assert.Equal(t, "Diabetes is a chronic disease.", output.Candidates[0].Text)
	index.AssertExpectations(t)
}

func TestRetrieveContext_FallbackSkippedWithoutKeywords(t *testing.T) {
	index := new(mockVectorIndex)
	encoder := new(mockEncoder)

	// Encoding fails outright, forcing the fallback path; the query has no
	// token longer than three characters so the fallback has nothing to
	// filter on and must not hit the index.
	encoder.On("Encode", mock.Anything, mock.Anything).Return(domain.Embedding{}, errors.New("down"))

	uc := NewRetrieveContextUsecase(index, encoder, retrieval.DefaultRankWeights, discardLogger())
	output := uc.Execute(context.Background(), RetrieveContextInput{Query: "a an of"})

	assert.True(t, output.UsedFallback)
	assert.Empty(t, output.Candidates)
	index.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestRetrieveContext_DoubleFaultYieldsEmptyOutput(t *testing.T) {
	index := new(mockVectorIndex)
	encoder := new(mockEncoder)

	encoder.On("Encode", mock.Anything, mock.Anything).Return(domain.Embedding{}, errors.New("down"))
	index.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("also down"))

	uc := NewRetrieveContextUsecase(index, encoder, retrieval.DefaultRankWeights, discardLogger())

	assert.NotPanics(t, func() {
		output := uc.Execute(context.Background(), RetrieveContextInput{Query: "diabetes symptoms"})
		assert.True(t, output.UsedFallback)
		assert.Empty(t, output.Candidates)
	})
}

func TestFormatContext(t *testing.T) {
	uc := NewRetrieveContextUsecase(nil, nil, retrieval.DefaultRankWeights, discardLogger())

	assert.Equal(t, "", uc.FormatContext(nil))

	formatted := uc.FormatContext([]domain.ScoredCandidate{
		{Text: "A"},
		{Text: "B"},
	})
	assert.Equal(t, "[1] A\n\n[2] B", formatted)
}
