package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"

	"handbook-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type memDocRepo struct {
	mu       sync.Mutex
	docs     map[string]*domain.HandbookDocument
	versions map[uuid.UUID][]*domain.HandbookDocumentVersion
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{
		docs:     make(map[string]*domain.HandbookDocument),
		versions: make(map[uuid.UUID][]*domain.HandbookDocumentVersion),
	}
}

func (r *memDocRepo) GetBySectionID(ctx context.Context, sectionID string) (*domain.HandbookDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[sectionID], nil
}

func (r *memDocRepo) CreateDocument(ctx context.Context, doc *domain.HandbookDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.SectionID] = doc
	return nil
}

func (r *memDocRepo) UpdateCurrentVersion(ctx context.Context, docID, versionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.ID == docID {
			doc.CurrentVersionID = &versionID
		}
	}
	return nil
}

func (r *memDocRepo) GetLatestVersion(ctx context.Context, docID uuid.UUID) (*domain.HandbookDocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.versions[docID]
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[len(versions)-1], nil
}

func (r *memDocRepo) CreateVersion(ctx context.Context, version *domain.HandbookDocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[version.DocumentID] = append(r.versions[version.DocumentID], version)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedEncoder struct {
	degraded bool
}

func (e *fixedEncoder) Encode(ctx context.Context, text string) (domain.Embedding, error) {
	return domain.Embedding{
		Vector:   domain.RandomVector(domain.EmbeddingDim),
		Degraded: e.degraded,
	}, nil
}

func (e *fixedEncoder) Version() string { return "encoder-v1" }

type captureIndex struct {
	mu    sync.Mutex
	items []domain.IndexItem
}

func (c *captureIndex) Query(ctx context.Context, q domain.IndexQuery) ([]domain.IndexMatch, error) {
	return nil, nil
}

func (c *captureIndex) Upsert(ctx context.Context, items []domain.IndexItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
	return nil
}

func sectionBody() string {
	para := strings.Repeat("Diabetes is a chronic metabolic condition. ", 4)
	return para + "\n\n" + strings.Repeat("Treatment focuses on blood sugar control. ", 4)
}

func newIndexFixture(docs *memDocRepo, encoder domain.VectorEncoder, index domain.VectorIndex) IndexPassageUsecase {
	return NewIndexPassageUsecase(
		docs,
		passthroughTx{},
		domain.NewChunker(),
		domain.NewSourceHashPolicy(),
		encoder,
		index,
		discardLogger(),
	)
}

// --- tests ---

func TestIndexSection_NewSection(t *testing.T) {
	docs := newMemDocRepo()
	index := &captureIndex{}
	uc := newIndexFixture(docs, &fixedEncoder{}, index)

	output, err := uc.Execute(context.Background(), IndexSectionInput{
		SectionID: "diabetes-overview",
		Title:     "Diabetes",
		Body:      sectionBody(),
	})

	require.NoError(t, err)
	assert.False(t, output.Skipped)
	assert.Equal(t, output.PassageCount, len(index.items))
	assert.NotEqual(t, uuid.Nil, output.VersionID)

	require.NotEmpty(t, index.items)
	first := index.items[0]
	assert.Equal(t, "diabetes-overview-0", first.ID)
	assert.Equal(t, "diabetes-overview", first.Metadata["section_id"])
	assert.Equal(t, "Diabetes", first.Metadata["title"])
	assert.Equal(t, "0", first.Metadata["ordinal"])
	assert.NotEmpty(t, first.Metadata["text"])
	assert.Len(t, first.Vector, domain.EmbeddingDim)

	doc := docs.docs["diabetes-overview"]
	require.NotNil(t, doc)
	version, err := docs.GetLatestVersion(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, 1, version.VersionNumber)
	assert.Equal(t, output.PassageCount, version.PassageCount)
	assert.Equal(t, "encoder-v1", version.EmbedderVersion)
}

func TestIndexSection_UnchangedContentSkips(t *testing.T) {
	docs := newMemDocRepo()
	index := &captureIndex{}
	uc := newIndexFixture(docs, &fixedEncoder{}, index)
	input := IndexSectionInput{
		SectionID: "sec-1",
		Title:     "Title",
		Body:      sectionBody(),
	}

	first, err := uc.Execute(context.Background(), input)
	require.NoError(t, err)
	upsertsAfterFirst := len(index.items)

	second, err := uc.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, second.Skipped)
	assert.Equal(t, first.VersionID, second.VersionID)
	assert.Equal(t, upsertsAfterFirst, len(index.items), "no re-embedding on unchanged content")
}

func TestIndexSection_ChangedContentCreatesNewVersion(t *testing.T) {
	docs := newMemDocRepo()
	index := &captureIndex{}
	uc := newIndexFixture(docs, &fixedEncoder{}, index)

	first, err := uc.Execute(context.Background(), IndexSectionInput{
		SectionID: "sec-1", Title: "Title", Body: sectionBody(),
	})
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), IndexSectionInput{
		SectionID: "sec-1", Title: "Title", Body: sectionBody() + "\n\n" + strings.Repeat("New guidance on medication dosage for patients. ", 3),
	})
	require.NoError(t, err)

	assert.False(t, second.Skipped)
	assert.NotEqual(t, first.VersionID, second.VersionID)

	doc := docs.docs["sec-1"]
	version, err := docs.GetLatestVersion(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, version.VersionNumber)
}

func TestIndexSection_DegradedEmbeddingRefused(t *testing.T) {
	docs := newMemDocRepo()
	index := &captureIndex{}
	uc := newIndexFixture(docs, &fixedEncoder{degraded: true}, index)

	_, err := uc.Execute(context.Background(), IndexSectionInput{
		SectionID: "sec-1", Title: "Title", Body: sectionBody(),
	})

	assert.ErrorIs(t, err, ErrDegradedEmbedding)
	assert.Empty(t, index.items, "degraded vectors must never reach the index")
	assert.Empty(t, docs.docs, "no version bookkeeping for a failed section")
}

func TestIndexSection_RequiresSectionID(t *testing.T) {
	uc := newIndexFixture(newMemDocRepo(), &fixedEncoder{}, &captureIndex{})

	_, err := uc.Execute(context.Background(), IndexSectionInput{Title: "t", Body: "b"})

	assert.Error(t, err)
}

func TestIndexSection_EmptyBodyFails(t *testing.T) {
	uc := newIndexFixture(newMemDocRepo(), &fixedEncoder{}, &captureIndex{})

	_, err := uc.Execute(context.Background(), IndexSectionInput{
		SectionID: "sec-1", Title: "t", Body: "   ",
	})

	assert.Error(t, err)
}
