package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"handbook-rag/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// embedConcurrency bounds concurrent embedding calls per section.
	embedConcurrency = 4
	// embedRatePerSecond throttles requests against the embedding service.
	embedRatePerSecond = 10
)

// IndexSectionInput is a handbook section submitted for indexing.
type IndexSectionInput struct {
	SectionID string
	Title     string
	Body      string
}

// IndexSectionOutput reports what indexing did with the section.
type IndexSectionOutput struct {
	SectionID    string
	Skipped      bool // source hash unchanged, nothing re-embedded
	PassageCount int
	VersionID    uuid.UUID
}

// IndexPassageUsecase chunks a handbook section, embeds every passage, and
// writes vectors plus version bookkeeping. Re-submitting unchanged content
// is a no-op.
type IndexPassageUsecase interface {
	Execute(ctx context.Context, input IndexSectionInput) (*IndexSectionOutput, error)
}

type indexPassageUsecase struct {
	documents  domain.HandbookDocumentRepository
	txManager  domain.TransactionManager
	chunker    domain.Chunker
	hashPolicy domain.SourceHashPolicy
	encoder    domain.VectorEncoder
	index      domain.VectorIndex
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewIndexPassageUsecase wires the section indexing pipeline.
func NewIndexPassageUsecase(
	documents domain.HandbookDocumentRepository,
	txManager domain.TransactionManager,
	chunker domain.Chunker,
	hashPolicy domain.SourceHashPolicy,
	encoder domain.VectorEncoder,
	index domain.VectorIndex,
	logger *slog.Logger,
) IndexPassageUsecase {
	return &indexPassageUsecase{
		documents:  documents,
		txManager:  txManager,
		chunker:    chunker,
		hashPolicy: hashPolicy,
		encoder:    encoder,
		index:      index,
		limiter:    rate.NewLimiter(rate.Limit(embedRatePerSecond), embedConcurrency),
		logger:     logger,
	}
}

func (u *indexPassageUsecase) Execute(ctx context.Context, input IndexSectionInput) (*IndexSectionOutput, error) {
	start := time.Now()

	if input.SectionID == "" {
		return nil, fmt.Errorf("section_id is required")
	}

	sourceHash := u.hashPolicy.Compute(input.Title, input.Body)

	doc, err := u.documents.GetBySectionID(ctx, input.SectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up section: %w", err)
	}

	if doc != nil {
		latest, err := u.documents.GetLatestVersion(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest version: %w", err)
		}
		if latest != nil &&
			latest.SourceHash == sourceHash &&
			latest.ChunkerVersion == string(u.chunker.Version()) &&
			latest.EmbedderVersion == u.encoder.Version() {
			u.logger.Info("section_unchanged_skipping_index",
				slog.String("section_id", input.SectionID),
				slog.String("source_hash", sourceHash))
			return &IndexSectionOutput{
				SectionID:    input.SectionID,
				Skipped:      true,
				PassageCount: latest.PassageCount,
				VersionID:    latest.ID,
			}, nil
		}
	}

	passages, err := u.chunker.Chunk(input.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk section: %w", err)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("section %s produced no passages", input.SectionID)
	}

	items, err := u.embedPassages(ctx, input, passages)
	if err != nil {
		return nil, err
	}

	if err := u.index.Upsert(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	output := &IndexSectionOutput{SectionID: input.SectionID, PassageCount: len(passages)}

	err = u.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if doc == nil {
			doc = &domain.HandbookDocument{
				ID:        uuid.New(),
				SectionID: input.SectionID,
			}
			if err := u.documents.CreateDocument(txCtx, doc); err != nil {
				return fmt.Errorf("failed to create document: %w", err)
			}
		}

		versionNumber := 1
		latest, err := u.documents.GetLatestVersion(txCtx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to load latest version: %w", err)
		}
		if latest != nil {
			versionNumber = latest.VersionNumber + 1
		}

		version := &domain.HandbookDocumentVersion{
			ID:              uuid.New(),
			DocumentID:      doc.ID,
			VersionNumber:   versionNumber,
			Title:           input.Title,
			SourceHash:      sourceHash,
			ChunkerVersion:  string(u.chunker.Version()),
			EmbedderVersion: u.encoder.Version(),
			PassageCount:    len(passages),
		}
		if err := u.documents.CreateVersion(txCtx, version); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}
		if err := u.documents.UpdateCurrentVersion(txCtx, doc.ID, version.ID); err != nil {
			return fmt.Errorf("failed to update current version: %w", err)
		}
		output.VersionID = version.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("section_indexed",
		slog.String("section_id", input.SectionID),
		slog.Int("passage_count", len(passages)),
		slog.String("source_hash", sourceHash),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return output, nil
}

// embedPassages encodes all passages concurrently under a shared rate limit.
// A degraded (synthetic) embedding fails the whole section: random vectors
// are acceptable for queries but must never be written into the index.
func (u *indexPassageUsecase) embedPassages(ctx context.Context, input IndexSectionInput, passages []domain.Passage) ([]domain.IndexItem, error) {
	items := make([]domain.IndexItem, len(passages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, passage := range passages {
		g.Go(func() error {
			if err := u.limiter.Wait(gctx); err != nil {
				return err
			}
			emb, err := u.encoder.Encode(gctx, passage.Content)
			if err != nil {
				return fmt.Errorf("failed to embed passage %d: %w", passage.Ordinal, err)
			}
			if emb.Degraded {
				return fmt.Errorf("passage %d: %w", passage.Ordinal, ErrDegradedEmbedding)
			}
			items[i] = domain.IndexItem{
				ID:     fmt.Sprintf("%s-%d", input.SectionID, passage.Ordinal),
				Vector: emb.Vector,
				Metadata: map[string]string{
					"text":       passage.Content,
					"title":      input.Title,
					"section_id": input.SectionID,
					"ordinal":    strconv.Itoa(passage.Ordinal),
					"hash":       passage.Hash,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
