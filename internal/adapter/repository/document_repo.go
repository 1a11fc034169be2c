package repository

import (
	"context"
	"errors"
	"fmt"

	"handbook-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type handbookDocumentRepository struct {
	pool *pgxpool.Pool
}

// NewHandbookDocumentRepository creates a new HandbookDocumentRepository.
func NewHandbookDocumentRepository(pool *pgxpool.Pool) domain.HandbookDocumentRepository {
	return &handbookDocumentRepository{pool: pool}
}

func (r *handbookDocumentRepository) getExecutor(ctx context.Context) interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
} {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

func (r *handbookDocumentRepository) GetBySectionID(ctx context.Context, sectionID string) (*domain.HandbookDocument, error) {
	query := `
		SELECT id, section_id, current_version_id, created_at, updated_at
		FROM handbook_documents
		WHERE section_id = $1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, sectionID)

	var doc domain.HandbookDocument
	err := row.Scan(&doc.ID, &doc.SectionID, &doc.CurrentVersionID, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

func (r *handbookDocumentRepository) CreateDocument(ctx context.Context, doc *domain.HandbookDocument) error {
	query := `
		INSERT INTO handbook_documents (id, section_id, current_version_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, doc.ID, doc.SectionID, doc.CurrentVersionID)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *handbookDocumentRepository) UpdateCurrentVersion(ctx context.Context, docID uuid.UUID, versionID uuid.UUID) error {
	query := `
		UPDATE handbook_documents
		SET current_version_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, versionID, docID)
	if err != nil {
		return fmt.Errorf("failed to update current version: %w", err)
	}
	return nil
}

func (r *handbookDocumentRepository) GetLatestVersion(ctx context.Context, docID uuid.UUID) (*domain.HandbookDocumentVersion, error) {
	query := `
		SELECT id, document_id, version_number, title, source_hash, chunker_version, embedder_version, passage_count, created_at
		FROM handbook_document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
		LIMIT 1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, docID)

	var ver domain.HandbookDocumentVersion
	var title pgtype.Text
	err := row.Scan(&ver.ID, &ver.DocumentID, &ver.VersionNumber, &title, &ver.SourceHash, &ver.ChunkerVersion, &ver.EmbedderVersion, &ver.PassageCount, &ver.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	ver.Title = title.String

	return &ver, nil
}

func (r *handbookDocumentRepository) CreateVersion(ctx context.Context, version *domain.HandbookDocumentVersion) error {
	query := `
		INSERT INTO handbook_document_versions (id, document_id, version_number, title, source_hash, chunker_version, embedder_version, passage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, version.ID, version.DocumentID, version.VersionNumber, version.Title, version.SourceHash, version.ChunkerVersion, version.EmbedderVersion, version.PassageCount)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}
