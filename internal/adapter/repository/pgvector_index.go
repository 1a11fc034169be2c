package repository

import (
	"context"
	"fmt"
	"strconv"

	"handbook-rag/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex implements the vector index on Postgres with the pgvector
// extension. It is the self-hosted alternative to the managed HTTP index and
// is selected with INDEX_BACKEND=pgvector.
type PgvectorIndex struct {
	pool *pgxpool.Pool
}

// NewPgvectorIndex creates a vector index over the handbook_passages table.
func NewPgvectorIndex(pool *pgxpool.Pool) *PgvectorIndex {
	return &PgvectorIndex{pool: pool}
}

// Query runs cosine nearest-neighbor search. The returned score is
// 1 - cosine distance, matching the similarity convention of the managed
// index.
func (p *PgvectorIndex) Query(ctx context.Context, q domain.IndexQuery) ([]domain.IndexMatch, error) {
	query := `
		SELECT id, section_id, title, ordinal, content,
		       1 - (embedding <=> $1) AS score
		FROM handbook_passages
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(q.Vector), q.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer rows.Close()

	var matches []domain.IndexMatch
	for rows.Next() {
		var (
			id, sectionID, title, content string
			ordinal                       int
			score                         float64
		)
		if err := rows.Scan(&id, &sectionID, &title, &ordinal, &content, &score); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		match := domain.IndexMatch{ID: id, Score: score}
		if q.IncludeMetadata {
			match.Metadata = map[string]string{
				"text":       content,
				"title":      title,
				"section_id": sectionID,
				"ordinal":    strconv.Itoa(ordinal),
			}
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return matches, nil
}

// Upsert writes passages and their vectors, replacing rows with the same ID.
func (p *PgvectorIndex) Upsert(ctx context.Context, items []domain.IndexItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO handbook_passages (id, section_id, title, ordinal, content, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET section_id = EXCLUDED.section_id,
		    title = EXCLUDED.title,
		    ordinal = EXCLUDED.ordinal,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    updated_at = NOW()
	`
	for _, item := range items {
		ordinal, err := strconv.Atoi(item.Metadata["ordinal"])
		if err != nil {
			return fmt.Errorf("item %s: invalid ordinal: %w", item.ID, err)
		}
		batch.Queue(query,
			item.ID,
			item.Metadata["section_id"],
			item.Metadata["title"],
			ordinal,
			item.Metadata["text"],
			pgvector.NewVector(item.Vector),
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()
	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert passage: %w", err)
		}
	}
	return nil
}

var _ domain.VectorIndex = (*PgvectorIndex)(nil)
