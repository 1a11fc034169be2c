package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"handbook-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IndexJobRepository struct {
	db *pgxpool.Pool
}

func NewIndexJobRepository(db *pgxpool.Pool) domain.IndexJobRepository {
	return &IndexJobRepository{db: db}
}

func (r *IndexJobRepository) Enqueue(ctx context.Context, job *domain.IndexJob) error {
	query := `
		INSERT INTO index_jobs (id, job_type, payload, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	payloadBytes, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		job.ID,
		job.JobType,
		payloadBytes,
		job.Status,
		job.ErrorMessage,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// AcquireNextJob claims the oldest new job and flips it to processing in one
// statement, so concurrent workers never pick the same job.
func (r *IndexJobRepository) AcquireNextJob(ctx context.Context) (*domain.IndexJob, error) {
	cteQuery := `
		WITH next_job AS (
			SELECT id
			FROM index_jobs
			WHERE status = 'new'
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE index_jobs
		SET status = 'processing', updated_at = $1
		FROM next_job
		WHERE index_jobs.id = next_job.id
		RETURNING index_jobs.id, index_jobs.job_type, index_jobs.payload, index_jobs.status, index_jobs.error_message, index_jobs.created_at, index_jobs.updated_at
	`

	var job domain.IndexJob
	var payloadBytes []byte

	err := r.db.QueryRow(ctx, cteQuery, time.Now()).Scan(
		&job.ID,
		&job.JobType,
		&payloadBytes,
		&job.Status,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to acquire next job: %w", err)
	}

	if err := json.Unmarshal(payloadBytes, &job.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &job, nil
}

func (r *IndexJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error {
	query := `
		UPDATE index_jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, status, errorMessage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}
