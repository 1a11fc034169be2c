package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HandbookDocument tracks one handbook section known to the indexer.
type HandbookDocument struct {
	ID               uuid.UUID
	SectionID        string
	CurrentVersionID *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HandbookDocumentVersion is an immutable indexed snapshot of a section.
type HandbookDocumentVersion struct {
	ID              uuid.UUID
	DocumentID      uuid.UUID
	VersionNumber   int
	Title           string
	SourceHash      string
	ChunkerVersion  string
	EmbedderVersion string
	PassageCount    int
	CreatedAt       time.Time
}

// HandbookDocumentRepository manages sections and their indexed versions.
type HandbookDocumentRepository interface {
	// GetBySectionID returns nil, nil when the section is unknown.
	GetBySectionID(ctx context.Context, sectionID string) (*HandbookDocument, error)
	CreateDocument(ctx context.Context, doc *HandbookDocument) error
	UpdateCurrentVersion(ctx context.Context, docID, versionID uuid.UUID) error
	// GetLatestVersion returns nil, nil when no version exists yet.
	GetLatestVersion(ctx context.Context, docID uuid.UUID) (*HandbookDocumentVersion, error)
	CreateVersion(ctx context.Context, version *HandbookDocumentVersion) error
}

// Index job lifecycle states.
const (
	JobStatusNew        = "new"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobTypeIndexSection enqueues a handbook section for (re-)indexing.
const JobTypeIndexSection = "index_section"

// IndexJob is a queued indexing task.
type IndexJob struct {
	ID           uuid.UUID
	JobType      string
	Payload      map[string]interface{}
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IndexJobRepository is the persistent job queue backing the index worker.
type IndexJobRepository interface {
	Enqueue(ctx context.Context, job *IndexJob) error
	// AcquireNextJob atomically claims the oldest new job, or returns
	// nil, nil when the queue is empty.
	AcquireNextJob(ctx context.Context) (*IndexJob, error)
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status string, errorMessage *string) error
}

// TransactionManager runs a function inside a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
