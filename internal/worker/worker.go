package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"handbook-rag/internal/domain"
	"handbook-rag/internal/usecase"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	jobTimeout          = 60 * time.Second
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute
)

// JobWorker drains the index job queue. On failure it backs off with
// doubling intervals up to maxBackoff; a successful job resets the poll
// interval.
type JobWorker struct {
	jobRepo      domain.IndexJobRepository
	indexUsecase usecase.IndexPassageUsecase
	logger       *slog.Logger
	stopChan     chan struct{}
	backoff      time.Duration
}

func NewJobWorker(
	jobRepo domain.IndexJobRepository,
	indexUsecase usecase.IndexPassageUsecase,
	logger *slog.Logger,
) *JobWorker {
	return &JobWorker{
		jobRepo:      jobRepo,
		indexUsecase: indexUsecase,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

func (w *JobWorker) Start() {
	w.logger.Info("Starting JobWorker")
	go w.run()
}

func (w *JobWorker) Stop() {
	w.logger.Info("Stopping JobWorker")
	close(w.stopChan)
}

func (w *JobWorker) run() {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processNextJob()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(defaultPollInterval)
			}
		}
	}
}

func (w *JobWorker) processNextJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	job, err := w.jobRepo.AcquireNextJob(ctx)
	if err != nil {
		w.logger.Error("Failed to acquire next job", "error", err)
		return
	}
	if job == nil {
		return // No jobs
	}

	w.logger.Info("Processing job", "job_id", job.ID, "type", job.JobType)

	var processErr error

	switch job.JobType {
	case domain.JobTypeIndexSection:
		processErr = w.processIndexSection(ctx, job)
	default:
		processErr = fmt.Errorf("unknown job type: %s", job.JobType)
	}

	status := domain.JobStatusCompleted
	var errMsg *string
	if processErr != nil {
		status = domain.JobStatusFailed
		msg := processErr.Error()
		errMsg = &msg
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("Worker backing off", "job_id", job.ID, "backoff", w.backoff, "error", processErr)
	} else {
		w.backoff = 0
		w.logger.Info("Job completed", "job_id", job.ID)
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, status, errMsg); err != nil {
		w.logger.Error("Failed to update job status", "job_id", job.ID, "error", err)
	}
}

func (w *JobWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (w *JobWorker) processIndexSection(ctx context.Context, job *domain.IndexJob) error {
	payload := job.Payload
	sectionID, ok := payload["section_id"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid section_id")
	}
	title, ok := payload["title"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid title")
	}
	body, ok := payload["body"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid body")
	}

	_, err := w.indexUsecase.Execute(ctx, usecase.IndexSectionInput{
		SectionID: sectionID,
		Title:     title,
		Body:      body,
	})
	return err
}
