package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/blogcaster/api/internal/model"
	"github.com/blogcaster/api/internal/service"
)

// PodcastGenerator runs the pipeline with stage callbacks
type PodcastGenerator interface {
	GenerateWithProgress(ctx context.Context, req *model.PodcastRequest, progress service.ProgressFunc) (*model.PodcastResult, error)
}

// JobStore persists job state transitions
type JobStore interface {
	UpdateJobProgress(ctx context.Context, jobID string, progress int, step string) error
	CompleteJob(ctx context.Context, jobID string, result *model.PodcastResult) error
	FailJob(ctx context.Context, jobID string, jobErr model.JobError) error
}

// Broadcaster pushes job events to live subscribers
type Broadcaster interface {
	BroadcastProgress(jobID string, progress int, status model.JobStatus, step string)
	BroadcastComplete(jobID string, result interface{})
	BroadcastError(jobID string, jobErr model.JobError)
}

// ArtifactRemover deletes a persisted audio file by name
type ArtifactRemover interface {
	Remove(name string) error
}

// PodcastWorker processes queued podcast jobs
type PodcastWorker struct {
	generator PodcastGenerator
	jobs      JobStore
	hub       Broadcaster
	files     ArtifactRemover
	logger    *slog.Logger
}

// WorkerOption configures a PodcastWorker
type WorkerOption func(*PodcastWorker)

// WithArtifactRemover deletes the audio file of a job whose result could not be saved
func WithArtifactRemover(r ArtifactRemover) WorkerOption {
	return func(w *PodcastWorker) { w.files = r }
}

// NewPodcastWorker creates a new podcast worker
func NewPodcastWorker(generator PodcastGenerator, jobs JobStore, hub Broadcaster, logger *slog.Logger, opts ...WorkerOption) *PodcastWorker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &PodcastWorker{
		generator: generator,
		jobs:      jobs,
		hub:       hub,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ProcessTask handles one podcast:generate task. Pipeline failures are
// recorded on the job and reported to asynq with SkipRetry.
func (w *PodcastWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.PodcastJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID := payload.JobID
	log := w.logger.With("job_id", jobID)
	log.Info("starting podcast job", "url", payload.URL)

	result, err := w.generator.GenerateWithProgress(ctx, &model.PodcastRequest{URL: payload.URL}, func(stage string, progress int) {
		w.updateProgress(ctx, jobID, progress, stage)
	})
	if err != nil {
		w.failJob(ctx, jobID, service.JobErrorFrom(err))
		return fmt.Errorf("podcast job %s: %v: %w", jobID, err, asynq.SkipRetry)
	}

	if err := w.jobs.CompleteJob(ctx, jobID, result); err != nil {
		log.Error("failed to save job result", "error", err)
		w.discardArtifact(log, result)
		w.failJob(ctx, jobID, model.JobError{
			Code:    string(service.KindPersistFailed),
			Message: "An error occurred while generating the podcast.",
		})
		return fmt.Errorf("failed to save result: %v: %w", err, asynq.SkipRetry)
	}

	w.hub.BroadcastComplete(jobID, result)
	log.Info("podcast job completed", "file", result.Artifact.FileName)
	return nil
}

// discardArtifact removes a file no job result points to
func (w *PodcastWorker) discardArtifact(log *slog.Logger, result *model.PodcastResult) {
	if w.files == nil {
		return
	}
	if err := w.files.Remove(result.Artifact.FileName); err != nil {
		log.Warn("failed to remove orphaned podcast", "file", result.Artifact.FileName, "error", err)
		return
	}
	log.Info("removed orphaned podcast", "file", result.Artifact.FileName)
}

func (w *PodcastWorker) updateProgress(ctx context.Context, jobID string, progress int, step string) {
	if err := w.jobs.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
		w.logger.Warn("failed to update progress", "job_id", jobID, "error", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *PodcastWorker) failJob(ctx context.Context, jobID string, jobErr model.JobError) {
	if err := w.jobs.FailJob(ctx, jobID, jobErr); err != nil {
		w.logger.Warn("failed to mark job as failed", "job_id", jobID, "error", err)
	}
	w.hub.BroadcastError(jobID, jobErr)
}
