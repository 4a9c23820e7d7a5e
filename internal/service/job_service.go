package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/blogcaster/api/internal/model"
)

const (
	TaskTypePodcast = "podcast:generate"
	QueuePodcast    = "podcast"

	jobTTL = 24 * time.Hour
)

// TaskEnqueuer is the subset of asynq.Client the job service needs
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobService tracks queued podcast generations in Redis
type JobService struct {
	redis    *redis.Client
	enqueuer TaskEnqueuer
	now      func() time.Time
}

func NewJobService(redisClient *redis.Client, enqueuer TaskEnqueuer) *JobService {
	return &JobService{
		redis:    redisClient,
		enqueuer: enqueuer,
		now:      time.Now,
	}
}

// StartPodcast records a queued job and enqueues its task
func (s *JobService) StartPodcast(ctx context.Context, req *model.PodcastRequest) (*model.PodcastStartResponse, error) {
	jobID := uuid.New().String()
	now := s.now().UTC()

	job := &model.Job{
		ID:        jobID,
		URL:       req.URL,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := NewPodcastTask(jobID, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// Every failure is terminal for a run; the user resubmits instead
	_, err = s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(QueuePodcast),
		asynq.MaxRetry(0),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.PodcastStartResponse{
		JobID:     jobID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a job
func (s *JobService) GetStatus(ctx context.Context, jobID string) (*model.PodcastStatusResponse, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.PodcastStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// GetResult returns the result of a succeeded job
func (s *JobService) GetResult(ctx context.Context, jobID string) (*model.PodcastResult, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusSucceeded {
		return nil, ErrJobNotCompleted
	}

	var result model.PodcastResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// UpdateJobProgress updates job progress (called by worker)
func (s *JobService) UpdateJobProgress(ctx context.Context, jobID string, progress int, step string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := s.now().UTC()
		job.StartedAt = &now
	}

	return s.saveJob(ctx, job)
}

// CompleteJob marks job as succeeded (called by worker)
func (s *JobService) CompleteJob(ctx context.Context, jobID string, result *model.PodcastResult) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Progress = 100
	job.CurrentStep = ""
	job.Result = resultBytes
	now := s.now().UTC()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// FailJob marks job as failed (called by worker)
func (s *JobService) FailJob(ctx context.Context, jobID string, jobErr model.JobError) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Error = &jobErr
	now := s.now().UTC()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// GetJob loads a job record
func (s *JobService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

func (s *JobService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err()
}

func jobKey(jobID string) string {
	return fmt.Sprintf("podcast:job:%s", jobID)
}

// NewPodcastTask builds the asynq task for one job
func NewPodcastTask(jobID, url string) (*asynq.Task, error) {
	data, err := json.Marshal(model.PodcastJobPayload{JobID: jobID, URL: url})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePodcast, data), nil
}

// JobErrorFrom converts a pipeline failure into its user-facing form
func JobErrorFrom(err error) model.JobError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return model.JobError{Code: string(pe.Kind), Message: pe.UserMessage()}
	}
	return model.JobError{Code: string(KindGenerationFailed), Message: genericFailureMessage}
}
