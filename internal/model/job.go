package model

import "time"

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents a queued podcast generation
type Job struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *JobError  `json:"error,omitempty"`
	Result      []byte     `json:"result,omitempty"` // PodcastResult as JSON
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// JobError is the classified failure of a job, safe to show to users.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PodcastJobPayload is the asynq task payload
type PodcastJobPayload struct {
	JobID string `json:"jobId"`
	URL   string `json:"url"`
}

// PodcastStartResponse is returned when a job is queued
type PodcastStartResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// PodcastStatusResponse reports job progress
type PodcastStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *JobError  `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
