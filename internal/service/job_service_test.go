package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/blogcaster/api/internal/model"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  []asynq.Option
	err   error
}

func (e *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	e.opts = opts
	return &asynq.TaskInfo{ID: "task-1", Queue: QueuePodcast}, nil
}

// testRedis connects to a local Redis on DB 15 or skips the test
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewPodcastTask(t *testing.T) {
	task, err := NewPodcastTask("job-1", "https://example.com/article")
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskTypePodcast {
		t.Errorf("Type = %s", task.Type())
	}

	var payload model.PodcastJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.JobID != "job-1" || payload.URL != "https://example.com/article" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestJobErrorFrom(t *testing.T) {
	got := JobErrorFrom(newPipelineError(KindNoAudioProduced, StageSynthesize, errors.New("empty")))
	if got.Code != "NO_AUDIO_PRODUCED" || got.Message != "Failed to generate podcast audio." {
		t.Errorf("JobErrorFrom = %+v", got)
	}

	got = JobErrorFrom(errors.New("unclassified"))
	if got.Code != string(KindGenerationFailed) || got.Message != genericFailureMessage {
		t.Errorf("JobErrorFrom(plain) = %+v", got)
	}
}

func TestJobLifecycle(t *testing.T) {
	rdb := testRedis(t)
	enq := &recordingEnqueuer{}
	svc := NewJobService(rdb, enq)
	ctx := context.Background()

	start, err := svc.StartPodcast(ctx, &model.PodcastRequest{URL: "https://example.com/article"})
	if err != nil {
		t.Fatalf("StartPodcast: %v", err)
	}
	t.Cleanup(func() { rdb.Del(ctx, jobKey(start.JobID)) })

	if start.Status != model.JobStatusQueued || len(enq.tasks) != 1 {
		t.Fatalf("start = %+v, tasks = %d", start, len(enq.tasks))
	}

	if _, err := svc.GetResult(ctx, start.JobID); !errors.Is(err, ErrJobNotCompleted) {
		t.Errorf("GetResult before completion err = %v", err)
	}

	if err := svc.UpdateJobProgress(ctx, start.JobID, 35, StageCompose); err != nil {
		t.Fatal(err)
	}
	status, err := svc.GetStatus(ctx, start.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != model.JobStatusRunning || status.Progress != 35 || status.StartedAt == nil {
		t.Errorf("status = %+v", status)
	}

	result := &model.PodcastResult{
		SourceURL: "https://example.com/article",
		Artifact:  model.PodcastArtifact{FileName: "podcast_0a1b2c3d.wav", Size: 240000},
	}
	if err := svc.CompleteJob(ctx, start.JobID, result); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetResult(ctx, start.JobID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.Artifact.FileName != "podcast_0a1b2c3d.wav" || got.Artifact.Size != 240000 {
		t.Errorf("result = %+v", got)
	}
}

func TestFailJob(t *testing.T) {
	rdb := testRedis(t)
	svc := NewJobService(rdb, &recordingEnqueuer{})
	ctx := context.Background()

	start, err := svc.StartPodcast(ctx, &model.PodcastRequest{URL: "https://example.com/article"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rdb.Del(ctx, jobKey(start.JobID)) })

	if err := svc.FailJob(ctx, start.JobID, model.JobError{Code: "TIMEOUT", Message: "The podcast generation timed out."}); err != nil {
		t.Fatal(err)
	}

	status, err := svc.GetStatus(ctx, start.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != model.JobStatusFailed || status.Error == nil || status.Error.Code != "TIMEOUT" {
		t.Errorf("status = %+v", status)
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	svc := NewJobService(testRedis(t), &recordingEnqueuer{})
	if _, err := svc.GetStatus(context.Background(), "does-not-exist"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}
