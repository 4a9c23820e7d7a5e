package handler

import (
	"context"
	"encoding/json"

	"github.com/blogcaster/api/internal/model"
)

// StatusReader reads the current state of a job
type StatusReader interface {
	GetStatus(ctx context.Context, jobID string) (*model.PodcastStatusResponse, error)
}

// JobSnapshot encodes the current state of a job as the first message for
// a new subscriber. Unknown jobs yield nil.
func JobSnapshot(ctx context.Context, jobs StatusReader, jobID string) []byte {
	status, err := jobs.GetStatus(ctx, jobID)
	if err != nil {
		return nil
	}

	var msg interface{}
	switch status.Status {
	case model.JobStatusFailed:
		if status.Error == nil {
			return nil
		}
		msg = model.WSErrorMessage{
			Type:  model.WSMessageTypeError,
			JobID: jobID,
			Error: *status.Error,
		}
	default:
		msg = model.WSProgressMessage{
			Type:        model.WSMessageTypeProgress,
			JobID:       jobID,
			Progress:    status.Progress,
			Status:      status.Status,
			CurrentStep: status.CurrentStep,
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return data
}
