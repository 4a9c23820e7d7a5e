package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestPipelineErrorUserMessage(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindInvalidInput, "Please enter a valid URL."},
		{KindNoAudioProduced, "Failed to generate podcast audio."},
		{KindScriptTooLong, "The generated script exceeded the 2000 character limit."},
		{KindTimeout, "The podcast generation timed out."},
		{KindExtractionFailed, genericFailureMessage},
		{KindGenerationFailed, genericFailureMessage},
		{KindPersistFailed, genericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := newPipelineError(tt.kind, StageExtract, errors.New("secret cause"))
			if got := err.UserMessage(); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipelineErrorUnwrapAndIs(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = fmt.Errorf("run: %w", newPipelineError(KindExtractionFailed, StageExtract, cause))

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	if !errors.Is(err, &PipelineError{Kind: KindExtractionFailed}) {
		t.Error("kind match failed")
	}
	if errors.Is(err, &PipelineError{Kind: KindExtractionFailed, Stage: StageCompose}) {
		t.Error("stage mismatch should not match")
	}
	if errors.Is(err, &PipelineError{Kind: KindTimeout}) {
		t.Error("different kind should not match")
	}
	if KindOf(err) != KindExtractionFailed {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if KindOf(cause) != "" {
		t.Error("KindOf on a plain error should be empty")
	}
}
