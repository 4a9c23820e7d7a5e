package service

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobNotCompleted = errors.New("job not completed")
)

// ErrorKind classifies a pipeline failure
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindMissingCredentials ErrorKind = "MISSING_CREDENTIALS"
	KindExtractionFailed   ErrorKind = "EXTRACTION_FAILED"
	KindGenerationFailed   ErrorKind = "GENERATION_FAILED"
	KindNoAudioProduced    ErrorKind = "NO_AUDIO_PRODUCED"
	KindScriptTooLong      ErrorKind = "SCRIPT_TOO_LONG"
	KindTimeout            ErrorKind = "TIMEOUT"
	KindPersistFailed      ErrorKind = "PERSIST_FAILED"
)

// Pipeline stages, used for logs and job progress
const (
	StageCredentials = "credentials"
	StageValidate    = "validate"
	StageExtract     = "extract"
	StageCompose     = "compose"
	StageGuard       = "guard"
	StageSynthesize  = "synthesize"
	StagePersist     = "persist"
)

const genericFailureMessage = "An error occurred while generating the podcast."

// PipelineError is the single error type returned by PodcastService.Generate
type PipelineError struct {
	Kind  ErrorKind
	Stage string
	Err   error

	// message overrides the kind's default user message
	message string
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Stage)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches another *PipelineError by kind, so callers can write
// errors.Is(err, &PipelineError{Kind: KindTimeout}).
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Stage == "" || t.Stage == e.Stage)
}

// UserMessage is the text shown to end users. Causes are never included.
func (e *PipelineError) UserMessage() string {
	if e.message != "" {
		return e.message
	}
	switch e.Kind {
	case KindInvalidInput:
		return "Please enter a valid URL."
	case KindNoAudioProduced:
		return "Failed to generate podcast audio."
	case KindScriptTooLong:
		return "The generated script exceeded the 2000 character limit."
	case KindTimeout:
		return "The podcast generation timed out."
	default:
		return genericFailureMessage
	}
}

func newPipelineError(kind ErrorKind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the kind of a pipeline error, or "" for any other error
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
