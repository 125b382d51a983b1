package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the orchestration boundary. Adapters wrap these with
// their own context; callers test with errors.Is.
var (
	ErrNotFound         = errors.New("domain: session not found")
	ErrEmptyInput       = errors.New("domain: empty input")
	ErrPermissionDenied = errors.New("domain: microphone permission denied")
	ErrTransportFailure = errors.New("domain: transport failure")
	ErrSchemaViolation  = errors.New("domain: schema violation")
	ErrEmptyResponse    = errors.New("domain: empty response")
	ErrBusy             = errors.New("domain: analysis already in progress")
	ErrNoClip           = errors.New("domain: no recording attached")
	ErrNoSuggestion     = errors.New("domain: no suggestion pending")
	ErrCaptureActive    = errors.New("domain: capture already active")
	ErrCaptureInactive  = errors.New("domain: no active capture")
)

// ValidationError reports a precondition failure caught before any request
// is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" && e.Reason == "" {
		return ErrEmptyInput.Error()
	}
	return fmt.Sprintf("domain: invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrEmptyInput
}
