package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad input shape rejected before any job mutation.
	ErrValidation = errors.New("validation error")
	// ErrExtraction marks a media preprocessing failure.
	ErrExtraction = errors.New("extraction error")
	// ErrTranscription marks a transcription call failure or schema mismatch.
	ErrTranscription = errors.New("transcription error")
	// ErrNotFound marks an unknown job, segment, or anomaly identifier.
	ErrNotFound = errors.New("not found")
	// ErrExternalTool marks a failure of an external binary invocation.
	ErrExternalTool = errors.New("external tool error")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
