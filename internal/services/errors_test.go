package services_test

import (
	"context"
	"errors"
	"testing"

	"subfix/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTranscription, "transcribe", "parse response", "bad payload", base)
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithStage(ctx, "analyzing")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("job id not preserved: %q %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "analyzing" {
		t.Fatalf("stage not preserved: %q %v", stage, ok)
	}
}
