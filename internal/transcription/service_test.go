package transcription_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"subfix/internal/services"
	"subfix/internal/transcription"
)

type fakeCompleter struct {
	response string
	err      error

	gotUserPrompt string
	gotFormat     string
}

func (f *fakeCompleter) CompleteAudioJSON(_ context.Context, _, userPrompt string, _ []byte, format string) (string, error) {
	f.gotUserPrompt = userPrompt
	f.gotFormat = format
	return f.response, f.err
}

func TestTranscribeParsesSegments(t *testing.T) {
	fake := &fakeCompleter{response: `[
		{"id": 1, "start": "00:00:00,000", "end": "00:00:02,000", "text": "Hello world"},
		{"id": 2, "start": "00:00:02,000", "end": "00:00:04,000", "text": " Second cue "}
	]`}
	svc := transcription.NewService(fake, nil)

	segments, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/mp3", "tech talk")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[1].Text != "Second cue" {
		t.Fatalf("text not trimmed: %q", segments[1].Text)
	}
	if segments[0].OriginalText != "Hello world" {
		t.Fatal("audit copy not captured")
	}
	if fake.gotFormat != "mp3" {
		t.Fatalf("unexpected audio format: %q", fake.gotFormat)
	}
	if !strings.Contains(fake.gotUserPrompt, "tech talk") {
		t.Fatalf("user context not substituted: %q", fake.gotUserPrompt)
	}
}

func TestTranscribeDefaultContextPlaceholder(t *testing.T) {
	fake := &fakeCompleter{response: `[]`}
	svc := transcription.NewService(fake, nil)

	segments, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/wav", "  ")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected valid empty result, got %d segments", len(segments))
	}
	if strings.Contains(fake.gotUserPrompt, "Content context:  ") {
		t.Fatalf("blank context leaked into prompt: %q", fake.gotUserPrompt)
	}
}

func TestTranscribeRejectsMalformedResponses(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"not json", "transcription unavailable"},
		{"object instead of array", `{"segments": []}`},
		{"missing timestamps", `[{"id": 1, "start": "0:00", "end": "00:00:02,000", "text": "hi"}]`},
		{"zero id", `[{"id": 0, "start": "00:00:00,000", "end": "00:00:02,000", "text": "hi"}]`},
		{"empty text", `[{"id": 1, "start": "00:00:00,000", "end": "00:00:02,000", "text": "  "}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := transcription.NewService(&fakeCompleter{response: tc.response}, nil)
			_, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/wav", "")
			if !errors.Is(err, services.ErrTranscription) {
				t.Fatalf("expected transcription error, got %v", err)
			}
		})
	}
}

func TestTranscribeWrapsCallFailure(t *testing.T) {
	svc := transcription.NewService(&fakeCompleter{err: errors.New("boom")}, nil)
	_, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/wav", "")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestTranscribeRequiresAudio(t *testing.T) {
	svc := transcription.NewService(&fakeCompleter{response: `[]`}, nil)
	if _, err := svc.Transcribe(context.Background(), nil, "audio/wav", ""); !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}
