package media_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"subfix/internal/media"
	"subfix/internal/services"
)

func TestNeedsExtraction(t *testing.T) {
	cases := []struct {
		mime string
		want bool
	}{
		{"video/mp4", true},
		{"video/x-matroska", true},
		{" Video/QuickTime ", true},
		{"audio/wav", false},
		{"audio/mp3", false},
		{"application/octet-stream", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := media.NeedsExtraction(tc.mime); got != tc.want {
			t.Errorf("NeedsExtraction(%q) = %v, want %v", tc.mime, got, tc.want)
		}
	}
}

func TestTypeFromName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"clip.MP4", "video/mp4"},
		{"song.mp3", "audio/mp3"},
		{"take.wav", "audio/wav"},
		{"unknown.bin", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := media.TypeFromName(tc.name); got != tc.want {
			t.Errorf("TypeFromName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestAudioFormat(t *testing.T) {
	if got := media.AudioFormat("audio/mpeg"); got != "mp3" {
		t.Fatalf("AudioFormat(audio/mpeg) = %q", got)
	}
	if got := media.AudioFormat("video/mp4"); got != "wav" {
		t.Fatalf("AudioFormat fallback = %q", got)
	}
}

func TestExtractAudioFailureClassified(t *testing.T) {
	extractor := media.NewExtractor("definitely-not-ffmpeg-binary")
	dest := filepath.Join(t.TempDir(), "out.wav")
	err := extractor.ExtractAudio(context.Background(), "missing.mp4", dest)
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction marker, got %v", err)
	}
}
