package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"subfix/internal/services"
)

// Extractor converts video input into an audio-only representation suitable
// for the transcription call.
type Extractor struct {
	ffmpegBinary string
}

// NewExtractor returns an Extractor using the given ffmpeg binary name or
// path. An empty value falls back to "ffmpeg" resolved from PATH.
func NewExtractor(ffmpegBinary string) *Extractor {
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Extractor{ffmpegBinary: binary}
}

// ResolveFFmpeg reports the ffmpeg binary path the extractor will execute,
// or an error if it cannot be found.
func (e *Extractor) ResolveFFmpeg() (string, error) {
	path, err := exec.LookPath(e.ffmpegBinary)
	if err != nil {
		return "", fmt.Errorf("ffmpeg binary %q not found: %w", e.ffmpegBinary, err)
	}
	return path, nil
}

// ExtractAudio extracts the full audio stream from source into dest as a
// mono 16kHz WAV. The caller owns the lifetime of dest.
func (e *Extractor) ExtractAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := exec.CommandContext(ctx, e.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		wrapped := fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
		return services.Wrap(services.ErrExtraction, "preprocess", "extract audio", "", wrapped)
	}
	return nil
}
