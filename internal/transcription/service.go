package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/services"
	"subfix/internal/services/llm"
	"subfix/internal/srt"
)

// AudioCompleter is the slice of the model client the transcriber needs.
type AudioCompleter interface {
	CompleteAudioJSON(ctx context.Context, systemPrompt, userPrompt string, audio []byte, format string) (string, error)
}

// Service issues the segment-generation request to the external model and
// parses its structured response into subtitle segments. One request per
// job; the call is not internally batched.
type Service struct {
	client AudioCompleter
	logger *slog.Logger
}

// NewService constructs a transcription service.
func NewService(client AudioCompleter, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logging.NewComponentLogger(logger, "transcription"),
	}
}

type transcriptEntry struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Transcribe sends the full audio payload with the instruction prompt and
// returns the ordered segment sequence. Malformed or non-conforming
// responses fail with a transcription error, which is fatal to the job.
func (s *Service) Transcribe(ctx context.Context, audio []byte, mimeType, userContext string) ([]jobs.Segment, error) {
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "request", "empty audio payload", nil)
	}

	content, err := s.client.CompleteAudioJSON(ctx, systemPrompt, userPrompt(userContext), audio, media.AudioFormat(mimeType))
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "model call", "", err)
	}

	var entries []transcriptEntry
	if err := llm.DecodeJSON(content, &entries); err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "parse response", "", err)
	}

	segments := make([]jobs.Segment, 0, len(entries))
	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, services.Wrap(services.ErrTranscription, "transcribe", "validate response", fmt.Sprintf("entry %d", i), err)
		}
		text := strings.TrimSpace(entry.Text)
		segments = append(segments, jobs.Segment{
			ID:    entry.ID,
			Start: entry.Start,
			End:   entry.End,
			Text:  text,
			// Audit copy taken before any correction touches the text.
			OriginalText: text,
		})
	}

	s.logger.Info("transcription complete", logging.Int("segments", len(segments)))
	return segments, nil
}

func validateEntry(entry transcriptEntry) error {
	if entry.ID <= 0 {
		return fmt.Errorf("non-positive segment id %d", entry.ID)
	}
	if !srt.ValidTimestamp(entry.Start) {
		return fmt.Errorf("invalid start timestamp %q", entry.Start)
	}
	if !srt.ValidTimestamp(entry.End) {
		return fmt.Errorf("invalid end timestamp %q", entry.End)
	}
	if strings.TrimSpace(entry.Text) == "" {
		return fmt.Errorf("empty text for segment %d", entry.ID)
	}
	return nil
}
