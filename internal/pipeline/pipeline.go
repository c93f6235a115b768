// Package pipeline drives one uploaded file through extraction,
// transcription, and analysis, recording progress on the job as it goes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/services"
)

// Transcriber converts raw audio bytes into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, userContext string) ([]jobs.Segment, error)
}

// Analyzer produces the anomaly collection for a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, segments []jobs.Segment, userContext string) []jobs.Anomaly
}

// Pipeline runs jobs end to end. Each job gets its own goroutine; failures
// are recorded on the job and never crash the daemon.
type Pipeline struct {
	store       *jobs.Store
	extractor   *media.Extractor
	transcriber Transcriber
	analyzer    Analyzer
	logger      *slog.Logger

	wg sync.WaitGroup
}

func New(store *jobs.Store, extractor *media.Extractor, transcriber Transcriber, analyzer Analyzer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:       store,
		extractor:   extractor,
		transcriber: transcriber,
		analyzer:    analyzer,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Launch starts processing the job in the background and returns
// immediately. The caller observes progress through the store. The job
// outlives the caller's context: cancellation is detached so an upload
// request finishing does not abort its pipeline.
func (p *Pipeline) Launch(ctx context.Context, job *jobs.Job) {
	ctx = context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(ctx, job)
	}()
}

// Wait blocks until every launched job has finished. Used during daemon
// shutdown so in-flight jobs can reach a terminal state.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Run processes one job synchronously. Any error, including a panic inside
// a stage, marks the job failed with the error message; the job is never
// left in a non-terminal state by a completed Run call.
func (p *Pipeline) Run(ctx context.Context, job *jobs.Job) {
	ctx = services.WithJobID(ctx, job.ID)
	logger := p.logger.With(logging.String("job_id", job.ID), logging.String("file", job.FileName))

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pipeline panic: %v", r)
			}
		}()
		return p.process(ctx, job, logger)
	}()
	if err == nil {
		return
	}

	logger.Error("job failed", logging.Error(err))
	if storeErr := p.store.SetError(ctx, job.ID, err.Error()); storeErr != nil {
		logger.Error("failed to record job error", logging.Error(storeErr))
	}
}

func (p *Pipeline) process(ctx context.Context, job *jobs.Job, logger *slog.Logger) error {
	logger.Info("job started", logging.String("mime_type", job.MimeType))

	if err := p.setStatus(ctx, job.ID, jobs.StatusUploading, 5, "Receiving upload"); err != nil {
		return err
	}
	if err := p.setStatus(ctx, job.ID, jobs.StatusProcessing, 10, "Preparing media"); err != nil {
		return err
	}

	audioPath := job.SourcePath
	audioMime := job.MimeType
	if media.NeedsExtraction(job.MimeType) {
		extracted, err := p.extractAudio(ctx, job)
		if err != nil {
			return err
		}
		defer os.Remove(extracted)
		audioPath = extracted
		audioMime = "audio/wav"
		if err := p.setStatus(ctx, job.ID, jobs.StatusProcessing, 20, "Audio extracted"); err != nil {
			return err
		}
	}

	if err := p.setStatus(ctx, job.ID, jobs.StatusTranscribing, 30, "Transcribing audio"); err != nil {
		return err
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return services.Wrap(services.ErrTranscription, "transcribing", "read audio", "reading audio file", err)
	}
	segments, err := p.transcriber.Transcribe(services.WithStage(ctx, "transcribing"), audio, audioMime, job.UserContext)
	if err != nil {
		return err
	}
	logger.Info("transcription complete", logging.Int("segments", len(segments)))
	if err := p.setStatus(ctx, job.ID, jobs.StatusTranscribing, 70, "Transcription complete"); err != nil {
		return err
	}

	if err := p.setStatus(ctx, job.ID, jobs.StatusAnalyzing, 85, "Analyzing transcript"); err != nil {
		return err
	}
	anomalies := p.analyzer.Analyze(services.WithStage(ctx, "analyzing"), segments, job.UserContext)
	logger.Info("analysis complete", logging.Int("anomalies", len(anomalies)))

	if err := p.store.SetSegments(ctx, job.ID, segments); err != nil {
		return err
	}
	if err := p.store.SetAnomalies(ctx, job.ID, anomalies); err != nil {
		return err
	}
	if err := p.setStatus(ctx, job.ID, jobs.StatusCompleted, 100, "Completed"); err != nil {
		return err
	}
	logger.Info("job completed")
	return nil
}

// extractAudio pulls the audio track out of a video upload into a sibling
// wav file and returns its path.
func (p *Pipeline) extractAudio(ctx context.Context, job *jobs.Job) (string, error) {
	dest := extractionPath(job.SourcePath)
	ctx = services.WithStage(ctx, "extracting")
	if err := p.extractor.ExtractAudio(ctx, job.SourcePath, dest); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func extractionPath(sourcePath string) string {
	base := sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))]
	return base + ".extracted.wav"
}

func (p *Pipeline) setStatus(ctx context.Context, id string, status jobs.Status, progress int, message string) error {
	if err := p.store.SetStatus(ctx, id, status, progress, message); err != nil {
		return fmt.Errorf("update job status to %s: %w", status, err)
	}
	return nil
}
