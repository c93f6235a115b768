// Package api is the service facade between transports (HTTP, CLI) and the
// job machinery. It validates input, owns the view types, and keeps the
// store's internals out of external responses.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"subfix/internal/config"
	"subfix/internal/corrections"
	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/services"
	"subfix/internal/srt"
	"subfix/internal/uploads"
)

// Launcher starts background processing for a newly created job.
type Launcher interface {
	Launch(ctx context.Context, job *jobs.Job)
}

// JobService exposes the job operations transports call into.
type JobService struct {
	store           *jobs.Store
	uploads         *uploads.Manager
	launcher        Launcher
	engine          *corrections.Engine
	maxContextWords int
	logger          *slog.Logger
}

func NewJobService(cfg *config.Config, store *jobs.Store, manager *uploads.Manager, launcher Launcher, engine *corrections.Engine, logger *slog.Logger) *JobService {
	return &JobService{
		store:           store,
		uploads:         manager,
		launcher:        launcher,
		engine:          engine,
		maxContextWords: cfg.Transcription.MaxContextLen,
		logger:          logging.NewComponentLogger(logger, "api"),
	}
}

// CreateJobParams carries one upload request.
type CreateJobParams struct {
	FileName    string
	MimeType    string
	UserContext string
	Payload     io.Reader
}

// CreateJob validates the upload, persists it, creates the job record, and
// launches the pipeline. It returns as soon as the job is queued; callers
// poll GetJob for progress.
func (s *JobService) CreateJob(ctx context.Context, params CreateJobParams) (*JobView, error) {
	fileName := strings.TrimSpace(params.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", services.ErrValidation)
	}
	if params.Payload == nil {
		return nil, fmt.Errorf("%w: upload payload is required", services.ErrValidation)
	}

	mimeType := strings.TrimSpace(params.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = media.TypeFromName(fileName)
	}
	if !media.IsSupported(mimeType) {
		return nil, fmt.Errorf("%w: unsupported media type %q", services.ErrValidation, mimeType)
	}
	userContext := strings.TrimSpace(params.UserContext)
	if s.maxContextWords > 0 {
		if words := len(strings.Fields(userContext)); words > s.maxContextWords {
			return nil, fmt.Errorf("%w: context is %d words, limit is %d", services.ErrValidation, words, s.maxContextWords)
		}
	}

	sourcePath, size, err := s.uploads.Save(fileName, params.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", services.ErrValidation, err)
	}

	job, err := s.store.Create(ctx, jobs.NewJobParams{
		FileName:    fileName,
		FileSize:    size,
		MimeType:    mimeType,
		UserContext: userContext,
		SourcePath:  sourcePath,
	})
	if err != nil {
		s.uploads.Remove(sourcePath)
		return nil, err
	}

	s.logger.Info("job created",
		logging.String("job_id", job.ID),
		logging.String("file", fileName),
		logging.Int64("size", size),
	)
	s.launcher.Launch(ctx, job)
	return viewFromJob(job), nil
}

// GetJob returns the full view of one job.
func (s *JobService) GetJob(ctx context.Context, id string) (*JobView, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewFromJob(job), nil
}

// ListJobs returns summaries of all jobs, newest first.
func (s *JobService) ListJobs(ctx context.Context) ([]JobSummary, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]JobSummary, 0, len(list))
	for _, job := range list {
		summaries = append(summaries, summaryFromJob(job))
	}
	return summaries, nil
}

// ApplyCorrection resolves an anomaly with human-accepted text and returns
// the refreshed job view plus the number of anomalies affected.
func (s *JobService) ApplyCorrection(ctx context.Context, jobID, anomalyID, correction string, applyToSimilar bool) (*JobView, int, error) {
	affected, err := s.engine.Apply(ctx, jobID, anomalyID, correction, applyToSimilar)
	if err != nil {
		return nil, 0, err
	}
	view, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, 0, err
	}
	return view, affected, nil
}

// UpdateSegmentText manually overwrites one segment's text.
func (s *JobService) UpdateSegmentText(ctx context.Context, jobID string, segmentID int, text string) (*JobView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: segment text is required", services.ErrValidation)
	}
	if err := s.store.UpdateSegmentText(ctx, jobID, segmentID, text); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", services.ErrNotFound, err)
		}
		return nil, err
	}
	return s.GetJob(ctx, jobID)
}

// Export renders the job's current transcript as SRT and returns the
// suggested download file name with the payload.
func (s *JobService) Export(ctx context.Context, id string) (string, []byte, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if job.Segments == nil {
		return "", nil, fmt.Errorf("%w: job %s has no transcript yet", services.ErrValidation, id)
	}
	name := exportFileName(job.FileName)
	return name, []byte(srt.Render(job.Segments)), nil
}

func (s *JobService) getJob(ctx context.Context, id string) (*jobs.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: job id is required", services.ErrValidation)
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %s", services.ErrNotFound, id)
	}
	return job, nil
}

func exportFileName(uploadName string) string {
	base := uploadName
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "subtitles"
	}
	return base + ".srt"
}
