package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates an unknown job identifier.
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition indicates a status change that would move a job
// backward or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

// NewJobParams carries the metadata captured at upload time.
type NewJobParams struct {
	FileName    string
	FileSize    int64
	MimeType    string
	UserContext string
	SourcePath  string
}

// Create inserts a new pending job and returns the stored record.
func (s *Store) Create(ctx context.Context, params NewJobParams) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            id, file_name, file_size, mime_type, user_context, status,
            progress, message, error_message, source_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		params.FileName,
		params.FileSize,
		nullableString(params.MimeType),
		nullableString(params.UserContext),
		StatusPending,
		0,
		nil,
		nil,
		nullableString(params.SourcePath),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns all jobs ordered newest first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return result, nil
}

// SetStatus advances a job's status and progress. Transitions must follow
// the forward pipeline sequence; moving backward or out of a terminal state
// fails with ErrInvalidTransition. An empty message clears any stale status
// message. Setting StatusCompleted stamps the completion time.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, progress int, message string) error {
	return s.mutateJob(ctx, id, func(job *Job) error {
		if !job.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, status)
		}
		job.Status = status
		job.Progress = progress
		job.Message = message
		if status == StatusCompleted && job.CompletedAt == nil {
			now := time.Now().UTC()
			job.CompletedAt = &now
		}
		return nil
	})
}

// SetError marks a job failed with the supplied message. This is the only
// path to StatusFailed. A completed job is left untouched.
func (s *Store) SetError(ctx context.Context, id string, message string) error {
	return s.mutateJob(ctx, id, func(job *Job) error {
		if job.Status == StatusCompleted {
			return nil
		}
		job.Status = StatusFailed
		job.ErrorMessage = message
		job.Message = message
		return nil
	})
}

// SetSegments stores the transcription result. Segments are set once per
// job; replacing an existing sequence is rejected.
func (s *Store) SetSegments(ctx context.Context, id string, segments []Segment) error {
	return s.mutateJob(ctx, id, func(job *Job) error {
		if job.Segments != nil {
			return fmt.Errorf("job %s already has segments", id)
		}
		if segments == nil {
			segments = []Segment{}
		}
		job.Segments = segments
		return nil
	})
}

// SetAnomalies stores the analysis result. Anomalies are set once per job;
// replacing an existing collection is rejected.
func (s *Store) SetAnomalies(ctx context.Context, id string, anomalies []Anomaly) error {
	return s.mutateJob(ctx, id, func(job *Job) error {
		if job.Anomalies != nil {
			return fmt.Errorf("job %s already has anomalies", id)
		}
		if anomalies == nil {
			anomalies = []Anomaly{}
		}
		job.Anomalies = anomalies
		return nil
	})
}

// ApplyCorrection resolves one anomaly and substitutes the correction into
// the owning segment. A missing or already-resolved anomaly is a benign
// no-op (applied=false); an unknown job id returns ErrNotFound.
func (s *Store) ApplyCorrection(ctx context.Context, id, anomalyID, correction string) (bool, error) {
	applied := false
	err := s.mutateJob(ctx, id, func(job *Job) error {
		applied = job.applyCorrection(anomalyID, correction)
		return nil
	})
	return applied, err
}

// ApplyToSimilar resolves every unresolved anomaly matching flaggedText
// case-insensitively and returns the number affected.
func (s *Store) ApplyToSimilar(ctx context.Context, id, flaggedText, correction string) (int, error) {
	count := 0
	err := s.mutateJob(ctx, id, func(job *Job) error {
		count = job.applyToSimilar(flaggedText, correction)
		return nil
	})
	return count, err
}

// UpdateSegmentText overwrites a segment's text. Anomalies referencing the
// segment are deliberately left untouched, so stale highlights may remain.
func (s *Store) UpdateSegmentText(ctx context.Context, id string, segmentID int, text string) error {
	return s.mutateJob(ctx, id, func(job *Job) error {
		segment := job.FindSegment(segmentID)
		if segment == nil {
			return fmt.Errorf("%w: segment %d", ErrNotFound, segmentID)
		}
		segment.Text = text
		return nil
	})
}

// FailStuck marks every non-terminal job failed with the supplied message.
// Called during daemon startup: pipelines do not survive a restart.
func (s *Store) FailStuck(ctx context.Context, message string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, message = ?, updated_at = ?
         WHERE status NOT IN (?, ?)`,
		StatusFailed,
		message,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("fail stuck jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// mutateJob runs fn against a freshly read job inside a single transaction
// and persists the result. Per-job atomicity comes from the read-modify-write
// happening under one transaction with busy retry around the whole cycle.
func (s *Store) mutateJob(ctx context.Context, id string, fn func(*Job) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
		job, err := scanJob(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("read job: %w", err)
		}

		if err := fn(job); err != nil {
			return err
		}

		job.UpdatedAt = time.Now().UTC()
		segmentsJSON, anomaliesJSON, err := encodeCollections(job)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, progress = ?, message = ?, error_message = ?,
                updated_at = ?, completed_at = ?, segments_json = ?, anomalies_json = ?
             WHERE id = ?`,
			job.Status,
			job.Progress,
			nullableString(job.Message),
			nullableString(job.ErrorMessage),
			job.UpdatedAt.Format(time.RFC3339Nano),
			nullableTime(job.CompletedAt),
			segmentsJSON,
			anomaliesJSON,
			job.ID,
		); err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		return tx.Commit()
	})
}
