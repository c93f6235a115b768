package jobs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, file_name, file_size, mime_type, user_context, status, progress, message, error_message, source_path, created_at, updated_at, completed_at, segments_json, anomalies_json"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id            string
		fileName      string
		fileSize      sql.NullInt64
		mimeType      sql.NullString
		userContext   sql.NullString
		statusStr     string
		progress      sql.NullInt64
		message       sql.NullString
		errorMessage  sql.NullString
		sourcePath    sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
		completedRaw  sql.NullString
		segmentsJSON  sql.NullString
		anomaliesJSON sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&fileName,
		&fileSize,
		&mimeType,
		&userContext,
		&statusStr,
		&progress,
		&message,
		&errorMessage,
		&sourcePath,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
		&segmentsJSON,
		&anomaliesJSON,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		FileName:     fileName,
		FileSize:     fileSize.Int64,
		MimeType:     mimeType.String,
		UserContext:  userContext.String,
		Status:       Status(statusStr),
		Progress:     int(progress.Int64),
		Message:      message.String,
		ErrorMessage: errorMessage.String,
		SourcePath:   sourcePath.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}

	// A NULL column means the collection was never set; an empty JSON array
	// means analysis completed with zero entries. The distinction matters
	// for the segments-absent-until-analysis invariant.
	if segmentsJSON.Valid {
		if err := json.Unmarshal([]byte(segmentsJSON.String), &job.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
		if job.Segments == nil {
			job.Segments = []Segment{}
		}
	}
	if anomaliesJSON.Valid {
		if err := json.Unmarshal([]byte(anomaliesJSON.String), &job.Anomalies); err != nil {
			return nil, fmt.Errorf("decode anomalies: %w", err)
		}
		if job.Anomalies == nil {
			job.Anomalies = []Anomaly{}
		}
	}
	return job, nil
}

func encodeCollections(job *Job) (segmentsJSON, anomaliesJSON any, err error) {
	if job.Segments != nil {
		encoded, err := json.Marshal(job.Segments)
		if err != nil {
			return nil, nil, fmt.Errorf("encode segments: %w", err)
		}
		segmentsJSON = string(encoded)
	}
	if job.Anomalies != nil {
		encoded, err := json.Marshal(job.Anomalies)
		if err != nil {
			return nil, nil, fmt.Errorf("encode anomalies: %w", err)
		}
		anomaliesJSON = string(encoded)
	}
	return segmentsJSON, anomaliesJSON, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
