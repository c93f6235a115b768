package api

import (
	"time"

	"subfix/internal/jobs"
)

// JobView is the external representation of a job. The on-disk source path
// stays internal.
type JobView struct {
	ID           string     `json:"id"`
	FileName     string     `json:"fileName"`
	FileSize     int64      `json:"fileSize"`
	MimeType     string     `json:"mimeType,omitempty"`
	UserContext  string     `json:"userContext,omitempty"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	Message      string     `json:"message,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	Segments  []jobs.Segment `json:"segments,omitempty"`
	Anomalies []jobs.Anomaly `json:"anomalies,omitempty"`

	// Resolution counters let polling clients render progress without
	// walking the anomaly list.
	AnomalyCount    int `json:"anomalyCount"`
	UnresolvedCount int `json:"unresolvedCount"`
}

// JobSummary is the list form: no segments or anomalies payload.
type JobSummary struct {
	ID              string     `json:"id"`
	FileName        string     `json:"fileName"`
	FileSize        int64      `json:"fileSize"`
	Status          string     `json:"status"`
	Progress        int        `json:"progress"`
	Message         string     `json:"message,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	AnomalyCount    int        `json:"anomalyCount"`
	UnresolvedCount int        `json:"unresolvedCount"`
}

func viewFromJob(job *jobs.Job) *JobView {
	return &JobView{
		ID:              job.ID,
		FileName:        job.FileName,
		FileSize:        job.FileSize,
		MimeType:        job.MimeType,
		UserContext:     job.UserContext,
		Status:          string(job.Status),
		Progress:        job.Progress,
		Message:         job.Message,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
		CompletedAt:     job.CompletedAt,
		Segments:        job.Segments,
		Anomalies:       job.Anomalies,
		AnomalyCount:    len(job.Anomalies),
		UnresolvedCount: job.UnresolvedCount(),
	}
}

func summaryFromJob(job *jobs.Job) JobSummary {
	return JobSummary{
		ID:              job.ID,
		FileName:        job.FileName,
		FileSize:        job.FileSize,
		Status:          string(job.Status),
		Progress:        job.Progress,
		Message:         job.Message,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt,
		CompletedAt:     job.CompletedAt,
		AnomalyCount:    len(job.Anomalies),
		UnresolvedCount: job.UnresolvedCount(),
	}
}
