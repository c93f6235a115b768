package testsupport

import (
	"context"
	"testing"

	"subfix/internal/config"
	"subfix/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, fileName string) *jobs.Job {
	t.Helper()

	job, err := store.Create(context.Background(), jobs.NewJobParams{
		FileName: fileName,
		FileSize: 1024,
		MimeType: "audio/wav",
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}

// SeedAnalyzed stores segments and anomalies on a job and walks it to
// completed, mirroring the pipeline's final persistence step.
func SeedAnalyzed(t testing.TB, store *jobs.Store, jobID string, segments []jobs.Segment, anomalies []jobs.Anomaly) {
	t.Helper()

	ctx := context.Background()
	steps := []struct {
		status   jobs.Status
		progress int
	}{
		{jobs.StatusUploading, 5},
		{jobs.StatusProcessing, 10},
		{jobs.StatusTranscribing, 30},
		{jobs.StatusAnalyzing, 85},
	}
	for _, step := range steps {
		if err := store.SetStatus(ctx, jobID, step.status, step.progress, ""); err != nil {
			t.Fatalf("SetStatus %s: %v", step.status, err)
		}
	}
	if err := store.SetSegments(ctx, jobID, segments); err != nil {
		t.Fatalf("SetSegments: %v", err)
	}
	if err := store.SetAnomalies(ctx, jobID, anomalies); err != nil {
		t.Fatalf("SetAnomalies: %v", err)
	}
	if err := store.SetStatus(ctx, jobID, jobs.StatusCompleted, 100, ""); err != nil {
		t.Fatalf("SetStatus completed: %v", err)
	}
}
