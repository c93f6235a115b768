package daemon_test

import (
	"context"
	"testing"

	"subfix/internal/api"
	"subfix/internal/config"
	"subfix/internal/corrections"
	"subfix/internal/daemon"
	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/pipeline"
	"subfix/internal/testsupport"
	"subfix/internal/uploads"
)

type stubTranscriber struct {
	segments []jobs.Segment
}

func (s *stubTranscriber) Transcribe(context.Context, []byte, string, string) ([]jobs.Segment, error) {
	return s.segments, nil
}

type stubAnalyzer struct {
	anomalies []jobs.Anomaly
}

func (s *stubAnalyzer) Analyze(context.Context, []jobs.Segment, string) []jobs.Anomaly {
	return s.anomalies
}

func newTestDaemon(t *testing.T, cfg *config.Config, segments []jobs.Segment, anomalies []jobs.Anomaly) (*daemon.Daemon, *jobs.Store) {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	manager := uploads.NewManager(cfg, logger)
	pipe := pipeline.New(store, media.NewExtractor("ffmpeg"), &stubTranscriber{segments: segments}, &stubAnalyzer{anomalies: anomalies}, logger)
	engine := corrections.NewEngine(store, logger)
	jobSvc := api.NewJobService(cfg, store, manager, pipe, engine, logger)

	d, err := daemon.New(cfg, store, pipe, manager, jobSvc, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store
}

func TestStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg, nil, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if !d.Running() {
		t.Fatal("daemon not running after Start")
	}
	if d.Addr() == "" {
		t.Fatal("daemon has no listen address")
	}
	status := d.Status()
	if !status.Running || status.JobDBPath == "" || status.LockFilePath == "" {
		t.Errorf("status = %+v", status)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon still running after Stop")
	}
}

func TestStartRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newTestDaemon(t, cfg, nil, nil)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, _ := newTestDaemon(t, cfg, nil, nil)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should not acquire the lock")
	}
}

func TestStartFailsStrandedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, store := newTestDaemon(t, cfg, nil, nil)
	ctx := context.Background()

	stranded := testsupport.NewJob(t, store, "stranded.wav")
	if err := store.SetStatus(ctx, stranded.ID, jobs.StatusUploading, 5, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := store.SetStatus(ctx, stranded.ID, jobs.StatusProcessing, 10, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	got, err := store.GetByID(ctx, stranded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != jobs.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("stranded job has no error message")
	}
}
