package preflight_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/preflight"
	"subfix/internal/testsupport"
)

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck(context.Context) error { return s.err }

// fakeFFmpeg drops an executable file on disk so tool resolution succeeds
// without a real ffmpeg install.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

func TestRunAllChecksPass(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := media.NewExtractor(fakeFFmpeg(t))

	results, err := preflight.Run(context.Background(), cfg, extractor, stubHealth{}, logging.NewNop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, result := range results {
		if !result.OK() {
			t.Errorf("check %s failed: %v", result.Name, result.Err)
		}
	}
}

func TestRunReportsMissingFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := media.NewExtractor(filepath.Join(t.TempDir(), "no-such-ffmpeg"))

	results, err := preflight.Run(context.Background(), cfg, extractor, stubHealth{}, logging.NewNop())
	if err == nil {
		t.Fatal("expected failure")
	}
	// Later checks still ran.
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].OK() {
		t.Error("ffmpeg check should have failed")
	}
	if !results[1].OK() {
		t.Errorf("disk check should still pass: %v", results[1].Err)
	}
}

func TestRunReportsUnreachableEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	extractor := media.NewExtractor(fakeFFmpeg(t))

	_, err := preflight.Run(context.Background(), cfg, extractor, stubHealth{err: errors.New("connection refused")}, logging.NewNop())
	if err == nil {
		t.Fatal("expected failure")
	}
}
