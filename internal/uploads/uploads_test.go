package uploads_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subfix/internal/logging"
	"subfix/internal/testsupport"
	"subfix/internal/uploads"
)

func TestSaveAndRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := uploads.NewManager(cfg, logging.NewNop())

	path, size, err := manager.Save("talk.wav", strings.NewReader("audio bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("audio bytes")) {
		t.Errorf("size = %d", size)
	}
	if !strings.HasSuffix(path, "_talk.wav") {
		t.Errorf("path = %q, want uuid-prefixed original name", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("content = %q", data)
	}

	manager.Remove(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove: %v", err)
	}
	// Removing again is a no-op.
	manager.Remove(path)
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.MaxUploadMiB = 1
	manager := uploads.NewManager(cfg, logging.NewNop())

	oversized := strings.NewReader(strings.Repeat("x", 1024*1024+1))
	if _, _, err := manager.Save("big.wav", oversized); err == nil {
		t.Fatal("expected size limit error")
	}
	entries, err := os.ReadDir(cfg.Paths.UploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("partial upload left behind: %v", entries)
	}
}

func TestSweepRemovesOnlyExpiredFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.UploadRetentionHours = 24
	manager := uploads.NewManager(cfg, logging.NewNop())

	fresh, _, err := manager.Save("fresh.wav", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	stale, _, err := manager.Save("stale.wav", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	removed, err := manager.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file swept: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived: %v", err)
	}
}

func TestSweepMissingDirIsBenign(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.UploadDir = filepath.Join(t.TempDir(), "never-created")
	manager := uploads.NewManager(cfg, logging.NewNop())

	removed, err := manager.Sweep(time.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}
