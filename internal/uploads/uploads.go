// Package uploads owns the on-disk lifetime of uploaded source files: it
// writes incoming payloads into the upload directory and reclaims space by
// deleting files older than the configured retention window.
package uploads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"subfix/internal/config"
	"subfix/internal/logging"
)

// Manager stores uploads and sweeps expired ones.
type Manager struct {
	dir       string
	maxBytes  int64
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		dir:       cfg.Paths.UploadDir,
		maxBytes:  int64(cfg.Transcription.MaxUploadMiB) * 1024 * 1024,
		retention: time.Duration(cfg.Workflow.UploadRetentionHours) * time.Hour,
		interval:  time.Duration(cfg.Workflow.CleanupIntervalMinutes) * time.Minute,
		logger:    logging.NewComponentLogger(logger, "uploads"),
	}
}

// Save streams the payload to a uniquely named file in the upload directory
// and returns its path and size. Uploads exceeding the configured size cap
// are rejected and the partial file removed.
func (m *Manager) Save(fileName string, payload io.Reader) (string, int64, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}
	// The uuid prefix keeps same-named uploads from colliding.
	dest := filepath.Join(m.dir, uuid.NewString()+"_"+filepath.Base(fileName))
	file, err := os.Create(dest)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	reader := payload
	if m.maxBytes > 0 {
		reader = io.LimitReader(payload, m.maxBytes+1)
	}
	written, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && m.maxBytes > 0 && written > m.maxBytes {
		err = fmt.Errorf("upload exceeds %d byte limit", m.maxBytes)
	}
	if err != nil {
		os.Remove(dest)
		return "", 0, err
	}
	return dest, written, nil
}

// Remove deletes a stored upload. Missing files are not an error.
func (m *Manager) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove upload", logging.String("path", path), logging.Error(err))
	}
}

// Sweep deletes files in the upload directory older than the retention
// window and returns the number removed. It only reclaims disk; jobs that
// referenced a swept file have long since finished or failed.
func (m *Manager) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	cutoff := now.Add(-m.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to sweep upload", logging.String("path", path), logging.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("swept expired uploads", logging.Int("removed", removed))
	}
	return removed, nil
}

// RunSweeper sweeps on the configured interval until the context ends.
func (m *Manager) RunSweeper(ctx context.Context) {
	if m.interval <= 0 || m.retention <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(time.Now()); err != nil {
				m.logger.Warn("sweep failed", logging.Error(err))
			}
		}
	}
}
