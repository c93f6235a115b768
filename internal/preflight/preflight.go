// Package preflight verifies the daemon's external dependencies before any
// job is accepted: the ffmpeg binary, the model endpoint, and free space in
// the upload directory.
package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"subfix/internal/config"
	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/services"
)

// minFreeBytes is the floor below which uploads would start failing
// mid-pipeline; startup refuses instead.
const minFreeBytes = 512 * 1024 * 1024

// HealthChecker is the slice of the model client preflight needs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Result reports one dependency check.
type Result struct {
	Name   string
	Detail string
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// Run executes every check and returns the results plus the first failure.
// Checks keep running after a failure so the log shows the full picture.
func Run(ctx context.Context, cfg *config.Config, extractor *media.Extractor, client HealthChecker, logger *slog.Logger) ([]Result, error) {
	logger = logging.NewComponentLogger(logger, "preflight")

	results := []Result{
		checkFFmpeg(extractor),
		checkDiskSpace(cfg.Paths.UploadDir),
		checkModelEndpoint(ctx, client),
	}

	var firstErr error
	for _, result := range results {
		if result.OK() {
			logger.Info("check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		logger.Error("check failed", logging.String("check", result.Name), logging.Error(result.Err))
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", result.Name, result.Err)
		}
	}
	return results, firstErr
}

func checkFFmpeg(extractor *media.Extractor) Result {
	path, err := extractor.ResolveFFmpeg()
	return Result{Name: "ffmpeg", Detail: path, Err: err}
}

func checkDiskSpace(uploadDir string) Result {
	result := Result{Name: "disk space"}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		result.Err = err
		return result
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(uploadDir, &stat); err != nil {
		result.Err = fmt.Errorf("statvfs %s: %w", uploadDir, err)
		return result
	}
	free := stat.Bavail * uint64(stat.Bsize)
	result.Detail = fmt.Sprintf("%d MiB free", free/(1024*1024))
	if free < minFreeBytes {
		result.Err = fmt.Errorf("only %d MiB free in %s", free/(1024*1024), uploadDir)
	}
	return result
}

func checkModelEndpoint(ctx context.Context, client HealthChecker) Result {
	result := Result{Name: "model endpoint"}
	if err := client.HealthCheck(ctx); err != nil {
		result.Err = services.Wrap(services.ErrTransient, "preflight", "health check", "", err)
	}
	return result
}
