// Package daemon ties the service together: single-instance locking,
// startup recovery, the HTTP API, and the background upload sweeper.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"subfix/internal/api"
	"subfix/internal/config"
	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/pipeline"
	"subfix/internal/uploads"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	pipe    *pipeline.Pipeline
	uploads *uploads.Manager
	jobSvc  *api.JobService
	server  *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	bg      sync.WaitGroup
}

// Status is the daemon runtime summary exposed over the API.
type Status struct {
	Running      bool   `json:"running"`
	JobDBPath    string `json:"jobDbPath"`
	LockFilePath string `json:"lockFilePath"`
}

// New constructs a daemon. All dependencies are required.
func New(cfg *config.Config, store *jobs.Store, pipe *pipeline.Pipeline, manager *uploads.Manager, jobSvc *api.JobService, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || pipe == nil || manager == nil || jobSvc == nil {
		return nil, errors.New("daemon requires config, store, pipeline, uploads, and job service")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "subfixd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		pipe:     pipe,
		uploads:  manager,
		jobSvc:   jobSvc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.server = newAPIServer(cfg, d, jobSvc, d.logger)
	return d, nil
}

// Start acquires the daemon lock, fails over any jobs stranded by a previous
// run, and launches the API server and upload sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subfix daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Pipelines do not survive a restart; whatever was in flight is failed
	// now so clients are not left polling forever.
	failed, err := d.store.FailStuck(runCtx, "interrupted by daemon restart")
	if err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("recover stuck jobs: %w", err)
	}
	if failed > 0 {
		d.logger.Warn("failed stranded jobs from previous run", logging.Int64("count", failed))
	}

	if err := d.server.start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return err
	}

	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		d.uploads.RunSweeper(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("db", d.store.Path()),
	)
	return nil
}

// Stop shuts the API down, drains in-flight pipelines, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.pipe.Wait()
	d.bg.Wait()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the job store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Running reports whether Start has completed without a matching Stop.
func (d *Daemon) Running() bool { return d.running.Load() }

// Status returns the runtime summary.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// Addr reports the API listen address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}
