// Package corrections applies human-submitted subtitle corrections to
// stored jobs, resolving the anomalies they address.
package corrections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/services"
)

// Engine validates and applies corrections against the job store.
type Engine struct {
	store  *jobs.Store
	logger *slog.Logger
}

func NewEngine(store *jobs.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logging.NewComponentLogger(logger, "corrections"),
	}
}

// Apply resolves the identified anomaly with the submitted correction text
// and returns the number of anomalies affected. When applyToSimilar is set,
// every unresolved anomaly on the job whose flagged text matches
// case-insensitively is resolved with the same correction.
func (e *Engine) Apply(ctx context.Context, jobID, anomalyID, correction string, applyToSimilar bool) (int, error) {
	if jobID == "" {
		return 0, fmt.Errorf("%w: job id is required", services.ErrValidation)
	}
	if anomalyID == "" {
		return 0, fmt.Errorf("%w: anomaly id is required", services.ErrValidation)
	}
	if correction == "" {
		return 0, fmt.Errorf("%w: correction text is required", services.ErrValidation)
	}

	job, err := e.store.GetByID(ctx, jobID)
	if err != nil {
		return 0, err
	}
	if job == nil {
		return 0, fmt.Errorf("%w: job %s", services.ErrNotFound, jobID)
	}
	anomaly := job.FindAnomaly(anomalyID)
	if anomaly == nil {
		return 0, fmt.Errorf("%w: anomaly %s", services.ErrNotFound, anomalyID)
	}

	if applyToSimilar {
		affected, err := e.store.ApplyToSimilar(ctx, jobID, anomaly.FlaggedText, correction)
		if err != nil {
			return 0, e.mapStoreErr(err)
		}
		e.logger.Info("correction applied to similar anomalies",
			logging.String("job_id", jobID),
			logging.String("flagged_text", anomaly.FlaggedText),
			logging.Int("affected", affected),
		)
		return affected, nil
	}

	applied, err := e.store.ApplyCorrection(ctx, jobID, anomalyID, correction)
	if err != nil {
		return 0, e.mapStoreErr(err)
	}
	if !applied {
		// Already resolved; corrections are idempotent.
		return 0, nil
	}
	e.logger.Info("correction applied",
		logging.String("job_id", jobID),
		logging.String("anomaly_id", anomalyID),
	)
	return 1, nil
}

func (e *Engine) mapStoreErr(err error) error {
	if errors.Is(err, jobs.ErrNotFound) {
		return fmt.Errorf("%w: %s", services.ErrNotFound, err)
	}
	return err
}
