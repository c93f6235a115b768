package main

import (
	"log/slog"
	"strings"

	"subfix/internal/analysis"
	"subfix/internal/api"
	"subfix/internal/config"
	"subfix/internal/corrections"
	"subfix/internal/daemon"
	"subfix/internal/jobs"
	"subfix/internal/media"
	"subfix/internal/pipeline"
	"subfix/internal/services/llm"
	"subfix/internal/transcription"
	"subfix/internal/uploads"
)

func buildDaemon(cfg *config.Config, store *jobs.Store, extractor *media.Extractor, logger *slog.Logger) (*daemon.Daemon, error) {
	manager := uploads.NewManager(cfg, logger)
	transcriber := transcription.NewService(newModelClient(cfg, cfg.Transcription.Model), logger)
	analyzer := analysis.NewAnalyzer(newModelClient(cfg, cfg.Analysis.Model), cfg.Analysis.BatchSize, logger)
	pipe := pipeline.New(store, extractor, transcriber, analyzer, logger)
	engine := corrections.NewEngine(store, logger)
	jobSvc := api.NewJobService(cfg, store, manager, pipe, engine, logger)
	return daemon.New(cfg, store, pipe, manager, jobSvc, logger)
}

// newModelClient builds one model client; an empty model falls back to the
// shared default from [llm].
func newModelClient(cfg *config.Config, model string) *llm.Client {
	if strings.TrimSpace(model) == "" {
		model = cfg.LLM.Model
	}
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}
