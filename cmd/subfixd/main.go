package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"subfix/internal/config"
	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/media"
	"subfix/internal/preflight"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	extractor := media.NewExtractor(cfg.Transcription.FFmpegBinary)
	if _, err := preflight.Run(ctx, cfg, extractor, newModelClient(cfg, ""), logger); err != nil {
		logger.Error("preflight failed", logging.Error(err))
		store.Close()
		return
	}

	d, err := buildDaemon(cfg, store, extractor, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("subfixd shutting down")
}
