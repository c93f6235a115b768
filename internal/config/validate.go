package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if strings.TrimSpace(c.Transcription.FFmpegBinary) == "" {
		return errors.New("transcription.ffmpeg_binary must be set")
	}
	if c.Transcription.MaxUploadMiB <= 0 {
		return errors.New("transcription.max_upload_mib must be positive")
	}
	if c.Transcription.MaxContextLen <= 0 {
		return errors.New("transcription.max_context_words must be positive")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.BatchSize <= 0 {
		return errors.New("analysis.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.UploadRetentionHours <= 0 {
		return errors.New("workflow.upload_retention_hours must be positive")
	}
	if c.Workflow.CleanupIntervalMinutes <= 0 {
		return errors.New("workflow.cleanup_interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
