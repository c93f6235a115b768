package config

const (
	defaultUploadDir              = "~/.local/share/subfix/uploads"
	defaultLogDir                 = "~/.local/share/subfix/logs"
	defaultAPIBind                = "127.0.0.1:7519"
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/subfix/subfix"
	defaultLLMTitle               = "Subfix"
	defaultLLMTimeoutSeconds      = 120
	defaultMaxUploadMiB           = 200
	defaultMaxContextWords        = 100
	defaultAnalysisBatchSize      = 50
	defaultUploadRetentionHours   = 24
	defaultCleanupIntervalMinutes = 60
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			FFmpegBinary:  "ffmpeg",
			MaxUploadMiB:  defaultMaxUploadMiB,
			MaxContextLen: defaultMaxContextWords,
		},
		Analysis: Analysis{
			BatchSize: defaultAnalysisBatchSize,
		},
		Workflow: Workflow{
			UploadRetentionHours:   defaultUploadRetentionHours,
			CleanupIntervalMinutes: defaultCleanupIntervalMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
