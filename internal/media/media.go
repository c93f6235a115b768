package media

import (
	"path/filepath"
	"strings"
)

// NeedsExtraction reports whether the input must be converted to an
// audio-only representation before transcription. Any video type qualifies.
func NeedsExtraction(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "video/")
}

// TypeFromName returns the MIME type for common audio/video extensions,
// used when an upload arrives without a declared content type.
func TypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a":
		return "audio/m4a"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "application/octet-stream"
	}
}

// AudioFormat maps a MIME type to the short format label the model endpoint
// expects for inline audio payloads.
func AudioFormat(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/mp3", "audio/mpeg":
		return "mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/flac":
		return "flac"
	case "audio/ogg":
		return "ogg"
	case "audio/m4a", "audio/mp4", "audio/aac":
		return "m4a"
	default:
		return "wav"
	}
}

// IsSupported reports whether a MIME type is an audio or video type subfix
// can ingest.
func IsSupported(mimeType string) bool {
	lower := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(lower, "audio/") || strings.HasPrefix(lower, "video/")
}
