// Package media classifies uploaded file types and converts video input to
// the audio-only form the transcription call requires.
package media
