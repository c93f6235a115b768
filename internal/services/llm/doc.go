// Package llm wraps an OpenRouter-compatible chat completion endpoint with
// JSON-mode requests, inline audio payloads, and bounded retry.
package llm
