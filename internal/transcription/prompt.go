package transcription

import (
	"fmt"
	"strings"
)

// systemPrompt is the fixed task description sent with every transcription
// request. The response contract is a bare JSON array so the parser can
// enforce the segment schema strictly.
const systemPrompt = `You are a professional subtitle transcriber. Listen to the supplied audio and produce subtitle segments.

Rules:
- Split speech into short cues of at most two lines each.
- Timestamps use the exact form HH:MM:SS,mmm (hours, minutes, seconds, comma, milliseconds).
- Number segments sequentially starting at 1.
- Transcribe verbatim; do not paraphrase or censor.

You must respond ONLY with a JSON array. Each element is an object:
{"id": <number>, "start": "HH:MM:SS,mmm", "end": "HH:MM:SS,mmm", "text": "<cue text>"}`

// defaultContext is substituted when the uploader supplied no context.
const defaultContext = "general speech with no special terminology"

func userPrompt(userContext string) string {
	trimmed := strings.TrimSpace(userContext)
	if trimmed == "" {
		trimmed = defaultContext
	}
	return fmt.Sprintf("Transcribe the attached audio into subtitle segments. Content context: %s", trimmed)
}
