package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"subfix/internal/jobs"
)

// reviewPrompt is the system prompt for the semantic review pass. Responses
// must be a bare JSON array so a malformed batch is detectable.
const reviewPrompt = `You are a subtitle quality reviewer. You receive numbered subtitle segments and the content context supplied by the uploader.

For each segment, flag incorrect words or phrases:
- Use the content context to identify domain terminology that was likely mis-transcribed.
- Check for homophones and similar-sounding word substitutions.
- Flag sentences that make no sense or do not fit the surrounding content.
- Set "autoFix" to true ONLY when you are fully confident the suggestion is correct.

Valid categories: "unusual_sentence", "out_of_context", "similar_sounding", "grammar_issue".

You must respond ONLY with a JSON array (empty array when nothing is wrong). Each element:
{"segmentId": <number>, "flaggedText": "<exact substring>", "suggestion": "<replacement>", "reason": "<brief explanation>", "category": "<category>", "confidence": 0.0-1.0, "autoFix": <bool>}`

func reviewUserPrompt(batch []jobs.Segment, userContext string) (string, error) {
	trimmed := strings.TrimSpace(userContext)
	if trimmed == "" {
		trimmed = "none provided"
	}

	type promptSegment struct {
		ID   int    `json:"id"`
		Text string `json:"text"`
	}
	entries := make([]promptSegment, 0, len(batch))
	for _, segment := range batch {
		entries = append(entries, promptSegment{ID: segment.ID, Text: segment.Text})
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	return fmt.Sprintf("Content context: %s\n\nSegments:\n%s", trimmed, encoded), nil
}
