package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"subfix/internal/jobs"
	"subfix/internal/logging"
	"subfix/internal/services/llm"
)

const (
	// DefaultBatchSize bounds the prompt size of one review request.
	DefaultBatchSize = 50

	ruleConfidence    = 0.9
	defaultConfidence = 0.85
)

// Completer is the slice of the model client the analyzer needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Analyzer runs the two-pass anomaly detection: deterministic rules first,
// then a batched semantic review against the external model, merged with
// first-match-wins deduplication.
type Analyzer struct {
	client    Completer
	batchSize int
	logger    *slog.Logger
}

// NewAnalyzer constructs an analyzer. A non-positive batchSize falls back
// to DefaultBatchSize.
func NewAnalyzer(client Completer, batchSize int, logger *slog.Logger) *Analyzer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Analyzer{
		client:    client,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "analysis"),
	}
}

type reviewFinding struct {
	SegmentID   int      `json:"segmentId"`
	FlaggedText string   `json:"flaggedText"`
	Suggestion  string   `json:"suggestion"`
	Reason      string   `json:"reason"`
	Category    string   `json:"category"`
	Confidence  *float64 `json:"confidence"`
	AutoFix     bool     `json:"autoFix"`
}

// Analyze returns the merged anomaly collection for the segments. Auto-fix
// findings are substituted into the segment text in place before the
// anomalies are finalized. A review batch that fails is logged and skipped;
// it never fails the whole analysis. Batches run sequentially in index
// order so deduplication is deterministic.
func (a *Analyzer) Analyze(ctx context.Context, segments []jobs.Segment, userContext string) []jobs.Anomaly {
	anomalies := []jobs.Anomaly{}
	seen := map[string]struct{}{}

	// Rule pass: repeated words, no external call.
	for i := range segments {
		segment := &segments[i]
		for _, match := range findRepeatedWords(segment.Text) {
			if !markSeen(seen, segment.ID, match.Flagged) {
				continue
			}
			anomalies = append(anomalies, jobs.Anomaly{
				ID:          uuid.NewString(),
				SegmentID:   segment.ID,
				Category:    jobs.CategoryGrammarIssue,
				FlaggedText: match.Flagged,
				Suggestion:  match.Suggestion,
				Confidence:  ruleConfidence,
				Context:     "Repeated word",
			})
		}
	}

	// Review pass: batched model calls.
	byID := make(map[int]*jobs.Segment, len(segments))
	for i := range segments {
		byID[segments[i].ID] = &segments[i]
	}
	for index, batch := range batches(segments, a.batchSize) {
		findings, err := a.reviewBatch(ctx, batch, userContext)
		if err != nil {
			a.logger.Warn("review batch failed, skipping",
				logging.Int("batch", index),
				logging.Int("segments", len(batch)),
				logging.Error(err),
			)
			continue
		}
		for _, finding := range findings {
			anomaly, ok := a.acceptFinding(finding, byID, seen)
			if ok {
				anomalies = append(anomalies, anomaly)
			}
		}
	}

	return anomalies
}

func (a *Analyzer) reviewBatch(ctx context.Context, batch []jobs.Segment, userContext string) ([]reviewFinding, error) {
	prompt, err := reviewUserPrompt(batch, userContext)
	if err != nil {
		return nil, err
	}
	content, err := a.client.CompleteJSON(ctx, reviewPrompt, prompt)
	if err != nil {
		return nil, err
	}
	var findings []reviewFinding
	if err := llm.DecodeJSON(content, &findings); err != nil {
		return nil, fmt.Errorf("parse review response: %w", err)
	}
	return findings, nil
}

// acceptFinding validates one model finding, applies auto-fixes, and
// converts it into an anomaly. Findings referencing unknown segments or
// duplicating an earlier anomaly are dropped silently.
func (a *Analyzer) acceptFinding(finding reviewFinding, byID map[int]*jobs.Segment, seen map[string]struct{}) (jobs.Anomaly, bool) {
	var empty jobs.Anomaly

	flagged := strings.TrimSpace(finding.FlaggedText)
	if flagged == "" {
		return empty, false
	}
	segment, ok := byID[finding.SegmentID]
	if !ok {
		a.logger.Warn("finding references unknown segment", logging.Int("segment_id", finding.SegmentID))
		return empty, false
	}
	if !markSeen(seen, finding.SegmentID, flagged) {
		return empty, false
	}

	confidence := defaultConfidence
	if finding.Confidence != nil {
		confidence = clamp01(*finding.Confidence)
	}
	category, ok := jobs.ParseCategory(finding.Category)
	if !ok {
		category = jobs.CategoryUnusualSentence
	}

	anomaly := jobs.Anomaly{
		ID:          uuid.NewString(),
		SegmentID:   finding.SegmentID,
		Category:    category,
		FlaggedText: flagged,
		Suggestion:  strings.TrimSpace(finding.Suggestion),
		Confidence:  confidence,
		Context:     strings.TrimSpace(finding.Reason),
	}

	if finding.AutoFix && anomaly.Suggestion != "" && strings.Contains(segment.Text, flagged) {
		segment.Text = strings.Replace(segment.Text, flagged, anomaly.Suggestion, 1)
		anomaly.Resolved = true
		anomaly.Correction = anomaly.Suggestion
		anomaly.Context = strings.TrimSpace(anomaly.Context + " (Auto-applied)")
	}
	return anomaly, true
}

// markSeen records the segment/flagged-text pair and reports whether it was
// new. Comparison is case-insensitive; the first occurrence wins.
func markSeen(seen map[string]struct{}, segmentID int, flagged string) bool {
	key := fmt.Sprintf("%d|%s", segmentID, strings.ToLower(flagged))
	if _, dup := seen[key]; dup {
		return false
	}
	seen[key] = struct{}{}
	return true
}

func batches(segments []jobs.Segment, size int) [][]jobs.Segment {
	var result [][]jobs.Segment
	for start := 0; start < len(segments); start += size {
		end := min(start+size, len(segments))
		result = append(result, segments[start:end])
	}
	return result
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
