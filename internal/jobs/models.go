package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusUploading    Status = "uploading"
	StatusProcessing   Status = "processing"
	StatusTranscribing Status = "transcribing"
	StatusAnalyzing    Status = "analyzing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusProcessing,
	StatusTranscribing,
	StatusAnalyzing,
	StatusCompleted,
	StatusFailed,
}

// statusRank orders the forward pipeline sequence. Failed is handled
// separately: it is reachable from any non-terminal status.
var statusRank = map[Status]int{
	StatusPending:      0,
	StatusUploading:    1,
	StatusProcessing:   2,
	StatusTranscribing: 3,
	StatusAnalyzing:    4,
	StatusCompleted:    5,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next follows the forward
// pipeline sequence or jumps to failed from a non-terminal state.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	return okFrom && okTo && to >= from
}

// Category classifies a detected anomaly.
type Category string

const (
	CategoryUnusualSentence Category = "unusual_sentence"
	CategoryOutOfContext    Category = "out_of_context"
	CategorySimilarSounding Category = "similar_sounding"
	CategoryGrammarIssue    Category = "grammar_issue"
)

var allCategories = []Category{
	CategoryUnusualSentence,
	CategoryOutOfContext,
	CategorySimilarSounding,
	CategoryGrammarIssue,
}

// ParseCategory converts a string into a known Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, category := range allCategories {
		if category == normalized {
			return category, true
		}
	}
	return "", false
}

// Segment is one timed subtitle cue. Timestamps use the fixed-width
// HH:MM:SS,mmm form.
type Segment struct {
	ID           int    `json:"id"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Text         string `json:"text"`
	OriginalText string `json:"originalText,omitempty"`
}

// Anomaly is one detected text issue tied to a segment.
type Anomaly struct {
	ID          string   `json:"id"`
	SegmentID   int      `json:"segmentId"`
	Category    Category `json:"category"`
	FlaggedText string   `json:"flaggedText"`
	Suggestion  string   `json:"suggestion"`
	Confidence  float64  `json:"confidence"`
	Context     string   `json:"context,omitempty"`
	Resolved    bool     `json:"resolved"`
	Correction  string   `json:"correction,omitempty"`
}

// Job represents one end-to-end subtitle generation request.
//
// SourcePath references the uploaded file on disk. It is persisted but is
// never exposed through API views.
type Job struct {
	ID           string
	FileName     string
	FileSize     int64
	MimeType     string
	UserContext  string
	Status       Status
	Progress     int
	Message      string
	ErrorMessage string
	SourcePath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time

	// Segments and Anomalies are nil until the analysis stage completes.
	// Once set they are never replaced, only mutated in place.
	Segments  []Segment
	Anomalies []Anomaly
}

// FindSegment returns the segment with the given id, or nil.
func (j *Job) FindSegment(id int) *Segment {
	for i := range j.Segments {
		if j.Segments[i].ID == id {
			return &j.Segments[i]
		}
	}
	return nil
}

// FindAnomaly returns the anomaly with the given id, or nil.
func (j *Job) FindAnomaly(id string) *Anomaly {
	for i := range j.Anomalies {
		if j.Anomalies[i].ID == id {
			return &j.Anomalies[i]
		}
	}
	return nil
}

// UnresolvedCount returns the number of anomalies awaiting a correction.
func (j *Job) UnresolvedCount() int {
	count := 0
	for i := range j.Anomalies {
		if !j.Anomalies[i].Resolved {
			count++
		}
	}
	return count
}

// applyCorrection resolves one anomaly, records the accepted text, and
// substitutes the first occurrence of the flagged text in the owning
// segment. One anomaly record maps to one occurrence, so only the first
// match is replaced; apply-to-similar is the only multi-target path.
// Returns false without mutating anything when the anomaly is missing,
// already resolved, or the job carries no segments or anomalies.
func (j *Job) applyCorrection(anomalyID, correction string) bool {
	if len(j.Segments) == 0 || len(j.Anomalies) == 0 {
		return false
	}
	anomaly := j.FindAnomaly(anomalyID)
	if anomaly == nil || anomaly.Resolved {
		return false
	}
	j.resolveAnomaly(anomaly, correction)
	return true
}

// applyToSimilar resolves every unresolved anomaly whose flagged text
// matches case-insensitively and applies the same substitution to each
// owning segment. Already-resolved anomalies are never touched. Returns
// the number of anomalies affected.
func (j *Job) applyToSimilar(flaggedText, correction string) int {
	if len(j.Segments) == 0 || len(j.Anomalies) == 0 {
		return 0
	}
	count := 0
	for i := range j.Anomalies {
		anomaly := &j.Anomalies[i]
		if anomaly.Resolved || !strings.EqualFold(anomaly.FlaggedText, flaggedText) {
			continue
		}
		j.resolveAnomaly(anomaly, correction)
		count++
	}
	return count
}

func (j *Job) resolveAnomaly(anomaly *Anomaly, correction string) {
	anomaly.Resolved = true
	anomaly.Correction = correction
	anomaly.Context = fmt.Sprintf("Replaced %q with %q", anomaly.FlaggedText, correction)
	if segment := j.FindSegment(anomaly.SegmentID); segment != nil {
		segment.Text = strings.Replace(segment.Text, anomaly.FlaggedText, correction, 1)
	}
}
