// Package srt renders subtitle segments into SubRip text. The rendered
// layout is a compatibility surface for exported files and must not vary.
package srt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"subfix/internal/jobs"
)

// timestampPattern matches the fixed-width HH:MM:SS,mmm form.
var timestampPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3}$`)

// Render serializes segments as SubRip text. Each entry is rendered as
// "<id>\n<start> --> <end>\n<text>\n" and entries are joined by a blank line.
func Render(segments []jobs.Segment) string {
	entries := make([]string, 0, len(segments))
	for _, segment := range segments {
		entries = append(entries, fmt.Sprintf("%d\n%s --> %s\n%s\n", segment.ID, segment.Start, segment.End, segment.Text))
	}
	return strings.Join(entries, "\n")
}

// ValidTimestamp reports whether value is in the fixed-width HH:MM:SS,mmm
// form used by segment boundaries.
func ValidTimestamp(value string) bool {
	return timestampPattern.MatchString(value)
}

// ParseTimestamp converts an HH:MM:SS,mmm value to seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if !ValidTimestamp(value) {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(value, ",")
	hms := strings.Split(parts[0], ":")
	hours, _ := strconv.Atoi(hms[0])
	minutes, _ := strconv.Atoi(hms[1])
	seconds, _ := strconv.Atoi(hms[2])
	millis, _ := strconv.Atoi(parts[1])
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// FormatTimestamp converts seconds to the fixed-width HH:MM:SS,mmm form.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
