package scheduler

import (
	"strings"
	"time"
)

// TimeWindow is a span of absolute time. A nil bound means the time is unknown.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

// NewTimeWindow builds a complete window from two instants.
func NewTimeWindow(start, end time.Time) TimeWindow {
	s, e := start, end
	return TimeWindow{Start: &s, End: &e}
}

// Complete reports whether both bounds are known.
func (w TimeWindow) Complete() bool {
	return w.Start != nil && w.End != nil
}

// Valid reports whether the window is complete and starts strictly before it ends.
func (w TimeWindow) Valid() bool {
	return w.Complete() && w.Start.Before(*w.End)
}

// Overlaps reports whether two windows share any instant. Windows that merely
// touch (one ends exactly when the other starts) do not overlap, and a window
// with an unknown bound never overlaps anything.
func Overlaps(a, b TimeWindow) bool {
	if !a.Complete() || !b.Complete() {
		return false
	}
	return a.Start.Before(*b.End) && a.End.After(*b.Start)
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseInstant parses a stored timestamp. Empty or malformed input yields nil;
// layouts without a zone are read as UTC.
func ParseInstant(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// FormatInstant renders an instant in the storage layout. A nil instant renders empty.
func FormatInstant(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
