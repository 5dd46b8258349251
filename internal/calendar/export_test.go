package calendar

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/conschedule/internal/scheduler"
)

func TestExport(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.July, 19, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	commitments := []scheduler.Commitment{
		{
			ID:          "d-1",
			EventID:     "evt-1",
			Title:       "Opening ceremony",
			Window:      scheduler.NewTimeWindow(start, end),
			SourceKind:  scheduler.SourceKindDesired,
			SourceLabel: scheduler.SourceKindDesired.Label(),
		},
		{
			ID:         "t-1",
			Title:      "Untimed panel",
			Window:     scheduler.TimeWindow{Start: &start},
			SourceKind: scheduler.SourceKindTracked,
		},
	}

	payload, skipped := Export("My convention", commitments, start.Add(-24*time.Hour))
	if skipped != 1 {
		t.Fatalf("expected one untimed commitment to be skipped, got %d", skipped)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to parse exported calendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}

	event := events[0]
	if event.Id() != UID(commitments[0]) {
		t.Fatalf("unexpected UID %q", event.Id())
	}
	if p := event.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Opening ceremony" {
		t.Fatalf("unexpected summary %+v", p)
	}
	gotStart, err := event.GetStartAt()
	if err != nil || !gotStart.Equal(start) {
		t.Fatalf("unexpected start %v (%v)", gotStart, err)
	}
	gotEnd, err := event.GetEndAt()
	if err != nil || !gotEnd.Equal(end) {
		t.Fatalf("unexpected end %v (%v)", gotEnd, err)
	}
}

func TestExportEmpty(t *testing.T) {
	t.Parallel()

	payload, skipped := Export("", nil, time.Now())
	if skipped != 0 || !strings.Contains(payload, "BEGIN:VCALENDAR") {
		t.Fatalf("expected an empty calendar, got %q", payload)
	}
}
