// Package calendar renders a user's commitments as an iCalendar feed.
package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/conschedule/internal/scheduler"
)

const productID = "-//conschedule//schedule export//EN"

// Export builds a VCALENDAR holding one VEVENT per timed commitment.
// Commitments with an unknown start or end are left out; skipped reports how many.
func Export(name string, commitments []scheduler.Commitment, stamp time.Time) (payload string, skipped int) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, c := range commitments {
		if !c.Window.Complete() {
			skipped++
			continue
		}
		event := cal.AddEvent(UID(c))
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(c.Window.Start.UTC())
		event.SetEndAt(c.Window.End.UTC())
		event.SetSummary(c.Title)
		event.SetProperty(ical.ComponentPropertyCategories, string(c.SourceKind))
		if c.SourceLabel != "" {
			event.SetDescription(c.SourceLabel)
		}
	}

	return cal.Serialize(), skipped
}

// UID identifies a commitment across exports so calendar clients update
// entries in place.
func UID(c scheduler.Commitment) string {
	return fmt.Sprintf("%s-%s@conschedule", c.SourceKind, c.ID)
}
