// Package matcher reconciles the external calendar with stored contacts
// and events. Calendar titles are untrusted text; anything that does not
// tokenize cleanly is skipped rather than reported as an error.
package matcher

import (
	"strings"
	"time"

	"meetremind/internal/domain"
)

// MatchContacts pairs each contact with its first matching calendar entry,
// in calendar order. A title matches when its first token equals the first
// token of the contact's first name and its second token equals the last
// name, exact and case-sensitive. Contacts without a match produce no row.
func MatchContacts(contacts []domain.Contact, entries []domain.CalendarEntry) []domain.Match {
	matches := make([]domain.Match, 0, len(contacts))
	for _, c := range contacts {
		nameTokens := strings.Fields(c.FirstName)
		if len(nameTokens) == 0 {
			continue
		}
		for _, e := range entries {
			titleTokens := strings.Fields(e.Title)
			if len(titleTokens) < 2 {
				continue
			}
			if titleTokens[0] == nameTokens[0] && titleTokens[1] == c.LastName {
				// Same zone normalization as StaleEvents, so a synced
				// event is never pruned by the entry that produced it.
				start := e.Start.In(time.Local)
				matches = append(matches, domain.Match{
					ContactID: c.ID,
					Date:      start.Format(domain.DateLayout),
					Time:      start.Format(domain.TimeLayout),
				})
				break
			}
		}
	}
	return matches
}

// StaleEvents returns the stored events that are strictly in the future
// but no longer present in the calendar, comparing combined date+time
// instants at minute precision. Past events are left alone.
func StaleEvents(stored []domain.Event, entries []domain.CalendarEntry, now time.Time) []domain.Event {
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		known[e.Start.In(time.Local).Format(domain.InstantLayout)] = struct{}{}
	}

	var stale []domain.Event
	for _, ev := range stored {
		inst, err := ev.Instant()
		if err != nil {
			continue
		}
		if !inst.After(now) {
			continue
		}
		if _, ok := known[inst.Format(domain.InstantLayout)]; !ok {
			stale = append(stale, ev)
		}
	}
	return stale
}
