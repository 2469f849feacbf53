package calendar

import (
	"strings"
	"testing"
	"time"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//meetremind//test//EN
BEGIN:VEVENT
UID:evt-1
DTSTART:20301220T100000Z
SUMMARY:John Doe Meeting
END:VEVENT
BEGIN:VEVENT
UID:evt-2
DTSTART:20301221T143000Z
SUMMARY:Jane Smith Review
END:VEVENT
BEGIN:VEVENT
UID:evt-3
DTSTART:20301222T090000Z
END:VEVENT
END:VCALENDAR
`

func normalizeICS(s string) []byte {
	// ICS requires CRLF line endings.
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseExtractsTitleAndStart(t *testing.T) {
	entries, err := Parse(normalizeICS(sampleICS))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// evt-3 has no summary and is dropped.
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if entries[0].Title != "John Doe Meeting" {
		t.Fatalf("unexpected title %q", entries[0].Title)
	}
	want := time.Date(2030, 12, 20, 10, 0, 0, 0, time.UTC)
	if !entries[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", entries[0].Start, want)
	}
}

func TestParseEmptyBody(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse([]byte("not an ics feed")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
