// Package calendar supplies meeting entries from an external ICS feed.
// The feed is read-only input; individual malformed VEVENTs are logged
// and skipped.
package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"meetremind/internal/domain"
)

// Provider abstracts the calendar source so tests can feed static entries.
type Provider interface {
	Entries(ctx context.Context) ([]domain.CalendarEntry, error)
}

// ICSFeed fetches and parses a single ICS subscription URL.
type ICSFeed struct {
	URL    string
	Client *http.Client
}

func NewICSFeed(url string, timeout time.Duration) *ICSFeed {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ICSFeed{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (f *ICSFeed) Entries(ctx context.Context) ([]domain.CalendarEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching calendar: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return Parse(body)
}

// Parse extracts (title, start) pairs from an ICS payload. Events without
// a summary or a parseable DTSTART are dropped.
func Parse(body []byte) ([]domain.CalendarEntry, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	entries := make([]domain.CalendarEntry, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		var title string
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			title = p.Value
		}
		if title == "" {
			continue
		}

		start, err := ve.GetStartAt()
		if err != nil {
			slog.Warn("skipping calendar entry without parseable start", "title", title, "err", err)
			continue
		}

		entries = append(entries, domain.CalendarEntry{
			Title: title,
			Start: start.In(time.Local),
		})
	}
	return entries, nil
}
