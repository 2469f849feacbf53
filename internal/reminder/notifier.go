package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// LogNotifier writes the reminder to the structured log. It is the
// default when no notify URL is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, count int) error {
	slog.Warn("events awaiting notification", "count", count)
	return nil
}

// HTTPNotifier posts the reminder as JSON to an operator-facing endpoint
// (chat webhook, pager bridge, anything that accepts {"count": N}).
type HTTPNotifier struct {
	URL  string
	HTTP *http.Client
}

func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{
		URL:  url,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, count int) error {
	payload, err := json.Marshal(map[string]int{"count": count})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("reminder notify returned " + resp.Status)
	}
	return nil
}
