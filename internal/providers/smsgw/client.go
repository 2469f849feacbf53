package smsgw

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client talks to the SMS gateway's HTTP API. The gateway accepts a
// message submit and later reports the delivery outcome to the status
// callback URL as a signed form POST.
type Client struct {
	AccountID string
	AuthToken string
	HTTP      *http.Client

	FromNumber        string
	BaseURL           string
	StatusCallbackURL string
}

type SendRequest struct {
	To string
	Body string

	// Correlation fields echoed back on the status callback.
	Token     int64
	Remaining int
}

type SendResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) SendSMS(ctx context.Context, req SendRequest) (SendResponse, int, []byte, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("Body", req.Body)
	form.Set("From", c.FromNumber)
	form.Set("Token", strconv.FormatInt(req.Token, 10))
	form.Set("Remaining", strconv.Itoa(req.Remaining))
	if c.StatusCallbackURL != "" {
		form.Set("StatusCallback", c.StatusCallbackURL)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/v1/messages"
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.AccountID, c.AuthToken)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return SendResponse{}, 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	var out SendResponse
	_ = json.Unmarshal(b, &out)

	// Gateway returns 201 for accepted; treat any 2xx as success
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Message != "" {
			return out, resp.StatusCode, b, errors.New(out.Message)
		}
		return out, resp.StatusCode, b, errors.New("gateway send failed")
	}
	return out, resp.StatusCode, b, nil
}

// Ping checks gateway reachability. Used by the startup probe.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("gateway health check returned " + resp.Status)
	}
	return nil
}
