// Package telephony is the carrier-leg adapter. It speaks the Twilio REST API
// directly at the call-leg level (list legs by status, force a leg to end) and
// knows nothing about leads or call records.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.twilio.com/2010-04-01"

// Leg statuses the provider reports for in-flight calls.
const (
	StatusInProgress = "in-progress"
	StatusRinging    = "ringing"
	StatusQueued     = "queued"
	StatusCompleted  = "completed"
)

// LegLister is the subset of the client the terminator needs; kept as an
// interface so tests can stub the provider.
type LegLister interface {
	ListCalls(ctx context.Context, status string, limit int) ([]CallLeg, error)
	CompleteCall(ctx context.Context, sid string) error
}

// CallLeg is one carrier-level call leg.
type CallLeg struct {
	SID    string `json:"sid"`
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

type listCallsResponse struct {
	Calls []CallLeg `json:"calls"`
}

// APIError carries a non-success provider response verbatim.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telephony: API error: %d - %s", e.Status, e.Body)
}

type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	http       *http.Client
}

func NewClient(accountSID, authToken, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// ListCalls returns call legs filtered by provider-side status.
func (c *Client) ListCalls(ctx context.Context, status string, limit int) ([]CallLeg, error) {
	q := url.Values{}
	if status != "" {
		q.Set("Status", status)
	}
	if limit > 0 {
		q.Set("PageSize", strconv.Itoa(limit))
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json?%s", c.baseURL, c.accountSID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var out listCallsResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Calls, nil
}

// CompleteCall sets a leg's status to completed, which is the provider's
// mechanism for hanging up.
func (c *Client) CompleteCall(ctx context.Context, sid string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", c.baseURL, c.accountSID, sid)
	form := url.Values{"Status": {StatusCompleted}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telephony: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("telephony: decode response: %w", err)
	}
	return nil
}
