// Package ultravox is the REST adapter for the Ultravox voice-call provider.
//
// Keep it free of business logic: it translates between internal types and the
// provider wire format. Decisions about leads and call records belong to
// internal/dialer.
package ultravox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"voca-platform/internal/qualify"
)

const DefaultBaseURL = "https://api.ultravox.ai/api"

// API is the surface the rest of the system depends on. The concrete Client
// is constructed once at process start and injected by reference.
type API interface {
	CreateCall(ctx context.Context, cfg CallConfig) (CallCreated, error)
	GetCall(ctx context.Context, callID string) (CallStatus, error)
	GetMessages(ctx context.Context, callID string) ([]qualify.Turn, error)
	ListVoices(ctx context.Context) (json.RawMessage, error)
}

// APIError carries a non-success provider response verbatim. It is never
// retried here; the caller decides what to do with it.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ultravox: API error: %d - %s", e.Status, e.Body)
}

// CallConfig is the call-creation request body.
type CallConfig struct {
	SystemPrompt         string            `json:"systemPrompt"`
	Voice                Voice             `json:"voice"`
	LanguageHint         string            `json:"languageHint,omitempty"`
	Medium               Medium            `json:"medium"`
	FirstSpeakerSettings FirstSpeaker      `json:"firstSpeakerSettings"`
	RecordingEnabled     bool              `json:"recordingEnabled"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	Callbacks            *Callbacks        `json:"callbacks,omitempty"`
}

// Medium describes the telephony leg the provider should place.
type Medium struct {
	Twilio TwilioMedium `json:"twilio"`
}

type TwilioMedium struct {
	Outgoing OutgoingLeg `json:"outgoing"`
}

type OutgoingLeg struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// FirstSpeaker controls who opens the conversation. For outbound calls the
// callee answers the phone, so the user speaks first.
type FirstSpeaker struct {
	User *struct{} `json:"user,omitempty"`
}

func UserSpeaksFirst() FirstSpeaker { return FirstSpeaker{User: &struct{}{}} }

type Callbacks struct {
	Ended *CallbackTarget `json:"ended,omitempty"`
}

type CallbackTarget struct {
	URL string `json:"url"`
}

// CallCreated is the provider acknowledgement of a new call.
type CallCreated struct {
	CallID  string `json:"callId"`
	JoinURL string `json:"joinUrl"`
}

// CallStatus is a subset of the provider call resource.
type CallStatus struct {
	CallID       string `json:"callId"`
	Status       string `json:"status"`
	RecordingURL string `json:"recordingUrl,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Error        string `json:"error,omitempty"`
}

type messagesResponse struct {
	Results []qualify.Turn `json:"results"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateCall submits a call-creation request. Any non-2xx response surfaces
// as *APIError with the provider's status and body.
func (c *Client) CreateCall(ctx context.Context, cfg CallConfig) (CallCreated, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return CallCreated{}, fmt.Errorf("ultravox: encode call config: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calls", bytes.NewReader(body))
	if err != nil {
		return CallCreated{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out CallCreated
	if err := c.do(req, &out); err != nil {
		return CallCreated{}, err
	}
	return out, nil
}

// GetCall fetches call status. A 404 is a soft outcome: the call may have been
// garbage-collected upstream, so status "unknown" is returned instead of an error.
func (c *Client) GetCall(ctx context.Context, callID string) (CallStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/calls/"+callID, nil)
	if err != nil {
		return CallStatus{}, err
	}
	var out CallStatus
	if err := c.do(req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return CallStatus{CallID: callID, Status: "unknown", Error: "Call not found"}, nil
		}
		return CallStatus{}, err
	}
	return out, nil
}

// GetMessages fetches the full transcript. A 404 or empty call id yields an
// empty transcript, not an error.
func (c *Client) GetMessages(ctx context.Context, callID string) ([]qualify.Turn, error) {
	if callID == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/calls/"+callID+"/messages", nil)
	if err != nil {
		return nil, err
	}
	var out messagesResponse
	if err := c.do(req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return out.Results, nil
}

// ListVoices returns the provider voice catalogue as raw JSON; the dashboard
// consumes it untouched.
func (c *Client) ListVoices(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ultravox: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ultravox: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("ultravox: decode response: %w", err)
	}
	return nil
}
