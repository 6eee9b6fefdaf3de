package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voca-platform/internal/agents"
	"voca-platform/internal/calls"
	"voca-platform/internal/dialer"
	"voca-platform/internal/leads"
	"voca-platform/internal/qualify"
	"voca-platform/internal/telephony"
	"voca-platform/internal/ultravox"

	"github.com/gin-gonic/gin"
)

type stubProvider struct {
	created   ultravox.CallCreated
	createErr error
	status    ultravox.CallStatus
	turns     []qualify.Turn
	msgErr    error
}

func (s *stubProvider) CreateCall(ctx context.Context, cfg ultravox.CallConfig) (ultravox.CallCreated, error) {
	if s.createErr != nil {
		return ultravox.CallCreated{}, s.createErr
	}
	return s.created, nil
}

func (s *stubProvider) GetCall(ctx context.Context, callID string) (ultravox.CallStatus, error) {
	return s.status, nil
}

func (s *stubProvider) GetMessages(ctx context.Context, callID string) ([]qualify.Turn, error) {
	return s.turns, s.msgErr
}

func (s *stubProvider) ListVoices(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[{"voiceId":"terrence"}]`), nil
}

type stubLegs struct {
	legs      []telephony.CallLeg
	completed []string
}

func (s *stubLegs) ListCalls(ctx context.Context, status string, limit int) ([]telephony.CallLeg, error) {
	var out []telephony.CallLeg
	for _, l := range s.legs {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLegs) CompleteCall(ctx context.Context, sid string) error {
	s.completed = append(s.completed, sid)
	return nil
}

type env struct {
	provider *stubProvider
	legs     *stubLegs
	calls    *calls.MemoryStore
	leads    *leads.MemoryStore
	router   *gin.Engine
}

func newEnv(t *testing.T, secret string) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		provider: &stubProvider{created: ultravox.CallCreated{CallID: "uv-1", JoinURL: "https://join/x"}},
		legs:     &stubLegs{},
		calls:    calls.NewMemoryStore(),
		leads:    leads.NewMemoryStore(),
	}
	svc := dialer.NewService(e.provider, e.calls, e.leads, agents.NewMemoryStore(), nil, dialer.Config{
		FromNumber:         "+15550001111",
		DefaultCountryCode: "+91",
	}, nil)

	h := Handlers{
		Dialer:        svc,
		Terminator:    telephony.NewTerminator(e.legs, nil),
		Provider:      e.provider,
		Calls:         e.calls,
		Leads:         e.leads,
		WebhookSecret: secret,
	}

	r := gin.New()
	r.POST("/webhooks/ultravox/call-ended", h.CallEnded)
	r.POST("/v1/outbound-call", h.StartOutboundCall)
	r.POST("/v1/end-call", h.EndCall)
	r.POST("/v1/calls/:id/finalize", h.FinalizeCall)
	r.GET("/v1/calls", h.ListCalls)
	r.GET("/v1/calls/:id/recording", h.GetCallRecording)
	r.GET("/v1/voices", h.ListVoices)
	r.GET("/v1/leads/:id", h.GetLead)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func TestStartOutboundCall(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodPost, "/v1/outbound-call", `{"phoneNumber":"9876543210"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["success"] != true || m["ultravoxCallId"] != "uv-1" || m["status"] != "initiated" {
		t.Fatalf("body = %v", m)
	}
	if m["dbCallId"] == "" {
		t.Fatalf("expected persisted record id")
	}
}

func TestStartOutboundCall_InvalidPhone(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodPost, "/v1/outbound-call", `{"phoneNumber":"123"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStartOutboundCall_ProviderFailure(t *testing.T) {
	e := newEnv(t, "")
	e.provider.createErr = &ultravox.APIError{Status: 503, Body: "overloaded"}
	w := e.do(t, http.MethodPost, "/v1/outbound-call", `{"phoneNumber":"9876543210"}`, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestEndCall(t *testing.T) {
	e := newEnv(t, "")
	e.legs.legs = []telephony.CallLeg{{SID: "CA1", To: "+919876543210", Status: telephony.StatusInProgress}}

	w := e.do(t, http.MethodPost, "/v1/end-call", `{"phoneNumber":"+919876543210"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if m := decode(t, w); m["callSid"] != "CA1" {
		t.Fatalf("body = %v", m)
	}
	if len(e.legs.completed) != 1 {
		t.Fatalf("leg not completed: %+v", e.legs)
	}
}

func TestEndCall_NoActiveCall(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodPost, "/v1/end-call", `{"phoneNumber":"+919876543210"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if m := decode(t, w); m["error"] != "No active call found" {
		t.Fatalf("body = %v", m)
	}
}

func TestCallEnded_SecretRequired(t *testing.T) {
	e := newEnv(t, "whsec")
	w := e.do(t, http.MethodPost, "/webhooks/ultravox/call-ended", `{"callId":"uv-1"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	w = e.do(t, http.MethodPost, "/webhooks/ultravox/call-ended", `{"callId":"uv-1"}`,
		map[string]string{"X-Webhook-Secret": "whsec"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestCallEnded_FinalizesRecord(t *testing.T) {
	e := newEnv(t, "")
	start := e.do(t, http.MethodPost, "/v1/outbound-call", `{"phoneNumber":"9876543210"}`, nil)
	recID := decode(t, start)["dbCallId"].(string)

	e.provider.turns = []qualify.Turn{{Role: "user", Text: "yes I'm interested, send me the details"}}
	w := e.do(t, http.MethodPost, "/webhooks/ultravox/call-ended",
		`{"call":{"callId":"uv-1","endReason":"hangup","duration":"42.7s"}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if m := decode(t, w); m["success"] != true {
		t.Fatalf("body = %v", m)
	}

	rec, err := e.calls.GetByID(context.Background(), recID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Status != calls.StatusCompleted || rec.DurationSeconds == nil || *rec.DurationSeconds != 42 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestCallEnded_TranscriptFailureRetriable(t *testing.T) {
	e := newEnv(t, "")
	e.do(t, http.MethodPost, "/v1/outbound-call", `{"phoneNumber":"9876543210"}`, nil)

	e.provider.msgErr = &ultravox.APIError{Status: 500, Body: "boom"}
	w := e.do(t, http.MethodPost, "/webhooks/ultravox/call-ended", `{"callId":"uv-1"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestFinalizeCall_UnknownRecord(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodPost, "/v1/calls/nope/finalize", `{}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListCalls(t *testing.T) {
	e := newEnv(t, "")
	e.do(t, http.MethodPost, "/v1/outbound-call", `{"phoneNumber":"9876543210"}`, nil)

	w := e.do(t, http.MethodGet, "/v1/calls", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	m := decode(t, w)
	if items, ok := m["calls"].([]any); !ok || len(items) != 1 {
		t.Fatalf("body = %v", m)
	}
}

func TestGetCallRecording_NotAvailable(t *testing.T) {
	e := newEnv(t, "")
	e.provider.status = ultravox.CallStatus{CallID: "uv-1", Status: "done"}
	w := e.do(t, http.MethodGet, "/v1/calls/uv-1/recording", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListVoices_PassThrough(t *testing.T) {
	e := newEnv(t, "")
	w := e.do(t, http.MethodGet, "/v1/voices", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "terrence") {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestGetLead(t *testing.T) {
	e := newEnv(t, "")
	e.leads.Put(leads.Lead{ID: "l1", Name: "Priya", Status: leads.StatusNew})

	w := e.do(t, http.MethodGet, "/v1/leads/l1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/v1/leads/ghost", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
