// Package dialer orchestrates outbound AI voice calls: it turns a lead and an
// agent persona into a provider call request, tracks the call record through
// its webhook-driven lifecycle, and applies transcript qualification to the
// lead once the call ends.
package dialer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voca-platform/internal/agents"
	"voca-platform/internal/calls"
	"voca-platform/internal/leads"
	"voca-platform/internal/phone"
	"voca-platform/internal/qualify"
	"voca-platform/internal/ultravox"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPhone covers a missing or implausible destination number.
	// Rejected synchronously; the provider is never contacted.
	ErrInvalidPhone = errors.New("dialer: invalid phone number")

	// ErrLeadBusy means a call for this lead is already in flight.
	ErrLeadBusy = errors.New("dialer: a call for this lead is already in progress")
)

// defaultSystemPrompt is used when neither an explicit prompt nor a persona
// script is supplied.
const defaultSystemPrompt = `You are a friendly sales representative for VOCA Solar.
Your goal is to introduce yourself and gauge the customer's interest in solar energy solutions.
Be natural, conversational, and listen carefully to their responses.
Ask about their current energy costs and if they've considered solar before.
If they're interested, offer to schedule a follow-up call with a specialist.
Speak naturally and don't be pushy.`

const (
	defaultVoice        = "terrence"
	defaultLanguageHint = "en-US"
	initialCallSummary  = "Call initiated via Ultravox"
)

// Config is the static dispatch configuration.
type Config struct {
	// FromNumber is the telephony origin number (E.164).
	FromNumber string
	// CallbackBaseURL is the externally reachable base URL used to register
	// the end-of-call callback. Empty disables webhooks: calls then never
	// auto-finalize.
	CallbackBaseURL string
	// DefaultCountryCode is applied by the phone normalizer fallback rule.
	DefaultCountryCode string
}

// Service is the orchestration engine. Provider clients and stores are
// injected once at process start and shared by reference; the service itself
// holds no per-call state.
type Service struct {
	uv     ultravox.API
	calls  calls.Store
	leads  leads.Store
	agents agents.Store
	locks  LeadLocker
	rules  qualify.Ruleset
	cfg    Config
	log    *slog.Logger
	clock  func() time.Time
}

func NewService(uv ultravox.API, callStore calls.Store, leadStore leads.Store, agentStore agents.Store, locks LeadLocker, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		uv:     uv,
		calls:  callStore,
		leads:  leadStore,
		agents: agentStore,
		locks:  locks,
		rules:  qualify.DefaultRuleset(),
		cfg:    cfg,
		log:    log,
		clock:  time.Now,
	}
}

// DispatchRequest describes one outbound call. SystemPrompt, Voice and
// LanguageHint override the persona when set.
type DispatchRequest struct {
	PhoneNumber  string
	LeadID       string
	AgentID      string
	SystemPrompt string
	Voice        string
	LanguageHint string
}

type DispatchResult struct {
	ExternalCallID string
	JoinURL        string
	RecordID       string
}

// Dispatch composes and submits the provider call request, then persists the
// call record. One network call, one insert, no retries: a dispatch failure
// surfaces to the caller as-is.
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if req.PhoneNumber == "" {
		return DispatchResult{}, fmt.Errorf("%w: phone number is required", ErrInvalidPhone)
	}
	toNumber, err := phone.Normalize(req.PhoneNumber, s.cfg.DefaultCountryCode)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %q", ErrInvalidPhone, req.PhoneNumber)
	}

	prompt, voiceID, langHint, err := s.resolvePersona(ctx, req)
	if err != nil {
		return DispatchResult{}, err
	}

	if req.LeadID != "" && s.locks != nil {
		ok, err := s.locks.Acquire(ctx, req.LeadID)
		if err != nil {
			return DispatchResult{}, fmt.Errorf("dialer: lead lock: %w", err)
		}
		if !ok {
			return DispatchResult{}, ErrLeadBusy
		}
	}

	cfg := ultravox.CallConfig{
		SystemPrompt: prompt,
		Voice:        ultravox.ResolveVoice(voiceID),
		LanguageHint: langHint,
		Medium: ultravox.Medium{Twilio: ultravox.TwilioMedium{Outgoing: ultravox.OutgoingLeg{
			To:   toNumber,
			From: s.cfg.FromNumber,
		}}},
		FirstSpeakerSettings: ultravox.UserSpeaksFirst(),
		RecordingEnabled:     true,
		Metadata:             map[string]string{"leadId": req.LeadID, "agentId": req.AgentID},
	}
	if s.cfg.CallbackBaseURL != "" {
		cfg.Callbacks = &ultravox.Callbacks{
			Ended: &ultravox.CallbackTarget{URL: s.cfg.CallbackBaseURL + "/webhooks/ultravox/call-ended"},
		}
	}

	created, err := s.uv.CreateCall(ctx, cfg)
	if err != nil {
		s.unlock(ctx, req.LeadID)
		return DispatchResult{}, err
	}
	s.log.Info("outbound call created", "call_id", created.CallID, "to", toNumber, "lead_id", req.LeadID)

	rec := calls.Record{
		ID:             uuid.NewString(),
		LeadID:         req.LeadID,
		ExternalCallID: created.CallID,
		StartedAt:      s.clock().UTC(),
		Status:         calls.StatusOngoing,
		Summary:        initialCallSummary,
	}
	if err := s.calls.Insert(ctx, rec); err != nil {
		// The provider call is already live; failing to log it must not look
		// like a successful dispatch.
		s.unlock(ctx, req.LeadID)
		return DispatchResult{}, fmt.Errorf("dialer: persist call record: %w", err)
	}

	return DispatchResult{
		ExternalCallID: created.CallID,
		JoinURL:        created.JoinURL,
		RecordID:       rec.ID,
	}, nil
}

// resolvePersona produces the effective prompt, voice id and language hint
// from explicit overrides, the persona, and defaults, in that order.
func (s *Service) resolvePersona(ctx context.Context, req DispatchRequest) (prompt, voiceID, langHint string, err error) {
	prompt = req.SystemPrompt
	voiceID = req.Voice
	langHint = req.LanguageHint

	if req.AgentID != "" && (prompt == "" || voiceID == "") {
		persona, perr := s.agents.GetByID(ctx, req.AgentID)
		switch {
		case errors.Is(perr, agents.ErrNotFound):
			s.log.Warn("agent not found, using defaults", "agent_id", req.AgentID)
		case perr != nil:
			return "", "", "", fmt.Errorf("dialer: load agent: %w", perr)
		default:
			if prompt == "" && persona.Script != "" {
				var leadName, businessName string
				if req.LeadID != "" {
					lead, lerr := s.leads.GetByID(ctx, req.LeadID)
					switch {
					case errors.Is(lerr, leads.ErrNotFound):
						s.log.Warn("lead not found for script render", "lead_id", req.LeadID)
					case lerr != nil:
						return "", "", "", fmt.Errorf("dialer: load lead: %w", lerr)
					default:
						leadName, businessName = lead.Name, lead.BusinessName
					}
				}
				prompt = persona.RenderScript(leadName, businessName)
			}
			if voiceID == "" {
				voiceID = persona.VoiceID
			}
		}
	}

	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	if voiceID == "" {
		voiceID = defaultVoice
	}
	if langHint == "" {
		langHint = defaultLanguageHint
	}
	return prompt, voiceID, langHint, nil
}

func (s *Service) unlock(ctx context.Context, leadID string) {
	if leadID != "" && s.locks != nil {
		s.locks.Release(ctx, leadID)
	}
}
