package httpapi

import (
	"errors"
	"net/http"
	"time"

	"voca-platform/internal/auth"
	"voca-platform/internal/calls"
	"voca-platform/internal/dialer"
	"voca-platform/internal/leads"
	"voca-platform/internal/telephony"
	"voca-platform/internal/ultravox"
	"voca-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Dialer     *dialer.Service
	Terminator *telephony.Terminator
	Provider   ultravox.API
	Calls      calls.Store
	Leads      leads.Store

	// WebhookSecret, when set, must match the X-Webhook-Secret header on
	// inbound provider webhooks.
	WebhookSecret string
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Outbound calls ---

type outboundCallRequest struct {
	PhoneNumber  string `json:"phoneNumber"`
	LeadID       string `json:"leadId"`
	AgentID      string `json:"agentId"`
	SystemPrompt string `json:"systemPrompt"`
	Voice        string `json:"voice"`
	LanguageHint string `json:"languageHint"`
}

// StartOutboundCall dispatches one AI voice call to the given number.
func (h Handlers) StartOutboundCall(c *gin.Context) {
	var req outboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}

	res, err := h.Dialer.Dispatch(c.Request.Context(), dialer.DispatchRequest{
		PhoneNumber:  req.PhoneNumber,
		LeadID:       req.LeadID,
		AgentID:      req.AgentID,
		SystemPrompt: req.SystemPrompt,
		Voice:        req.Voice,
		LanguageHint: req.LanguageHint,
	})
	switch {
	case errors.Is(err, dialer.ErrInvalidPhone):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Valid phone number is required"})
		return
	case errors.Is(err, dialer.ErrLeadBusy):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "A call for this lead is already in progress"})
		return
	case err != nil:
		var apiErr *ultravox.APIError
		if errors.As(err, &apiErr) {
			logger.FromGin(c).Warn("provider rejected call", "status", apiErr.Status)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"success": false, "error": apiErr.Error()})
			return
		}
		logger.FromGin(c).Error("outbound call dispatch failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to initiate call"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"callSid":        res.ExternalCallID,
		"ultravoxCallId": res.ExternalCallID,
		"joinUrl":        res.JoinURL,
		"status":         "initiated",
		"dbCallId":       res.RecordID,
	})
}

type endCallRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// EndCall hangs up the in-flight telephony leg for the given number.
// The call record is finalized by the provider webhook (or the client's
// follow-up finalize request), not here.
func (h Handlers) EndCall(c *gin.Context) {
	var req endCallRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PhoneNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Phone number is required"})
		return
	}

	sid, err := h.Terminator.EndByPhoneNumber(c.Request.Context(), req.PhoneNumber)
	switch {
	case errors.Is(err, telephony.ErrNoActiveCall):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "No active call found"})
		return
	case err != nil:
		logger.FromGin(c).Error("call termination failed", "phone", req.PhoneNumber, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to end call"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "callSid": sid})
}

type finalizeRequest struct {
	Note string `json:"note"`
}

// FinalizeCall closes a call record after an operator-initiated hangup.
func (h Handlers) FinalizeCall(c *gin.Context) {
	var req finalizeRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	err := h.Dialer.FinalizeManual(c.Request.Context(), c.Param("id"), req.Note)
	switch {
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "Call not found"})
		return
	case err != nil:
		logger.FromGin(c).Error("manual finalize failed", "record_id", c.Param("id"), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to finalize call"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
