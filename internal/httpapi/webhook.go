package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"voca-platform/internal/dialer"
	"voca-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const webhookSecretHeader = "X-Webhook-Secret"

// flexSeconds tolerates the provider's duration in any of its observed
// shapes: integer seconds, float seconds, or a string like "42.5s".
type flexSeconds int

func (f *flexSeconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.TrimSuffix(s, "s")
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		*f = flexSeconds(v)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexSeconds(int(v))
		return nil
	}
	// Unparseable duration is not worth failing the whole webhook over.
	*f = 0
	return nil
}

// callEndedPayload tolerates both flat and envelope-style webhook bodies:
// the provider nests the call resource under "call", older deliveries and
// manual replays put the fields at the top level.
type callEndedPayload struct {
	CallID    string      `json:"callId"`
	EndReason string      `json:"endReason"`
	Duration  flexSeconds `json:"duration"`

	Call *struct {
		CallID    string      `json:"callId"`
		EndReason string      `json:"endReason"`
		Duration  flexSeconds `json:"duration"`
	} `json:"call"`
}

// CallEnded handles the provider's end-of-call webhook. It answers
// {"success":true} whenever local processing ran, even if nothing was
// updated; only a transcript fetch failure returns 5xx so the provider
// retries the delivery.
func (h Handlers) CallEnded(c *gin.Context) {
	if h.WebhookSecret != "" {
		got := c.GetHeader(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
			logger.FromGin(c).Warn("webhook rejected: bad secret")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid webhook secret"})
			return
		}
	}

	var p callEndedPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if p.Call != nil {
		if p.CallID == "" {
			p.CallID = p.Call.CallID
		}
		if p.EndReason == "" {
			p.EndReason = p.Call.EndReason
		}
		if p.Duration == 0 {
			p.Duration = p.Call.Duration
		}
	}
	if p.CallID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "callId is required"})
		return
	}

	err := h.Dialer.CompleteCall(c.Request.Context(), dialer.CallEndedEvent{
		CallID:          p.CallID,
		EndReason:       p.EndReason,
		DurationSeconds: int(p.Duration),
	})
	if err != nil {
		// 5xx makes the provider redeliver; CompleteCall only errors before
		// any state changed.
		logger.FromGin(c).Error("call-ended processing failed", "call_id", p.CallID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "call processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
