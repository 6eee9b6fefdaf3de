package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"voca-platform/internal/calls"
	"voca-platform/internal/leads"
	"voca-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

// ListCalls returns recent call history joined with lead names.
func (h Handlers) ListCalls(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	items, err := h.Calls.History(c.Request.Context(), limit)
	if err != nil {
		logger.FromGin(c).Error("call history lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call history lookup failed"})
		return
	}
	if items == nil {
		items = []calls.HistoryItem{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": items})
}

// --- Provider read-through proxies ---

// GetCallStatus proxies the provider's live call status. The id here is the
// provider call id, not the local record id.
func (h Handlers) GetCallStatus(c *gin.Context) {
	st, err := h.Provider.GetCall(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetCallMessages proxies the provider's transcript for a call.
func (h Handlers) GetCallMessages(c *gin.Context) {
	turns, err := h.Provider.GetMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "transcript lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": turns})
}

// GetCallRecording resolves the provider's recording URL for a call.
func (h Handlers) GetCallRecording(c *gin.Context) {
	st, err := h.Provider.GetCall(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "recording lookup failed"})
		return
	}
	if st.RecordingURL == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Recording not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordingUrl": st.RecordingURL})
}

// ListVoices proxies the provider voice catalogue untouched.
func (h Handlers) ListVoices(c *gin.Context) {
	raw, err := h.Provider.ListVoices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "voice catalogue lookup failed"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// --- Leads ---

func (h Handlers) ListLeads(c *gin.Context) {
	rows, err := h.Leads.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("lead list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lead lookup failed"})
		return
	}
	if rows == nil {
		rows = []leads.Lead{}
	}
	c.JSON(http.StatusOK, gin.H{"leads": rows})
}

func (h Handlers) GetLead(c *gin.Context) {
	lead, err := h.Leads.GetByID(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, leads.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lead lookup failed"})
		return
	}
	c.JSON(http.StatusOK, lead)
}
