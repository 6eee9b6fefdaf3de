package main

import (
	"voca-platform/internal/auth"
	"voca-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public; guarded by the shared webhook secret when set).
	r.POST("/webhooks/ultravox/call-ended", h.CallEnded)

	// AUTH routes (token issuance).
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// Outbound dialing
		v1.POST("/outbound-call", h.StartOutboundCall)
		v1.POST("/end-call", h.EndCall)

		// Call records and provider read-throughs
		callsGroup := v1.Group("/calls")
		{
			callsGroup.GET("", h.ListCalls)
			callsGroup.POST("/:id/finalize", h.FinalizeCall)
			callsGroup.GET("/:id/status", h.GetCallStatus)
			callsGroup.GET("/:id/messages", h.GetCallMessages)
			callsGroup.GET("/:id/recording", h.GetCallRecording)
		}

		v1.GET("/voices", h.ListVoices)

		// Leads backing the dashboard
		leadsGroup := v1.Group("/leads")
		{
			leadsGroup.GET("", h.ListLeads)
			leadsGroup.GET("/:id", h.GetLead)
		}
	}
}
