package main

import (
	"autodialer/internal/httpapi"
	"autodialer/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to
// internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, wh telephony.WebhookHandlers) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature
	// validation in production. Twilio fetches voice instructions with GET
	// or POST depending on account configuration, so both are routed.
	r.POST("/webhooks/twilio/status", wh.HandleStatusCallback)
	r.GET("/webhooks/twilio/voice", wh.HandleVoice)
	r.POST("/webhooks/twilio/voice", wh.HandleVoice)

	// Control API. Authentication is intentionally absent; the service is
	// expected to sit behind a private network boundary.
	v1 := r.Group("/v1")
	{
		numbers := v1.Group("/numbers")
		{
			numbers.POST("", h.IngestNumbers)
			numbers.GET("", h.ListNumbers)
		}

		calls := v1.Group("/calls")
		{
			calls.POST("/ai", h.DispatchOne)
			calls.POST("/bulk", h.DispatchBulk)
			calls.GET("/stats", h.CallStats)
			calls.GET("/export", h.ExportCalls)
			calls.POST("/clear", h.ClearAll)
		}

		articles := v1.Group("/articles")
		{
			articles.POST("", h.GenerateArticle)
			articles.POST("/bulk", h.GenerateArticlesBulk)
			articles.GET("", h.ListArticles)
			articles.GET("/:slug", h.GetArticle)
		}
	}
}
