package telephony

import (
	"context"
	"errors"
	"net/http"

	"autodialer/internal/campaign"
	"autodialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusReconciler applies one provider status event to the matching call
// record. Implemented by campaign.Service.
type StatusReconciler interface {
	ApplyStatusEvent(ctx context.Context, providerCallID, status string, durationSeconds int) (campaign.CallRecord, error)
}

// DeliveryLog records webhook deliveries for diagnostics. Best-effort: a
// failed append never affects the acknowledgment.
type DeliveryLog interface {
	RecordDelivery(ctx context.Context, providerCallID, status string, durationSeconds int, matched bool) error
}

// WebhookHandlers converts provider webhooks to internal types and delegates
// reconciliation. No business logic here.
//
// The provider treats any non-error response as successful delivery and has
// no way to consume a structured error, so the status handler always
// acknowledges: lookup misses and store failures are logged, never surfaced.
type WebhookHandlers struct {
	Reconciler StatusReconciler
	Deliveries DeliveryLog

	// Greeting is the static message rendered for voice instruction
	// requests. DefaultGreeting when empty.
	Greeting string
}

// HandleStatusCallback ingests an asynchronous call status event.
// NOTE: This endpoint should be protected by Twilio signature validation in
// production.
func (h WebhookHandlers) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)
	ack := gin.H{"status": "ok"}

	form, err := ParseStatusCallback(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("status callback unparseable", "err", err)
		c.JSON(http.StatusOK, ack)
		return
	}

	matched := false
	if h.Reconciler == nil {
		log.Error("status callback dropped: reconciler not configured")
	} else {
		rec, err := h.Reconciler.ApplyStatusEvent(c.Request.Context(), form.CallSid, form.CallStatus, form.DurationSeconds)
		switch {
		case err == nil:
			matched = true
			log.Info("call status reconciled",
				"provider_call_id", form.CallSid,
				"status", form.CallStatus,
				"duration_s", form.DurationSeconds,
				"number", rec.Number,
			)
		case errors.Is(err, campaign.ErrNotFound):
			// Expected race: replayed or stale event, or a store cleared
			// since dispatch.
			log.Warn("status callback matched no record", "provider_call_id", form.CallSid, "status", form.CallStatus)
		default:
			log.Error("status callback update failed", "provider_call_id", form.CallSid, "err", err)
		}
	}

	if h.Deliveries != nil {
		if err := h.Deliveries.RecordDelivery(c.Request.Context(), form.CallSid, form.CallStatus, form.DurationSeconds, matched); err != nil {
			log.Warn("delivery log append failed", "err", err)
		}
	}

	c.JSON(http.StatusOK, ack)
}

// HandleVoice serves call instructions (TwiML) when the provider connects a
// campaign call.
func (h WebhookHandlers) HandleVoice(c *gin.Context) {
	greeting := h.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}

	twiml, err := RenderSayTwiML(greeting)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}

	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
