package telephony

import "context"

// Provider defines the provider-agnostic interface the dialer places calls
// through.
//
// Rules:
//   - No provider SDK calls outside telephony adapters.
//   - Keep request/response types provider-agnostic.
//   - Status events for a placed call arrive asynchronously at the status
//     callback URL supplied here. The provider only starts delivering them
//     after it has accepted the placement request and returned the call id,
//     which is what lets the dispatcher persist the correlation id before any
//     callback can look for it. A callback that still finds no record is a
//     normal race, not a bug.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
}

type PlaceCallRequest struct {
	// To and From are the destination and caller ID (E.164 where possible).
	To   string `json:"to"`
	From string `json:"from"`

	// VoiceURL is fetched by the provider for call instructions once the
	// callee answers.
	VoiceURL string `json:"voice_url"`

	// StatusCallbackURL receives asynchronous lifecycle events for this call.
	StatusCallbackURL string `json:"status_callback_url"`

	// StatusCallbackEvents selects which lifecycle events the provider
	// delivers. Bulk runs request only "completed" to keep webhook volume
	// down; single dispatches ask for the full lifecycle.
	StatusCallbackEvents []string `json:"status_callback_events"`
}

type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for the placed
	// call, the sole correlation key for later status events.
	ProviderCallID string `json:"provider_call_id"`

	// Status is the provider's initial status for the call (e.g. "queued").
	Status string `json:"status"`
}
