package events

import "time"

// StatusEvent is one provider status callback as delivered, matched or not.
// Kept append-only so webhook traffic can be audited after the fact, in
// particular deliveries that found no record to reconcile.
type StatusEvent struct {
	ID string `json:"id" db:"id"`

	ProviderCallID  string `json:"provider_call_id" db:"provider_call_id"`
	Status          string `json:"status" db:"status"`
	DurationSeconds int    `json:"duration_seconds" db:"duration_seconds"`

	// Matched records whether reconciliation found a call record for the
	// provider call id at delivery time.
	Matched bool `json:"matched" db:"matched"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
