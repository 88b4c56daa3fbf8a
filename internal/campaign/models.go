package campaign

import "time"

// CallRecord tracks one destination number through the outbound campaign.
//
// Correlation invariant: ProviderCallID is empty while pending, set exactly
// once at dispatch, and is the only key used to match asynchronous status
// callbacks back to the record.
//
// State invariant: State only moves forward along
// pending -> calling -> terminal; a record is never put back to pending.
type CallRecord struct {
	ID     int64  `json:"id" db:"id"`
	Number string `json:"number" db:"number"`

	State CallState `json:"state" db:"status"`

	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	// DurationSeconds stays 0 until a terminal event supplies one.
	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// DispatchedAt is set once, at the transition out of pending.
	DispatchedAt *time.Time `json:"dispatched_at,omitempty" db:"dispatched_at"`

	// Notes carries free-text diagnostics (dispatch error text, raw
	// unrecognized provider statuses).
	Notes string `json:"notes,omitempty" db:"notes"`
}

type CallState string

const (
	CallStatePending   CallState = "pending"
	CallStateCalling   CallState = "calling"
	CallStateCompleted CallState = "completed"
	CallStateFailed    CallState = "failed"
	CallStateBusy      CallState = "busy"
	CallStateNoAnswer  CallState = "no-answer"

	// CallStateUnknown tags provider statuses outside the known set instead
	// of trusting arbitrary external strings as canonical state. The raw
	// status is preserved in Notes.
	CallStateUnknown CallState = "unknown"
)

// Terminal reports whether no further automatic transition occurs.
func (s CallState) Terminal() bool {
	switch s {
	case CallStateCompleted, CallStateFailed, CallStateBusy, CallStateNoAnswer:
		return true
	default:
		return false
	}
}

// MapProviderStatus validates a provider status string at the boundary.
// Recognized statuses map onto terminal states; anything else yields
// CallStateUnknown and ok=false so callers can keep the raw value around.
func MapProviderStatus(status string) (state CallState, ok bool) {
	switch status {
	case "completed":
		return CallStateCompleted, true
	case "failed":
		return CallStateFailed, true
	case "busy":
		return CallStateBusy, true
	case "no-answer":
		return CallStateNoAnswer, true
	default:
		return CallStateUnknown, false
	}
}
