package campaign

import "testing"

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		status string
		want   CallState
		ok     bool
	}{
		{"completed", CallStateCompleted, true},
		{"failed", CallStateFailed, true},
		{"busy", CallStateBusy, true},
		{"no-answer", CallStateNoAnswer, true},
		{"in-progress", CallStateUnknown, false},
		{"", CallStateUnknown, false},
		{"COMPLETED", CallStateUnknown, false},
	}
	for _, tt := range tests {
		state, ok := MapProviderStatus(tt.status)
		if state != tt.want || ok != tt.ok {
			t.Fatalf("MapProviderStatus(%q) = (%q, %v), want (%q, %v)", tt.status, state, ok, tt.want, tt.ok)
		}
	}
}

func TestCallStateTerminal(t *testing.T) {
	terminal := []CallState{CallStateCompleted, CallStateFailed, CallStateBusy, CallStateNoAnswer}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %q terminal", s)
		}
	}
	for _, s := range []CallState{CallStatePending, CallStateCalling, CallStateUnknown} {
		if s.Terminal() {
			t.Fatalf("expected %q non-terminal", s)
		}
	}
}
