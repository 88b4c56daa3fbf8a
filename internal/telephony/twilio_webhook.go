package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// StatusCallbackForm captures the subset of Twilio status callback fields we
// care about. Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/api/call-resource#statuscallback
//
// Keep it minimal and provider-adapter-only. Reconciliation decisions are not
// made here.
type StatusCallbackForm struct {
	CallSid         string
	CallStatus      string
	DurationSeconds int

	From string
	To   string
}

func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	f := StatusCallbackForm{
		CallSid:    strings.TrimSpace(r.PostFormValue("CallSid")),
		CallStatus: strings.TrimSpace(r.PostFormValue("CallStatus")),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
	}
	// CallDuration is only present on terminal events; absent or garbage
	// counts as zero.
	if v := strings.TrimSpace(r.PostFormValue("CallDuration")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.DurationSeconds = n
		}
	}
	return f, nil
}
