package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioDefaultBaseURL = "https://api.twilio.com"

// TwilioProvider places calls through the Twilio REST API. It speaks plain
// HTTP on purpose; the SDK stays out of this codebase.
type TwilioProvider struct {
	accountSID string
	authToken  string

	baseURL    string
	httpClient *http.Client
}

type TwilioOption func(*TwilioProvider)

// WithBaseURL points the adapter at a different API host. Test use mostly.
func WithBaseURL(u string) TwilioOption {
	return func(p *TwilioProvider) { p.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) TwilioOption {
	return func(p *TwilioProvider) { p.httpClient = c }
}

// NewTwilioProvider builds the adapter. timeout bounds every request so a
// provider that never answers becomes a dispatch failure, not a stuck
// goroutine.
func NewTwilioProvider(accountSID, authToken string, timeout time.Duration, opts ...TwilioOption) *TwilioProvider {
	p := &TwilioProvider{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    twilioDefaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twilio health check: http %d", resp.StatusCode)
	}
	return nil
}

// ProviderError is a call placement rejected by the provider itself, as
// opposed to a transport failure.
type ProviderError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("twilio: create call rejected: %s (code %d, http %d)", e.Message, e.Code, e.HTTPStatus)
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", req.VoiceURL)
	form.Set("StatusCallback", req.StatusCallbackURL)
	form.Set("StatusCallbackMethod", http.MethodPost)
	for _, ev := range req.StatusCallbackEvents {
		form.Add("StatusCallbackEvent", ev)
	}

	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, err
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("twilio: create call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("twilio: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		// Twilio error bodies are JSON; fall back to the raw body if not.
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return PlaceCallResult{}, &ProviderError{
			HTTPStatus: resp.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}
	}

	var created struct {
		Sid    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return PlaceCallResult{}, fmt.Errorf("twilio: decode response: %w", err)
	}
	if created.Sid == "" {
		return PlaceCallResult{}, fmt.Errorf("twilio: response missing call sid")
	}

	return PlaceCallResult{ProviderCallID: created.Sid, Status: created.Status}, nil
}
