package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"autodialer/internal/campaign"

	"github.com/gin-gonic/gin"
)

type recordedDelivery struct {
	ProviderCallID string
	Status         string
	Matched        bool
}

type fakeDeliveryLog struct {
	mu         sync.Mutex
	deliveries []recordedDelivery
}

func (f *fakeDeliveryLog) RecordDelivery(_ context.Context, providerCallID, status string, _ int, matched bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, recordedDelivery{providerCallID, status, matched})
	return nil
}

func webhookRouter(wh WebhookHandlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/twilio/status", wh.HandleStatusCallback)
	r.GET("/webhooks/twilio/voice", wh.HandleVoice)
	return r
}

func postStatusCallback(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedCallingRecord(t *testing.T, repo campaign.Repository, number, providerCallID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.Insert(ctx, campaign.NewPendingRecord(number, time.Unix(1700000000, 0).UTC())); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := repo.UpdateByNumber(ctx, number, func(r *campaign.CallRecord) {
		r.State = campaign.CallStateCalling
		r.ProviderCallID = providerCallID
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestHandleStatusCallback_ReconcilesMatchingRecord(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	svc := campaign.NewService(repo)
	deliveries := &fakeDeliveryLog{}
	r := webhookRouter(WebhookHandlers{Reconciler: svc, Deliveries: deliveries})

	seedCallingRecord(t, repo, "+15551234567", "CA123")

	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("CallStatus", "completed")
	form.Set("CallDuration", "42")
	w := postStatusCallback(r, form)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	records, _ := repo.ListAll(context.Background())
	if records[0].State != campaign.CallStateCompleted || records[0].DurationSeconds != 42 {
		t.Fatalf("record not reconciled: %+v", records[0])
	}

	if len(deliveries.deliveries) != 1 {
		t.Fatalf("expected 1 logged delivery, got %d", len(deliveries.deliveries))
	}
	if d := deliveries.deliveries[0]; !d.Matched || d.ProviderCallID != "CA123" {
		t.Fatalf("unexpected delivery: %+v", d)
	}
}

func TestHandleStatusCallback_AcknowledgesUnmatchedEvent(t *testing.T) {
	deliveries := &fakeDeliveryLog{}
	r := webhookRouter(WebhookHandlers{
		Reconciler: campaign.NewService(campaign.NewMemoryRepo()),
		Deliveries: deliveries,
	})

	form := url.Values{}
	form.Set("CallSid", "CA999")
	form.Set("CallStatus", "completed")
	w := postStatusCallback(r, form)

	// The provider cannot consume an error, so a miss is still acknowledged.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %q", w.Body.String())
	}
	if len(deliveries.deliveries) != 1 || deliveries.deliveries[0].Matched {
		t.Fatalf("expected one unmatched delivery, got %+v", deliveries.deliveries)
	}
}

func TestHandleStatusCallback_AcknowledgesUnparseablePayload(t *testing.T) {
	r := webhookRouter(WebhookHandlers{Reconciler: campaign.NewService(campaign.NewMemoryRepo())})

	// Missing CallSid entirely.
	w := postStatusCallback(r, url.Values{"CallStatus": {"completed"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleVoice_RendersGreeting(t *testing.T) {
	r := webhookRouter(WebhookHandlers{Greeting: "Testing one two"})

	req := httptest.NewRequest("GET", "/webhooks/twilio/voice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Testing one two") {
		t.Fatalf("greeting missing from body: %q", w.Body.String())
	}
}

func TestHandleVoice_DefaultGreeting(t *testing.T) {
	r := webhookRouter(WebhookHandlers{})

	req := httptest.NewRequest("GET", "/webhooks/twilio/voice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Say") {
		t.Fatalf("expected say verb: %q", w.Body.String())
	}
}
