package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autodialer/internal/campaign"
	"autodialer/internal/telephony"
)

// fakeProvider records placements and answers with canned results keyed by
// destination number.
type fakeProvider struct {
	mu       sync.Mutex
	placed   []telephony.PlaceCallRequest
	failFor  map[string]error
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeProvider) Name() string                      { return "fake" }
func (f *fakeProvider) HealthCheck(context.Context) error { return nil }

func (f *fakeProvider) PlaceCall(_ context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	cur := f.inflight.Add(1)
	for {
		max := f.maxSeen.Load()
		if cur <= max || f.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.inflight.Add(-1)

	f.mu.Lock()
	f.placed = append(f.placed, req)
	n := len(f.placed)
	f.mu.Unlock()

	if err, ok := f.failFor[req.To]; ok {
		return telephony.PlaceCallResult{}, err
	}
	return telephony.PlaceCallResult{ProviderCallID: fmt.Sprintf("CA%04d", n), Status: "queued"}, nil
}

func (f *fakeProvider) requests() []telephony.PlaceCallRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]telephony.PlaceCallRequest, len(f.placed))
	copy(out, f.placed)
	return out
}

func testClock() func() time.Time {
	return func() time.Time { return time.Unix(1700000000, 0).UTC() }
}

func testOptions() Options {
	return Options{
		FromNumber:        "+15550001111",
		VoiceURL:          "https://dialer.example.com/webhooks/twilio/voice",
		StatusCallbackURL: "https://dialer.example.com/webhooks/twilio/status",
	}
}

func TestDispatchOne_PlacesCallAndTransitionsRecord(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	provider := &fakeProvider{}
	svc := NewService(repo, provider, nil, testOptions()).WithClock(testClock())
	ctx := context.Background()

	res, err := svc.DispatchOne(ctx, "call +1 555 123 4567")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Number != "+15551234567" || res.ProviderCallID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	records, _ := repo.ListAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.State != campaign.CallStateCalling {
		t.Fatalf("expected calling, got %q", rec.State)
	}
	if rec.ProviderCallID != res.ProviderCallID {
		t.Fatalf("correlation id mismatch: %q vs %q", rec.ProviderCallID, res.ProviderCallID)
	}
	if rec.DispatchedAt == nil {
		t.Fatalf("expected dispatched timestamp")
	}

	reqs := provider.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(reqs))
	}
	if reqs[0].From != "+15550001111" || reqs[0].To != "+15551234567" {
		t.Fatalf("unexpected placement: %+v", reqs[0])
	}
	if len(reqs[0].StatusCallbackEvents) != 4 {
		t.Fatalf("expected full lifecycle events, got %v", reqs[0].StatusCallbackEvents)
	}
}

func TestDispatchOne_ReusesExistingRecord(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	provider := &fakeProvider{}
	svc := NewService(repo, provider, nil, testOptions()).WithClock(testClock())
	ctx := context.Background()

	if _, err := repo.Insert(ctx, campaign.NewPendingRecord("+15551234567", testClock()())); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := svc.DispatchOne(ctx, "+15551234567"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	records, _ := repo.ListAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected the existing record to be reused, got %d records", len(records))
	}
}

func TestDispatchOne_NoNumberInCommand(t *testing.T) {
	svc := NewService(campaign.NewMemoryRepo(), &fakeProvider{}, nil, testOptions())

	_, err := svc.DispatchOne(context.Background(), "call my mum")
	if !errors.Is(err, ErrNoNumberFound) {
		t.Fatalf("expected ErrNoNumberFound, got %v", err)
	}
}

func TestDispatchOne_ProviderFailureMarksRecordFailed(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	provider := &fakeProvider{failFor: map[string]error{
		"+15551234567": errors.New("twilio: 21211 invalid to number"),
	}}
	svc := NewService(repo, provider, nil, testOptions()).WithClock(testClock())
	ctx := context.Background()

	res, err := svc.DispatchOne(ctx, "+15551234567")
	if err == nil {
		t.Fatalf("expected dispatch error")
	}
	if res.Error == "" {
		t.Fatalf("expected error recorded on result: %+v", res)
	}

	records, _ := repo.ListAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.State != campaign.CallStateFailed {
		t.Fatalf("expected failed, got %q", rec.State)
	}
	if rec.ProviderCallID != "" {
		t.Fatalf("failed placement must not carry a correlation id: %+v", rec)
	}
	if rec.Notes == "" {
		t.Fatalf("expected failure reason in notes")
	}
}

func TestDispatchBulk_OnlyPendingRecordsDispatched(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	provider := &fakeProvider{}
	svc := NewService(repo, provider, NewChanLimiter(4), testOptions()).WithClock(testClock())
	ctx := context.Background()

	now := testClock()()
	for _, n := range []string{"+15550000001", "+15550000002", "+15550000003"} {
		if _, err := repo.Insert(ctx, campaign.NewPendingRecord(n, now)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if _, err := repo.Insert(ctx, campaign.NewPendingRecord("+15550000004", now)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := repo.UpdateByNumber(ctx, "+15550000004", func(r *campaign.CallRecord) {
		r.State = campaign.CallStateCalling
		r.ProviderCallID = "CA-prior"
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	res, err := svc.DispatchBulk(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Attempted != 3 {
		t.Fatalf("expected 3 attempted, got %d", res.Attempted)
	}
	if len(res.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.Results))
	}
	for _, r := range res.Results {
		if r.Error != "" || r.ProviderCallID == "" {
			t.Fatalf("unexpected result: %+v", r)
		}
	}

	for _, req := range provider.requests() {
		if req.To == "+15550000004" {
			t.Fatalf("non-pending record was dispatched")
		}
		if len(req.StatusCallbackEvents) != 1 || req.StatusCallbackEvents[0] != "completed" {
			t.Fatalf("bulk run should request only the terminal event, got %v", req.StatusCallbackEvents)
		}
	}
}

func TestDispatchBulk_EmptySelection(t *testing.T) {
	svc := NewService(campaign.NewMemoryRepo(), &fakeProvider{}, nil, testOptions())

	_, err := svc.DispatchBulk(context.Background())
	if !errors.Is(err, ErrNoPendingNumbers) {
		t.Fatalf("expected ErrNoPendingNumbers, got %v", err)
	}
}

func TestDispatchBulk_OneFailureDoesNotAbortBatch(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	provider := &fakeProvider{failFor: map[string]error{
		"+15550000002": errors.New("twilio: 20003 authentication error"),
	}}
	svc := NewService(repo, provider, NewChanLimiter(2), testOptions()).WithClock(testClock())
	ctx := context.Background()

	now := testClock()()
	for _, n := range []string{"+15550000001", "+15550000002", "+15550000003"} {
		if _, err := repo.Insert(ctx, campaign.NewPendingRecord(n, now)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	res, err := svc.DispatchBulk(ctx)
	if err != nil {
		t.Fatalf("bulk run must not fail on individual records: %v", err)
	}
	if res.Attempted != 3 {
		t.Fatalf("expected 3 attempted, got %d", res.Attempted)
	}

	var failed, succeeded int
	for _, r := range res.Results {
		if r.Error != "" {
			failed++
			if r.Number != "+15550000002" {
				t.Fatalf("wrong record failed: %+v", r)
			}
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 2 {
		t.Fatalf("expected 1 failure and 2 successes, got %d/%d", failed, succeeded)
	}

	rec, err := repo.UpdateByNumber(ctx, "+15550000002", func(*campaign.CallRecord) {})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.State != campaign.CallStateFailed {
		t.Fatalf("expected failed, got %q", rec.State)
	}
}

func TestDispatchBulk_LimiterBoundsFanOut(t *testing.T) {
	repo := campaign.NewMemoryRepo()
	provider := &fakeProvider{}
	svc := NewService(repo, provider, NewChanLimiter(2), testOptions()).WithClock(testClock())
	ctx := context.Background()

	now := testClock()()
	for i := 0; i < 10; i++ {
		number := fmt.Sprintf("+1555000%04d", i)
		if _, err := repo.Insert(ctx, campaign.NewPendingRecord(number, now)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	res, err := svc.DispatchBulk(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Attempted != 10 {
		t.Fatalf("expected 10 attempted, got %d", res.Attempted)
	}
	if max := provider.maxSeen.Load(); max > 2 {
		t.Fatalf("limiter breached: %d concurrent placements", max)
	}
}

func TestChanLimiter_AcquireHonorsContext(t *testing.T) {
	l := NewChanLimiter(1)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Acquire(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	l.Release(ctx)
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("slot not released: %v", err)
	}
}
