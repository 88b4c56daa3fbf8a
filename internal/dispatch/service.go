package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"autodialer/internal/campaign"
	"autodialer/internal/telephony"
	"autodialer/pkg/logger"
)

var ErrNoPendingNumbers = errors.New("dispatch: no pending numbers")

// singleCallEvents gives rich per-call feedback for interactive dispatches.
// Bulk runs request only the terminal event to keep webhook volume down; the
// two sets are a deliberate per-path choice, not an oversight.
var (
	singleCallEvents = []string{"initiated", "ringing", "answered", "completed"}
	bulkCallEvents   = []string{"completed"}
)

// Options carries the static call-placement parameters.
type Options struct {
	// FromNumber is the caller ID for every outbound call.
	FromNumber string

	// VoiceURL and StatusCallbackURL must be externally reachable; the
	// provider fetches instructions from the first and delivers status
	// events to the second.
	VoiceURL          string
	StatusCallbackURL string
}

// Service drives outbound call placement: it selects records, invokes the
// provider, and transitions records out of pending.
type Service struct {
	repo     campaign.Repository
	provider telephony.Provider
	limiter  Limiter
	opts     Options

	clock func() time.Time
}

func NewService(repo campaign.Repository, provider telephony.Provider, limiter Limiter, opts Options) *Service {
	if limiter == nil {
		limiter = NewChanLimiter(1)
	}
	return &Service{
		repo:     repo,
		provider: provider,
		limiter:  limiter,
		opts:     opts,
		clock:    time.Now,
	}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Result is the outcome of one record's dispatch attempt.
type Result struct {
	Number         string `json:"number"`
	ProviderCallID string `json:"provider_call_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// DispatchOne extracts a phone number from a free-text command and places a
// single call to it, creating the record on demand when the number was never
// ingested. Requests the full lifecycle event set.
func (s *Service) DispatchOne(ctx context.Context, command string) (Result, error) {
	number, err := ExtractNumber(command)
	if err != nil {
		return Result{}, err
	}

	// On-demand ingestion; a concurrent insert of the same number is fine.
	_, err = s.repo.Insert(ctx, campaign.NewPendingRecord(number, s.clock().UTC()))
	if err != nil && !errors.Is(err, campaign.ErrDuplicateNumber) {
		return Result{}, fmt.Errorf("dispatch %s: %w", number, err)
	}

	return s.dispatchNumber(ctx, number, singleCallEvents)
}

// BulkResult collects per-record outcomes of one bulk run. The run's own
// success is independent of any individual record's outcome.
type BulkResult struct {
	Attempted int      `json:"attempted"`
	Results   []Result `json:"results"`
}

// DispatchBulk places one call per record that is pending in the snapshot
// taken at call time; numbers ingested after the snapshot belong to the next
// run. Fan-out is bounded by the limiter. ErrNoPendingNumbers when the
// selection is empty.
func (s *Service) DispatchBulk(ctx context.Context) (BulkResult, error) {
	snapshot, err := s.repo.ListAll(ctx)
	if err != nil {
		return BulkResult{}, err
	}

	var pending []campaign.CallRecord
	for _, rec := range snapshot {
		if rec.State == campaign.CallStatePending {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 {
		return BulkResult{}, ErrNoPendingNumbers
	}

	results := make([]Result, len(pending))
	var wg sync.WaitGroup
	for i, rec := range pending {
		wg.Add(1)
		go func(i int, number string) {
			defer wg.Done()
			if err := s.limiter.Acquire(ctx); err != nil {
				results[i] = Result{Number: number, Error: err.Error()}
				return
			}
			defer s.limiter.Release(ctx)

			res, err := s.dispatchNumber(ctx, number, bulkCallEvents)
			if err != nil {
				// Recorded per item; one failure never aborts the batch.
				res = Result{Number: number, Error: err.Error()}
			}
			results[i] = res
		}(i, rec.Number)
	}
	wg.Wait()

	return BulkResult{Attempted: len(pending), Results: results}, nil
}

// dispatchNumber places the provider call and applies the state transition
// for one record. On provider failure the record must not stay in calling
// with no working correlation id, so it is moved to failed with the error
// text in notes before the failure is surfaced.
func (s *Service) dispatchNumber(ctx context.Context, number string, events []string) (Result, error) {
	log := logger.From(ctx)

	placed, err := s.provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:                   number,
		From:                 s.opts.FromNumber,
		VoiceURL:             s.opts.VoiceURL,
		StatusCallbackURL:    s.opts.StatusCallbackURL,
		StatusCallbackEvents: events,
	})
	if err != nil {
		if _, markErr := s.repo.UpdateByNumber(ctx, number, func(rec *campaign.CallRecord) {
			rec.State = campaign.CallStateFailed
			rec.Notes = err.Error()
		}); markErr != nil {
			log.Error("failed to mark record failed", "number", number, "err", markErr)
		}
		return Result{Number: number, Error: err.Error()}, fmt.Errorf("dispatch %s: %w", number, err)
	}

	now := s.clock().UTC()
	if _, err := s.repo.UpdateByNumber(ctx, number, func(rec *campaign.CallRecord) {
		rec.ProviderCallID = placed.ProviderCallID
		rec.State = campaign.CallStateCalling
		if rec.DispatchedAt == nil {
			rec.DispatchedAt = &now
		}
	}); err != nil {
		// The provider accepted the call but we lost the correlation id;
		// surface it so the operator knows this record cannot reconcile.
		log.Error("dispatched but record update failed", "number", number, "provider_call_id", placed.ProviderCallID, "err", err)
		return Result{Number: number, ProviderCallID: placed.ProviderCallID, Error: err.Error()},
			fmt.Errorf("dispatch %s: record update: %w", number, err)
	}

	log.Info("call dispatched", "number", number, "provider_call_id", placed.ProviderCallID)
	return Result{Number: number, ProviderCallID: placed.ProviderCallID}, nil
}
