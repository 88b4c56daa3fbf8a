package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service owns ingestion, webhook reconciliation, and the derived read-only
// views (stats, export) over the record store.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Ingest turns raw candidate numbers into pending records. Blank lines and
// duplicates (against the store and against earlier entries of the same
// batch) are filtered silently; the return value is the count actually
// inserted. A store failure stops the batch and is reported, but entries
// inserted before it remain valid records.
func (s *Service) Ingest(ctx context.Context, numbers []string) (int, error) {
	inserted := 0
	for _, raw := range numbers {
		number := strings.TrimSpace(raw)
		if number == "" {
			continue
		}
		_, err := s.repo.Insert(ctx, NewPendingRecord(number, s.clock().UTC()))
		if err != nil {
			if errors.Is(err, ErrDuplicateNumber) {
				continue
			}
			return inserted, fmt.Errorf("ingest %q: %w", number, err)
		}
		inserted++
	}
	return inserted, nil
}

// NewPendingRecord builds the initial record for a freshly ingested number.
// The repository assigns the id at insert time.
func NewPendingRecord(number string, now time.Time) CallRecord {
	return CallRecord{
		Number:    number,
		State:     CallStatePending,
		CreatedAt: now,
	}
}

func (s *Service) List(ctx context.Context) ([]CallRecord, error) {
	return s.repo.ListAll(ctx)
}

// ApplyStatusEvent reconciles one asynchronous provider status event with the
// record it belongs to, correlated by provider call id.
//
// Recognized statuses map to terminal states; unrecognized ones move the
// record to the distinguished unknown state with the raw value kept in notes.
// Replayed deliveries rewrite the same values, so the operation is a no-op
// under duplication. ErrNotFound is an expected, recoverable outcome (stale
// or replayed event, or a store cleared since dispatch); callers decide how
// loudly to report it.
func (s *Service) ApplyStatusEvent(ctx context.Context, providerCallID, status string, durationSeconds int) (CallRecord, error) {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	state, recognized := MapProviderStatus(status)
	return s.repo.UpdateByProviderCallID(ctx, providerCallID, func(rec *CallRecord) {
		rec.State = state
		rec.DurationSeconds = durationSeconds
		if !recognized {
			rec.Notes = "unrecognized provider status: " + status
		}
	})
}

// Stats are derived counts over a store snapshot.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Calling   int `json:"calling"`

	// SuccessRate is completed/total with one fractional digit, "0%" on an
	// empty store.
	SuccessRate string `json:"success_rate"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	out := Stats{SuccessRate: "0%"}
	for _, rec := range records {
		out.Total++
		switch rec.State {
		case CallStateCompleted:
			out.Completed++
		case CallStateFailed, CallStateBusy, CallStateNoAnswer:
			out.Failed++
		case CallStatePending:
			out.Pending++
		case CallStateCalling:
			out.Calling++
		}
	}
	if out.Total > 0 {
		out.SuccessRate = fmt.Sprintf("%.1f%%", float64(out.Completed)/float64(out.Total)*100)
	}
	return out, nil
}

func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
