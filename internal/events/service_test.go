package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppend_FillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	err := svc.Append(ctx, StatusEvent{ProviderCallID: "CA123", Status: "completed", DurationSeconds: 42, Matched: true})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	events := repo.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if e.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp")
	}
	if e.ProviderCallID != "CA123" || e.Status != "completed" || !e.Matched {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestAppend_PreservesCallerTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := svc.Append(context.Background(), StatusEvent{ProviderCallID: "CA123", CreatedAt: when})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := repo.Snapshot()[0].CreatedAt; !got.Equal(when) {
		t.Fatalf("timestamp overwritten: %v", got)
	}
}

func TestAppend_RejectsEventWithoutProviderCallID(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	err := svc.Append(context.Background(), StatusEvent{Status: "completed"})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestRecordDelivery_AppendsUnmatchedDeliveries(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.RecordDelivery(ctx, "CA123", "completed", 42, true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.RecordDelivery(ctx, "CA999", "busy", 0, false); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	events := repo.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Matched {
		t.Fatalf("expected second delivery unmatched: %+v", events[1])
	}
	if events[0].ID == events[1].ID {
		t.Fatalf("event ids must be unique")
	}
}
