package campaign

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExportCSV_EmptyStoreYieldsHeaderOnly(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	out, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "Phone Number,Status,Duration,Called At\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExportCSV_RowsMatchStoreOrder(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo).WithClock(fixedClock())
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, []string{"+15551234567", "+15557654321"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	dispatched := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if _, err := repo.UpdateByNumber(ctx, "+15551234567", func(r *CallRecord) {
		r.State = CallStateCompleted
		r.DurationSeconds = 42
		r.DispatchedAt = &dispatched
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	out, err := svc.ExportCSV(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines: %q", len(lines), out)
	}
	if lines[1] != "+15551234567,completed,42,2024-05-01T12:30:00Z" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	// Never-dispatched records export a placeholder timestamp.
	if lines[2] != "+15557654321,pending,0,N/A" {
		t.Fatalf("unexpected second row: %q", lines[2])
	}
}
