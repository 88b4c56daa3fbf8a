package campaign

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// ExportCSV serializes a store snapshot as CSV with a fixed column order.
// No aggregation, no filtering; an empty store yields only the header row.
func (s *Service) ExportCSV(ctx context.Context) (string, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write([]string{"Phone Number", "Status", "Duration", "Called At"}); err != nil {
		return "", err
	}
	for _, rec := range records {
		calledAt := "N/A"
		if rec.DispatchedAt != nil {
			calledAt = rec.DispatchedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			rec.Number,
			string(rec.State),
			strconv.Itoa(rec.DurationSeconds),
			calledAt,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}
