package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for status events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e StatusEvent) error
}

// Service logs received provider status callbacks.
//
// Callers should treat this as best-effort: webhook acknowledgment never
// depends on an append succeeding.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("events: invalid event")

func (s *Service) Append(ctx context.Context, e StatusEvent) error {
	if s.repo == nil {
		return errors.New("events: repository not configured")
	}
	if e.ProviderCallID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// RecordDelivery appends one webhook delivery. Satisfies
// telephony.DeliveryLog.
func (s *Service) RecordDelivery(ctx context.Context, providerCallID, status string, durationSeconds int, matched bool) error {
	return s.Append(ctx, StatusEvent{
		ProviderCallID:  providerCallID,
		Status:          status,
		DurationSeconds: durationSeconds,
		Matched:         matched,
	})
}
