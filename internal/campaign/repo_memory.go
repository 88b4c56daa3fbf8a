package campaign

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and local development.
// A single mutex serializes every mutation, which is exactly the write
// discipline the contract asks for.
type MemoryRepo struct {
	mu      sync.Mutex
	records []CallRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListAll(ctx context.Context) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, rec CallRecord) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID int64
	for _, existing := range r.records {
		if existing.Number == rec.Number {
			return CallRecord{}, ErrDuplicateNumber
		}
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	rec.ID = maxID + 1
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *MemoryRepo) UpdateByNumber(ctx context.Context, number string, fn Mutation) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].Number == number {
			fn(&r.records[i])
			return r.records[i], nil
		}
	}
	return CallRecord{}, ErrNotFound
}

func (r *MemoryRepo) UpdateByProviderCallID(ctx context.Context, providerCallID string, fn Mutation) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if providerCallID == "" {
		// Records that failed before dispatch never have a correlation id;
		// an empty key must not match them.
		return CallRecord{}, ErrNotFound
	}
	for i := range r.records {
		if r.records[i].ProviderCallID == providerCallID {
			fn(&r.records[i])
			return r.records[i], nil
		}
	}
	return CallRecord{}, ErrNotFound
}

func (r *MemoryRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	return nil
}
