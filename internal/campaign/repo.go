package campaign

import (
	"context"
	"errors"
)

var (
	ErrDuplicateNumber = errors.New("campaign: number already exists")
	ErrNotFound        = errors.New("campaign: record not found")
)

// Mutation edits a record in place inside the repository's write boundary.
type Mutation func(*CallRecord)

// Repository is the single source of truth for call records. All components
// read and write through it exclusively; no caller may do its own
// load-mutate-save cycle.
//
// Every mutating operation is serialized against every other mutating
// operation on the same collection, so two concurrent read-modify-writes can
// never both observe the pre-mutation state and both commit.
type Repository interface {
	// ListAll returns a snapshot ordered by id, consistent with some
	// serialization of all writes so far.
	ListAll(ctx context.Context) ([]CallRecord, error)

	// Insert assigns the next id (max existing + 1) and stores the record.
	// Fails with ErrDuplicateNumber if the number is already present; the id
	// assignment and the uniqueness check are atomic.
	Insert(ctx context.Context, rec CallRecord) (CallRecord, error)

	// UpdateByNumber applies fn to the record with the given number and
	// persists the result atomically. ErrNotFound when no match.
	UpdateByNumber(ctx context.Context, number string, fn Mutation) (CallRecord, error)

	// UpdateByProviderCallID is the reconciliation path: the provider call id
	// is the sole correlation key for asynchronous status events.
	UpdateByProviderCallID(ctx context.Context, providerCallID string, fn Mutation) (CallRecord, error)

	// Clear replaces the whole collection with empty.
	Clear(ctx context.Context) error
}
