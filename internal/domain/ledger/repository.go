package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntryFilter defines filtering options for ledger entry queries. A nil
// field means no constraint on that dimension.
type EntryFilter struct {
	From        *time.Time    // entry date lower bound (inclusive)
	To          *time.Time    // entry date upper bound (inclusive)
	Sources     []EntrySource // restrict to these business-event kinds
	ResidenceID *uuid.UUID    // restrict to one residence
}

// EntryRepository is the read-only contract the engine requires from the
// ledger store. Returned entries are treated as immutable value objects.
type EntryRepository interface {
	// FindPosted returns posted entries matching the filter, eagerly loaded
	// with their line items, ordered by entry date then id
	FindPosted(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error)

	// FindByAccount returns posted entries that touch the given account
	// code, used by the general ledger drill-down
	FindByAccount(ctx context.Context, accountCode string, filter EntryFilter) ([]LedgerEntry, error)
}

// AccountRepository is the read-only contract for the chart of accounts
type AccountRepository interface {
	// ListActive returns all active accounts
	ListActive(ctx context.Context) ([]Account, error)

	// FindByCode returns the account with the given code, or ErrNotFound
	FindByCode(ctx context.Context, code string) (*Account, error)
}
