package auditlog

import (
	"context"
	"time"

	id "reguard/pkg/domain"
)

// Store persists audit entries. Implementations must honor a transaction
// carried in ctx so an entry commits atomically with the mutation it
// describes.
type Store interface {
	// Append writes a new entry and returns its assigned ID. IDs are
	// monotonically increasing and never reused.
	Append(ctx context.Context, entry *Entry) (EntryID, error)

	// FindByID returns the entry, scoped to the tenant. Entries of other
	// tenants are indistinguishable from absent ones.
	FindByID(ctx context.Context, tenantID id.TenantID, entryID EntryID) (*Entry, error)

	// List returns up to limit entries for the tenant in reverse
	// chronological (descending ID) order. limit <= 0 means no limit.
	List(ctx context.Context, tenantID id.TenantID, limit int) ([]*Entry, error)

	// MarkReverted sets the reverted marker if and only if it is currently
	// unset. Returns sentinel.ErrConflict when already set and
	// sentinel.ErrNotFound when the entry is absent or outside the tenant.
	// The check and the mark are atomic with respect to concurrent calls.
	MarkReverted(ctx context.Context, tenantID id.TenantID, entryID EntryID, at time.Time) error
}
