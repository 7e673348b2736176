// Package memory is the in-memory audit store used by tests and dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"reguard/internal/auditlog"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

// Store keeps entries in a map guarded by one mutex. The mutex also makes
// MarkReverted's check-then-set atomic.
type Store struct {
	mu      sync.RWMutex
	nextID  auditlog.EntryID
	entries map[auditlog.EntryID]*auditlog.Entry
}

// New constructs an empty in-memory audit store.
func New() *Store {
	return &Store{entries: make(map[auditlog.EntryID]*auditlog.Entry)}
}

func (s *Store) Append(_ context.Context, entry *auditlog.Entry) (auditlog.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cloned := cloneEntry(entry)
	cloned.ID = s.nextID
	s.entries[cloned.ID] = cloned
	return cloned.ID, nil
}

func (s *Store) FindByID(_ context.Context, tenantID id.TenantID, entryID auditlog.EntryID) (*auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (s *Store) List(_ context.Context, tenantID id.TenantID, limit int) ([]*auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*auditlog.Entry
	for _, entry := range s.entries {
		if entry.TenantID == tenantID {
			out = append(out, cloneEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkReverted(_ context.Context, tenantID id.TenantID, entryID auditlog.EntryID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	if entry.RevertedAt != nil {
		return sentinel.ErrConflict
	}
	marked := at
	entry.RevertedAt = &marked
	return nil
}

func cloneEntry(entry *auditlog.Entry) *auditlog.Entry {
	cloned := *entry
	cloned.Changes = append([]auditlog.FieldChange(nil), entry.Changes...)
	if entry.RevertedAt != nil {
		at := *entry.RevertedAt
		cloned.RevertedAt = &at
	}
	return &cloned
}
