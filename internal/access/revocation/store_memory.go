package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryDenylist is the in-process fallback used when Redis is not
// configured. Expired entries are pruned lazily on read.
type MemoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   func() time.Time
}

// MemoryOption configures a MemoryDenylist.
type MemoryOption func(*MemoryDenylist)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) MemoryOption {
	return func(d *MemoryDenylist) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// NewMemoryDenylist constructs an in-memory denylist.
func NewMemoryDenylist(opts ...MemoryOption) *MemoryDenylist {
	d := &MemoryDenylist{
		entries: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MemoryDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = d.clock().Add(clampTTL(ttl))
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.RLock()
	expiry, ok := d.entries[jti]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if d.clock().After(expiry) {
		d.mu.Lock()
		delete(d.entries, jti)
		d.mu.Unlock()
		return false, nil
	}
	return true, nil
}
