// Package revocation tracks revoked token IDs (jti) so the auth middleware
// can reject tokens that were invalidated before their natural expiry.
package revocation

import (
	"context"
	"time"
)

// Denylist is consulted on every authenticated request. Entries expire with
// the token they block, so the list stays bounded.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// minTTL guards against zero/negative TTLs that would either never expire or
// expire immediately depending on the backend.
const minTTL = time.Second

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}
