package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked_jti:"

// RedisDenylist shares revocations across instances. Redis TTLs handle
// expiry, so revoked entries disappear together with the tokens they block.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist constructs a Redis-backed denylist.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := d.client.Set(ctx, keyPrefix+jti, "1", clampTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked fails closed: a Redis error reports the token as revoked rather
// than letting a possibly-revoked token through.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return true, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
