package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys for a limited time
// so a repeated action is not executed twice.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claim so the request may be sent again
	Release(ctx context.Context, key string) error
	// Close releases the store's resources
	Close() error
}
