package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores seen webhook delivery IDs to short-circuit duplicate
// deliveries cheaply. It is an optimization only: the durable duplicate guard
// is the order's processed_at compare-and-set.
type IdempotencyStore interface {
	// MarkProcessed marks a delivery as seen with a TTL.
	// Returns true if the delivery was newly marked, false if it was already seen.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a delivery has already been seen
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for delivery deduplication
type IdempotencyConfig struct {
	// TTL is the time-to-live for seen delivery IDs.
	// After this duration the same delivery ID is treated as new again.
	TTL time.Duration

	// Enabled determines whether the dedup fast path is active
	Enabled bool
}

// DefaultIdempotencyConfig returns the default deduplication configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
