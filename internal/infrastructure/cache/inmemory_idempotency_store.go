package cache

import (
	"context"
	"sync"
	"time"

	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// seenDelivery is one remembered webhook delivery with its expiry
type seenDelivery struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore remembers webhook delivery IDs in a map. Suitable
// for single-instance deployments and tests; a distributed setup needs the
// Redis-backed store so all instances see the same deliveries.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]seenDelivery
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts a background
// goroutine that evicts expired deliveries.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		seen:     make(map[string]seenDelivery),
		stopChan: make(chan struct{}),
	}
	store.wg.Add(1)
	go store.evictLoop()
	return store
}

// MarkProcessed marks a delivery as seen with a TTL.
// Returns true if the delivery was newly marked, false if already seen.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.seen[deliveryID]; ok && time.Now().Before(d.expiresAt) {
		return false, nil
	}
	s.seen[deliveryID] = seenDelivery{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed checks if a delivery has already been seen and is not expired
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.seen[deliveryID]
	if !ok || time.Now().After(d.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of remembered deliveries (for tests)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

func (s *InMemoryIdempotencyStore) evictLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, d := range s.seen {
		if now.After(d.expiresAt) {
			delete(s.seen, id)
		}
	}
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
