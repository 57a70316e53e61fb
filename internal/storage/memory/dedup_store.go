package memory

import (
	"context"
	"sync"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// DedupStore is an in-memory implementation of storage.DedupStore.
// Entries expire lazily on read.
type DedupStore struct {
	mu        sync.Mutex
	now       func() time.Time
	processed map[domain.PostKey]time.Time // expiry
	claims    map[domain.PostKey]time.Time // expiry
}

// NewDedupStore creates a new in-memory dedup store.
func NewDedupStore() *DedupStore {
	return NewDedupStoreWithClock(time.Now)
}

// NewDedupStoreWithClock creates a dedup store that reads time from now.
func NewDedupStoreWithClock(now func() time.Time) *DedupStore {
	return &DedupStore{
		now:       now,
		processed: make(map[domain.PostKey]time.Time),
		claims:    make(map[domain.PostKey]time.Time),
	}
}

// Compile-time interface check.
var _ storage.DedupStore = (*DedupStore)(nil)

// IsProcessed reports whether an unexpired processed marker exists.
func (s *DedupStore) IsProcessed(_ context.Context, platform domain.Platform, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.live(s.processed, domain.PostKey{Platform: platform, PostID: postID}), nil
}

// MarkProcessed records the post as handled for ttl.
func (s *DedupStore) MarkProcessed(_ context.Context, platform domain.Platform, postID string, ttl time.Duration) error {
	if postID == "" || ttl <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed[domain.PostKey{Platform: platform, PostID: postID}] = s.now().Add(ttl)
	return nil
}

// Claim takes the launch lease if no unexpired lease exists.
func (s *DedupStore) Claim(_ context.Context, platform domain.Platform, postID string, ttl time.Duration) (bool, error) {
	if postID == "" || ttl <= 0 {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.PostKey{Platform: platform, PostID: postID}
	if s.live(s.claims, key) {
		return false, nil
	}
	s.claims[key] = s.now().Add(ttl)
	return true, nil
}

// Release drops the launch lease.
func (s *DedupStore) Release(_ context.Context, platform domain.Platform, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, domain.PostKey{Platform: platform, PostID: postID})
	return nil
}

// live reports whether key has an unexpired entry, dropping it if expired.
// Caller must hold s.mu.
func (s *DedupStore) live(m map[domain.PostKey]time.Time, key domain.PostKey) bool {
	expiry, ok := m[key]
	if !ok {
		return false
	}
	if !s.now().Before(expiry) {
		delete(m, key)
		return false
	}
	return true
}
