package redis

import (
	"context"
	"fmt"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// DedupStore implements storage.DedupStore with EXISTS / SET EX / SET NX EX / DEL.
type DedupStore struct {
	client *Client
}

// NewDedupStore creates a new DedupStore.
func NewDedupStore(client *Client) *DedupStore {
	return &DedupStore{client: client}
}

// Compile-time interface check.
var _ storage.DedupStore = (*DedupStore)(nil)

// IsProcessed reports whether a processed marker exists.
func (s *DedupStore) IsProcessed(ctx context.Context, platform domain.Platform, postID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKey(platform, postID)).Result()
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed writes the processed marker with ttl.
func (s *DedupStore) MarkProcessed(ctx context.Context, platform domain.Platform, postID string, ttl time.Duration) error {
	if postID == "" || ttl <= 0 {
		return storage.ErrInvalidInput
	}
	if err := s.client.Set(ctx, processedKey(platform, postID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// Claim takes the launch lease with SET NX EX.
func (s *DedupStore) Claim(ctx context.Context, platform domain.Platform, postID string, ttl time.Duration) (bool, error) {
	if postID == "" || ttl <= 0 {
		return false, storage.ErrInvalidInput
	}
	ok, err := s.client.SetNX(ctx, claimKey(platform, postID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim post: %w", err)
	}
	return ok, nil
}

// Release deletes the launch lease.
func (s *DedupStore) Release(ctx context.Context, platform domain.Platform, postID string) error {
	if err := s.client.Del(ctx, claimKey(platform, postID)).Err(); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}
