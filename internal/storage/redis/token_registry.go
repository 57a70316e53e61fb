package redis

import (
	"context"
	"fmt"
	"sort"

	"clawnch-scanner/internal/storage"
)

// TokenRegistry implements storage.TokenRegistry on a Redis set.
type TokenRegistry struct {
	client *Client
}

// NewTokenRegistry creates a new TokenRegistry.
func NewTokenRegistry(client *Client) *TokenRegistry {
	return &TokenRegistry{client: client}
}

// Compile-time interface check.
var _ storage.TokenRegistry = (*TokenRegistry)(nil)

// Add records a mint.
func (r *TokenRegistry) Add(ctx context.Context, mint string) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}
	if err := r.client.SAdd(ctx, keyTokens, mint).Err(); err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

// Contains reports whether mint is registered.
func (r *TokenRegistry) Contains(ctx context.Context, mint string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, keyTokens, mint).Result()
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return ok, nil
}

// Count returns the number of registered mints.
func (r *TokenRegistry) Count(ctx context.Context) (int64, error) {
	n, err := r.client.SCard(ctx, keyTokens).Result()
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}

// List returns all registered mints in lexical order.
func (r *TokenRegistry) List(ctx context.Context) ([]string, error) {
	mints, err := r.client.SMembers(ctx, keyTokens).Result()
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	sort.Strings(mints)
	return mints, nil
}
