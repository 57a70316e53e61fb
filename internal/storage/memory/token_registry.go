package memory

import (
	"context"
	"sort"
	"sync"

	"clawnch-scanner/internal/storage"
)

// TokenRegistry is an in-memory implementation of storage.TokenRegistry.
type TokenRegistry struct {
	mu    sync.RWMutex
	mints map[string]struct{}
}

// NewTokenRegistry creates a new in-memory token registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{mints: make(map[string]struct{})}
}

// Compile-time interface check.
var _ storage.TokenRegistry = (*TokenRegistry)(nil)

// Add records a mint. Adding an existing mint is a no-op.
func (r *TokenRegistry) Add(_ context.Context, mint string) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.mints[mint] = struct{}{}
	return nil
}

// Contains reports whether mint is registered.
func (r *TokenRegistry) Contains(_ context.Context, mint string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.mints[mint]
	return ok, nil
}

// Count returns the number of registered mints.
func (r *TokenRegistry) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.mints)), nil
}

// List returns all registered mints in lexical order.
func (r *TokenRegistry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.mints))
	for m := range r.mints {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}
