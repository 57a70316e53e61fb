package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// LaunchArchive is an in-memory implementation of storage.LaunchArchive.
type LaunchArchive struct {
	mu   sync.RWMutex
	data map[string]*domain.LaunchRecord // keyed by token mint
}

// NewLaunchArchive creates a new in-memory launch archive.
func NewLaunchArchive() *LaunchArchive {
	return &LaunchArchive{data: make(map[string]*domain.LaunchRecord)}
}

// Compile-time interface check.
var _ storage.LaunchArchive = (*LaunchArchive)(nil)

// Insert adds a launch record. Returns ErrDuplicateKey if the mint exists.
func (a *LaunchArchive) Insert(_ context.Context, r *domain.LaunchRecord) error {
	if r == nil || r.TokenMint == "" {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.data[r.TokenMint]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	if recordCopy.CreatedAt.IsZero() {
		recordCopy.CreatedAt = time.Now().UTC()
	}
	a.data[r.TokenMint] = &recordCopy
	return nil
}

// GetByMint retrieves a launch by mint. Returns ErrNotFound if not exists.
func (a *LaunchArchive) GetByMint(_ context.Context, mint string) (*domain.LaunchRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, exists := a.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// ListRecent returns up to limit launches ordered by LaunchedAt DESC.
func (a *LaunchArchive) ListRecent(_ context.Context, limit int) ([]*domain.LaunchRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]*domain.LaunchRecord, 0, len(a.data))
	for _, r := range a.data {
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LaunchedAt.Equal(result[j].LaunchedAt) {
			return result[i].TokenMint < result[j].TokenMint
		}
		return result[i].LaunchedAt.After(result[j].LaunchedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
