package memory

import (
	"context"
	"sync"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// OutcomeRow is one stored scan result.
type OutcomeRow struct {
	RunID  string
	Result domain.ScanResult
}

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	rows []OutcomeRow
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// InsertBulk appends the results of one run.
func (s *OutcomeStore) InsertBulk(_ context.Context, runID string, results []domain.ScanResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		s.rows = append(s.rows, OutcomeRow{RunID: runID, Result: r})
	}
	return nil
}

// CountByStatus aggregates results recorded at or after since.
func (s *OutcomeStore) CountByStatus(_ context.Context, since time.Time) (map[domain.ScanStatus]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.ScanStatus]uint64)
	for _, row := range s.rows {
		if !row.Result.Timestamp.Before(since) {
			counts[row.Result.Status]++
		}
	}
	return counts, nil
}

// ListByRun returns the results of one run in insertion order.
func (s *OutcomeStore) ListByRun(_ context.Context, runID string) ([]domain.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScanResult
	for _, row := range s.rows {
		if row.RunID == runID {
			out = append(out, row.Result)
		}
	}
	return out, nil
}

// Rows returns a copy of all stored rows.
func (s *OutcomeStore) Rows() []OutcomeRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OutcomeRow, len(s.rows))
	copy(out, s.rows)
	return out
}
