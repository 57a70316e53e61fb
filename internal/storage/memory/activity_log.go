package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// ActivityLog is an in-memory implementation of storage.ActivityLog.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []domain.ActivityEntry // sorted by LaunchedAt DESC
	lastRun *time.Time
}

// NewActivityLog creates a new in-memory activity log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

// Compile-time interface check.
var _ storage.ActivityLog = (*ActivityLog)(nil)

// Append adds an entry and trims the log to storage.ActivityCapacity.
func (l *ActivityLog) Append(_ context.Context, entry domain.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].LaunchedAt.After(l.entries[j].LaunchedAt)
	})
	if len(l.entries) > storage.ActivityCapacity {
		l.entries = l.entries[:storage.ActivityCapacity]
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *ActivityLog) Recent(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	limit = storage.ClampActivityLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]domain.ActivityEntry, limit)
	copy(out, l.entries[:limit])
	return out, nil
}

// SetLastRun records the completion time of a scan run.
func (l *ActivityLog) SetLastRun(_ context.Context, t time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t = t.UTC()
	l.lastRun = &t
	return nil
}

// LastRun returns the last recorded run time, nil if none.
func (l *ActivityLog) LastRun(_ context.Context) (*time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.lastRun == nil {
		return nil, nil
	}
	t := *l.lastRun
	return &t, nil
}
