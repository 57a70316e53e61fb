package storage

import (
	"context"
	"time"

	"clawnch-scanner/internal/domain"
)

// Retention and read limits shared by every backend.
const (
	// ProcessedTTL is how long a processed marker is kept.
	ProcessedTTL = 7 * 24 * time.Hour

	// ClaimTTL bounds how long an in-flight launch lease is held.
	ClaimTTL = 10 * time.Minute

	// ActivityCapacity is the number of entries retained in the activity log.
	ActivityCapacity = 100

	// ActivityMaxRead caps a single activity read.
	ActivityMaxRead = 50

	// ActivityDefaultRead is used when no limit is requested.
	ActivityDefaultRead = 20
)

// ClampActivityLimit maps a requested read size into [1, ActivityMaxRead].
// Non-positive values select ActivityDefaultRead.
func ClampActivityLimit(limit int) int {
	if limit <= 0 {
		return ActivityDefaultRead
	}
	if limit > ActivityMaxRead {
		return ActivityMaxRead
	}
	return limit
}

// DedupStore remembers which posts have been handled.
type DedupStore interface {
	// IsProcessed reports whether a processed marker exists for the post.
	IsProcessed(ctx context.Context, platform domain.Platform, postID string) (bool, error)

	// MarkProcessed records the post as handled for ttl. Idempotent.
	MarkProcessed(ctx context.Context, platform domain.Platform, postID string, ttl time.Duration) error

	// Claim takes a set-if-absent launch lease for ttl.
	// Returns false when another invocation already holds it.
	Claim(ctx context.Context, platform domain.Platform, postID string, ttl time.Duration) (bool, error)

	// Release drops the launch lease. Releasing an absent lease is a no-op.
	Release(ctx context.Context, platform domain.Platform, postID string) error
}

// ActivityLog keeps the bounded, recency-ordered record of launches and the
// time of the last scan run.
type ActivityLog interface {
	// Append adds an entry and trims the log to ActivityCapacity.
	Append(ctx context.Context, entry domain.ActivityEntry) error

	// Recent returns up to limit entries, newest first. limit is clamped with ClampActivityLimit.
	Recent(ctx context.Context, limit int) ([]domain.ActivityEntry, error)

	// SetLastRun records the completion time of a scan run.
	SetLastRun(ctx context.Context, t time.Time) error

	// LastRun returns the last recorded run time, nil if none.
	LastRun(ctx context.Context) (*time.Time, error)
}

// TokenRegistry is the set of mints launched by the platform wallet.
type TokenRegistry interface {
	Add(ctx context.Context, mint string) error
	Contains(ctx context.Context, mint string) (bool, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]string, error)
}

// LaunchArchive provides access to the durable launches table.
type LaunchArchive interface {
	// Insert adds a launch record. Returns ErrDuplicateKey if the mint exists.
	Insert(ctx context.Context, r *domain.LaunchRecord) error

	// GetByMint retrieves a launch by mint. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.LaunchRecord, error)

	// ListRecent returns up to limit launches ordered by launched_at DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.LaunchRecord, error)
}

// OutcomeStore is the append-only log of every scan result.
type OutcomeStore interface {
	// InsertBulk appends the results of one run.
	InsertBulk(ctx context.Context, runID string, results []domain.ScanResult) error

	// CountByStatus aggregates results recorded at or after since.
	CountByStatus(ctx context.Context, since time.Time) (map[domain.ScanStatus]uint64, error)

	// ListByRun returns the results of one run, oldest first.
	ListByRun(ctx context.Context, runID string) ([]domain.ScanResult, error)
}
