package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// ActivityLog implements storage.ActivityLog on a sorted set scored by
// launch time in milliseconds.
type ActivityLog struct {
	client *Client
}

// NewActivityLog creates a new ActivityLog.
func NewActivityLog(client *Client) *ActivityLog {
	return &ActivityLog{client: client}
}

// Compile-time interface check.
var _ storage.ActivityLog = (*ActivityLog)(nil)

// Append adds the entry and trims the set to storage.ActivityCapacity in one
// transaction.
func (l *ActivityLog) Append(ctx context.Context, entry domain.ActivityEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}

	_, err = l.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZAdd(ctx, keyActivity, goredis.Z{
			Score:  float64(entry.LaunchedAt.UnixMilli()),
			Member: payload,
		})
		// Keep the highest-scored ActivityCapacity members
		pipe.ZRemRangeByRank(ctx, keyActivity, 0, -int64(storage.ActivityCapacity)-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Undecodable members are skipped.
func (l *ActivityLog) Recent(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	limit = storage.ClampActivityLimit(limit)

	members, err := l.client.ZRevRange(ctx, keyActivity, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}

	entries := make([]domain.ActivityEntry, 0, len(members))
	for _, m := range members {
		var e domain.ActivityEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SetLastRun stores t as an RFC3339 string.
func (l *ActivityLog) SetLastRun(ctx context.Context, t time.Time) error {
	if err := l.client.Set(ctx, keyLastRun, t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("set last run: %w", err)
	}
	return nil
}

// LastRun returns the stored run time, nil when never set.
func (l *ActivityLog) LastRun(ctx context.Context) (*time.Time, error) {
	v, err := l.client.Get(ctx, keyLastRun).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("parse last run %q: %w", v, err)
	}
	return &t, nil
}
