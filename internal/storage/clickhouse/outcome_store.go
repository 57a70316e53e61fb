package clickhouse

import (
	"context"
	"fmt"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using ClickHouse.
type OutcomeStore struct {
	conn *Conn
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(conn *Conn) *OutcomeStore {
	return &OutcomeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// InsertBulk appends the results of one run in a single batch.
func (s *OutcomeStore) InsertBulk(ctx context.Context, runID string, results []domain.ScanResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(results) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO scan_outcomes (
			run_id, platform, post_id, status, token_mint, signature, error, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		err = batch.Append(
			runID,
			string(r.Platform),
			r.PostID,
			string(r.Status),
			r.TokenMint,
			r.Signature,
			r.Error,
			uint64(r.Timestamp.UnixMilli()),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByStatus aggregates results recorded at or after since.
func (s *OutcomeStore) CountByStatus(ctx context.Context, since time.Time) (map[domain.ScanStatus]uint64, error) {
	query := `
		SELECT status, count(*)
		FROM scan_outcomes
		WHERE timestamp_ms >= ?
		GROUP BY status
	`

	rows, err := s.conn.Query(ctx, query, uint64(since.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ScanStatus]uint64)
	for rows.Next() {
		var status string
		var n uint64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[domain.ScanStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome counts: %w", err)
	}
	return counts, nil
}

// ListByRun returns the results recorded for one run in insertion time order.
func (s *OutcomeStore) ListByRun(ctx context.Context, runID string) ([]domain.ScanResult, error) {
	query := `
		SELECT platform, post_id, status, token_mint, signature, error, timestamp_ms
		FROM scan_outcomes
		WHERE run_id = ?
		ORDER BY timestamp_ms ASC, platform ASC, post_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run outcomes: %w", err)
	}
	defer rows.Close()

	var results []domain.ScanResult
	for rows.Next() {
		var r domain.ScanResult
		var platform, status string
		var ts uint64
		if err := rows.Scan(&platform, &r.PostID, &status, &r.TokenMint, &r.Signature, &r.Error, &ts); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		r.Platform = domain.Platform(platform)
		r.Status = domain.ScanStatus(status)
		r.Timestamp = time.UnixMilli(int64(ts)).UTC()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome rows: %w", err)
	}
	return results, nil
}
