package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

func TestOutcomeStore_InsertAndCount(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(conn)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	results := []domain.ScanResult{
		{Platform: domain.PlatformMoltbook, PostID: "p1", Status: domain.ScanStatusLaunched, TokenMint: "mint1", Signature: "sig1", Timestamp: now},
		{Platform: domain.PlatformMoltx, PostID: "p2", Status: domain.ScanStatusInvalid, Error: "missing name", Timestamp: now.Add(time.Millisecond)},
		{Platform: domain.PlatformFourclaw, PostID: "p3", Status: domain.ScanStatusInvalid, Error: "missing image", Timestamp: now.Add(2 * time.Millisecond)},
		{Platform: domain.PlatformFourclaw, PostID: "p4", Status: domain.ScanStatusDuplicate, Timestamp: now.Add(3 * time.Millisecond)},
	}

	require.NoError(t, store.InsertBulk(ctx, "run-1", results))

	counts, err := store.CountByStatus(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), counts[domain.ScanStatusLaunched])
	assert.Equal(t, uint64(2), counts[domain.ScanStatusInvalid])
	assert.Equal(t, uint64(1), counts[domain.ScanStatusDuplicate])
	assert.Zero(t, counts[domain.ScanStatusError])

	later, err := store.CountByStatus(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestOutcomeStore_ListByRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(conn)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.InsertBulk(ctx, "run-a", []domain.ScanResult{
		{Platform: domain.PlatformMoltbook, PostID: "a2", Status: domain.ScanStatusError, Error: "rpc down", Timestamp: now.Add(time.Second)},
		{Platform: domain.PlatformMoltbook, PostID: "a1", Status: domain.ScanStatusLaunched, TokenMint: "m", Signature: "s", Timestamp: now},
	}))
	require.NoError(t, store.InsertBulk(ctx, "run-b", []domain.ScanResult{
		{Platform: domain.PlatformMoltx, PostID: "b1", Status: domain.ScanStatusInvalid, Timestamp: now},
	}))

	got, err := store.ListByRun(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].PostID)
	assert.Equal(t, "m", got[0].TokenMint)
	assert.True(t, got[0].Timestamp.Equal(now))
	assert.Equal(t, "a2", got[1].PostID)
	assert.Equal(t, "rpc down", got[1].Error)
}

func TestOutcomeStore_EmptyAndInvalid(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(conn)
	ctx := context.Background()

	assert.NoError(t, store.InsertBulk(ctx, "run-empty", nil))
	assert.ErrorIs(t, store.InsertBulk(ctx, "", []domain.ScanResult{{PostID: "x"}}), storage.ErrInvalidInput)
}
