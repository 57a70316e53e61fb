package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

func TestNewClient_URL(t *testing.T) {
	_, mr := setupTestRedis(t)

	client, err := NewClient(context.Background(), Options{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	defer client.Close()
}

func TestNewClient_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, Options{})
	assert.Error(t, err)

	_, err = NewClient(ctx, Options{URL: "http://not-redis"})
	assert.Error(t, err)
}

func TestDedupStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewDedupStore(client)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, domain.PlatformMoltbook, "p1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkProcessed(ctx, domain.PlatformMoltbook, "p1", storage.ProcessedTTL))

	processed, err = store.IsProcessed(ctx, domain.PlatformMoltbook, "p1")
	require.NoError(t, err)
	assert.True(t, processed)

	// Key layout and TTL
	assert.True(t, mr.Exists("processed:moltbook:p1"))
	assert.Equal(t, storage.ProcessedTTL, mr.TTL("processed:moltbook:p1"))

	mr.FastForward(storage.ProcessedTTL)
	processed, err = store.IsProcessed(ctx, domain.PlatformMoltbook, "p1")
	require.NoError(t, err)
	assert.False(t, processed, "marker should expire after TTL")
}

func TestDedupStore_Claim(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewDedupStore(client)
	ctx := context.Background()

	ok, err := store.Claim(ctx, domain.PlatformFourclaw, "42", storage.ClaimTTL)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, domain.PlatformFourclaw, "42", storage.ClaimTTL)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	assert.True(t, mr.Exists("claim:4claw:42"))

	mr.FastForward(storage.ClaimTTL)
	ok, err = store.Claim(ctx, domain.PlatformFourclaw, "42", storage.ClaimTTL)
	require.NoError(t, err)
	assert.True(t, ok, "claim should be available after lease expiry")
}

func TestDedupStore_Release(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewDedupStore(client)
	ctx := context.Background()

	ok, err := store.Claim(ctx, domain.PlatformMoltbook, "r1", storage.ClaimTTL)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(ctx, domain.PlatformMoltbook, "r1"))
	assert.False(t, mr.Exists("claim:moltbook:r1"))

	ok, err = store.Claim(ctx, domain.PlatformMoltbook, "r1", storage.ClaimTTL)
	require.NoError(t, err)
	assert.True(t, ok, "released lease should be claimable")

	// Releasing twice is harmless
	require.NoError(t, store.Release(ctx, domain.PlatformMoltbook, "missing"))
}

func TestDedupStore_StoreUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewDedupStore(client)

	mr.Close()

	_, err := store.IsProcessed(context.Background(), domain.PlatformMoltbook, "p1")
	assert.Error(t, err)
}

func TestActivityLog_AppendTrimRecent(t *testing.T) {
	client, _ := setupTestRedis(t)
	log := NewActivityLog(client)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 105; i++ {
		err := log.Append(ctx, domain.ActivityEntry{
			Platform:    domain.PlatformMoltx,
			PostID:      fmt.Sprintf("p%d", i),
			TokenSymbol: "SYM",
			TokenMint:   fmt.Sprintf("mint%d", i),
			LaunchedAt:  base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	size, err := client.ZCard(ctx, "activity").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(storage.ActivityCapacity), size)

	recent, err := log.Recent(ctx, 500)
	require.NoError(t, err)
	require.Len(t, recent, storage.ActivityMaxRead)
	assert.Equal(t, "p104", recent[0].PostID)
	assert.Equal(t, "p55", recent[len(recent)-1].PostID)
	assert.True(t, recent[0].LaunchedAt.Equal(base.Add(104*time.Second)))

	recent, err = log.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, storage.ActivityDefaultRead)
}

func TestActivityLog_LastRun(t *testing.T) {
	client, _ := setupTestRedis(t)
	log := NewActivityLog(client)
	ctx := context.Background()

	last, err := log.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	now := time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC)
	require.NoError(t, log.SetLastRun(ctx, now))

	last, err = log.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(now))
}

func TestTokenRegistry(t *testing.T) {
	client, _ := setupTestRedis(t)
	reg := NewTokenRegistry(client)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, "mintB"))
	require.NoError(t, reg.Add(ctx, "mintA"))
	require.NoError(t, reg.Add(ctx, "mintA"))

	count, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ok, err := reg.Contains(ctx, "mintA")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mintA", "mintB"}, list)

	assert.ErrorIs(t, reg.Add(ctx, ""), storage.ErrInvalidInput)
}
