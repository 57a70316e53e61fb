package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestDedupStore_MarkAndCheck(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, domain.PlatformMoltbook, "p1")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if processed {
		t.Fatal("fresh post reported as processed")
	}

	if err := store.MarkProcessed(ctx, domain.PlatformMoltbook, "p1", storage.ProcessedTTL); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	// Idempotent
	if err := store.MarkProcessed(ctx, domain.PlatformMoltbook, "p1", storage.ProcessedTTL); err != nil {
		t.Fatalf("second MarkProcessed failed: %v", err)
	}

	processed, _ = store.IsProcessed(ctx, domain.PlatformMoltbook, "p1")
	if !processed {
		t.Error("marked post not reported as processed")
	}

	// Same id on another platform is a different post
	processed, _ = store.IsProcessed(ctx, domain.PlatformMoltx, "p1")
	if processed {
		t.Error("marker leaked across platforms")
	}
}

func TestDedupStore_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewDedupStoreWithClock(clock.Now)
	ctx := context.Background()

	store.MarkProcessed(ctx, domain.PlatformFourclaw, "t1", storage.ProcessedTTL)

	clock.Advance(storage.ProcessedTTL - time.Second)
	if ok, _ := store.IsProcessed(ctx, domain.PlatformFourclaw, "t1"); !ok {
		t.Error("marker expired early")
	}

	clock.Advance(time.Second)
	if ok, _ := store.IsProcessed(ctx, domain.PlatformFourclaw, "t1"); ok {
		t.Error("marker did not expire")
	}
}

func TestDedupStore_Claim(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewDedupStoreWithClock(clock.Now)
	ctx := context.Background()

	ok, err := store.Claim(ctx, domain.PlatformMoltx, "m1", storage.ClaimTTL)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}

	ok, _ = store.Claim(ctx, domain.PlatformMoltx, "m1", storage.ClaimTTL)
	if ok {
		t.Error("second claim should fail while lease is held")
	}

	clock.Advance(storage.ClaimTTL)
	ok, _ = store.Claim(ctx, domain.PlatformMoltx, "m1", storage.ClaimTTL)
	if !ok {
		t.Error("claim should succeed after lease expiry")
	}
}

func TestDedupStore_Release(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	if ok, _ := store.Claim(ctx, domain.PlatformMoltx, "m2", storage.ClaimTTL); !ok {
		t.Fatal("first claim should succeed")
	}
	if err := store.Release(ctx, domain.PlatformMoltx, "m2"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := store.Claim(ctx, domain.PlatformMoltx, "m2", storage.ClaimTTL); !ok {
		t.Error("claim should succeed after release")
	}
	if err := store.Release(ctx, domain.PlatformMoltx, "never-claimed"); err != nil {
		t.Errorf("Release of absent lease: %v", err)
	}
}

func TestDedupStore_ConcurrentClaim(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Claim(ctx, domain.PlatformMoltbook, "race", storage.ClaimTTL); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one claim winner, got %d", wins.Load())
	}
}

func TestDedupStore_InvalidInput(t *testing.T) {
	store := NewDedupStore()
	ctx := context.Background()

	if err := store.MarkProcessed(ctx, domain.PlatformMoltbook, "", time.Hour); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.Claim(ctx, domain.PlatformMoltbook, "p", 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
