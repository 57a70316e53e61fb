package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/storage"
)

func TestLaunchArchive_InsertAndGet(t *testing.T) {
	archive := NewLaunchArchive()
	ctx := context.Background()

	r := &domain.LaunchRecord{
		TokenMint:  "mint1",
		Signature:  "sig1",
		Platform:   domain.PlatformMoltbook,
		PostID:     "p1",
		Name:       "Foo",
		Symbol:     "FOO",
		LaunchedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := archive.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := archive.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	got, err := archive.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if got.Symbol != "FOO" || got.CreatedAt.IsZero() {
		t.Errorf("unexpected record: %+v", got)
	}

	// Returned records are copies
	got.Symbol = "BAR"
	again, _ := archive.GetByMint(ctx, "mint1")
	if again.Symbol != "FOO" {
		t.Error("archive mutated through returned pointer")
	}

	if _, err := archive.GetByMint(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLaunchArchive_ListRecent(t *testing.T) {
	archive := NewLaunchArchive()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, mint := range []string{"a", "b", "c"} {
		archive.Insert(ctx, &domain.LaunchRecord{TokenMint: mint, LaunchedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	list, err := archive.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(list) != 2 || list[0].TokenMint != "c" || list[1].TokenMint != "b" {
		t.Errorf("unexpected order: %v, %v", list[0].TokenMint, list[1].TokenMint)
	}
}
