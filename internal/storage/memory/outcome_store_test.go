package memory

import (
	"context"
	"testing"
	"time"

	"clawnch-scanner/internal/domain"
)

func TestOutcomeStore_CountByStatus(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	results := []domain.ScanResult{
		{Platform: domain.PlatformMoltbook, PostID: "old", Status: domain.ScanStatusInvalid, Timestamp: base.Add(-2 * time.Hour)},
		{Platform: domain.PlatformMoltbook, PostID: "a", Status: domain.ScanStatusLaunched, Timestamp: base},
		{Platform: domain.PlatformMoltx, PostID: "b", Status: domain.ScanStatusInvalid, Timestamp: base},
		{Platform: domain.PlatformMoltx, PostID: "c", Status: domain.ScanStatusInvalid, Timestamp: base.Add(time.Minute)},
	}

	if err := store.InsertBulk(ctx, "run-1", results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	counts, err := store.CountByStatus(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[domain.ScanStatusLaunched] != 1 || counts[domain.ScanStatusInvalid] != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}

	if len(store.Rows()) != 4 {
		t.Errorf("expected 4 rows, got %d", len(store.Rows()))
	}

	if err := store.InsertBulk(ctx, "", results); err == nil {
		t.Error("expected error for empty run id")
	}
}

func TestOutcomeStore_ListByRun(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	store.InsertBulk(ctx, "run-a", []domain.ScanResult{
		{PostID: "1", Status: domain.ScanStatusLaunched},
		{PostID: "2", Status: domain.ScanStatusInvalid},
	})
	store.InsertBulk(ctx, "run-b", []domain.ScanResult{{PostID: "3", Status: domain.ScanStatusError}})

	got, err := store.ListByRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("ListByRun failed: %v", err)
	}
	if len(got) != 2 || got[0].PostID != "1" || got[1].PostID != "2" {
		t.Errorf("unexpected run-a results: %+v", got)
	}

	got, _ = store.ListByRun(ctx, "missing")
	if len(got) != 0 {
		t.Errorf("expected no results for unknown run, got %d", len(got))
	}
}
