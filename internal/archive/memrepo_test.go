package archive

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepositoryUpserts(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.SaveResult(ctx, nil); err != nil {
		t.Fatalf("SaveResult(nil): %v", err)
	}

	first := &Result{
		GameID:  "G1",
		White:   "KD9GEK",
		Black:   "N0CALL",
		Result:  "1-0",
		Method:  "resignation",
		EndedAt: time.Now(),
	}
	if err := repo.SaveResult(ctx, first); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	// Saving the same game again replaces the earlier row, matching the
	// database repository's upsert.
	second := *first
	second.Result = "0-1"
	second.Method = "checkmate"
	if err := repo.SaveResult(ctx, &second); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	results := repo.(interface{ Results() []*Result }).Results()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Result != "0-1" || results[0].Method != "checkmate" {
		t.Fatalf("upsert did not replace: %+v", results[0])
	}

	// The snapshot is detached from the stored row.
	results[0].White = "HACKED"
	again := repo.(interface{ Results() []*Result }).Results()
	if again[0].White != "KD9GEK" {
		t.Fatalf("snapshot aliases stored result")
	}
}
