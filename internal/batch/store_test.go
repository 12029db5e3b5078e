package batch

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRecordsRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, "run-1", 3); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	results := []FileResult{
		{RunID: "run-1", Primary: "a.mkv", Secondary: "a.zh.srt", Output: "a.bilingual.srt",
			Status: ResultCompleted, MergePath: "timing-preservation", SyncLevel: "excellent",
			TimeOffset: -0.25, Confidence: 0.9, EventCount: 42},
		{RunID: "run-1", Primary: "b.srt", Secondary: "b.en.srt",
			Status: ResultFailed, ErrorMessage: "alignment not found"},
		{RunID: "run-1", Primary: "c.mkv", Secondary: "c.srt", Output: "c.bilingual.srt",
			Status: ResultCompleted, MergePath: "mixed-realign", EventCount: 7},
	}
	for _, result := range results {
		if err := store.Record(ctx, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.FinishRun(ctx, "run-1"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.Results(ctx, "run-1")
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].Primary != "a.mkv" || got[0].TimeOffset != -0.25 || got[0].EventCount != 42 {
		t.Errorf("results[0] = %+v", got[0])
	}
	if got[1].Status != ResultFailed || got[1].ErrorMessage != "alignment not found" {
		t.Errorf("results[1] = %+v", got[1])
	}

	summary, err := store.Summary(ctx, "run-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 3 || summary.Completed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.FinishedAt == nil {
		t.Error("FinishedAt should be set after FinishRun")
	}
}

func TestStoreSummaryUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Summary(context.Background(), "no-such-run"); err == nil {
		t.Error("Summary of an unknown run should fail")
	}
}

func TestOpenRejectsSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()

	if second, err := Open(path); err == nil {
		second.Close()
		t.Error("second Open on a locked database should fail")
	}
}

func TestOpenReleasesLockOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after Close: %v", err)
	}
	second.Close()
}
