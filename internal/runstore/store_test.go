package runstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"scrawl/internal/extract"
	"scrawl/internal/pipeline"
	"scrawl/internal/recognition"
	"scrawl/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleOutcome(id string) pipeline.Outcome {
	return pipeline.Outcome{
		RunID:    id,
		Document: pipeline.Document{ImagePath: "/tmp/page1.png"},
		Transcript: recognition.Transcript{
			Text:       "1. 2x = 14\nx = 7",
			Confidence: 0.88,
			Backend:    "tesseract",
			Variant:    "adaptive",
		},
		Answers: []pipeline.Answer{
			{QuestionNumber: "1", Answer: "x = 7", TierUsed: extract.TierSemantic,
				ExtractionConfidence: 0.9, MatchConfidence: 0.85, Verified: true},
			{QuestionNumber: "2", TierUsed: extract.TierNone},
		},
		Duration: 1200 * time.Millisecond,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveOutcome(ctx, sampleOutcome("run-1")); err != nil {
		t.Fatalf("SaveOutcome: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Backend != "tesseract" || run.Confidence != 0.88 {
		t.Fatalf("run = %+v", run)
	}
	if len(run.Answers) != 2 {
		t.Fatalf("answers = %+v", run.Answers)
	}
	if run.Answers[0].Answer != "x = 7" || !run.Answers[0].Verified {
		t.Fatalf("answer 0 = %+v", run.Answers[0])
	}
	if run.Answers[1].Tier != string(extract.TierNone) {
		t.Fatalf("answer 1 = %+v", run.Answers[1])
	}
	if run.Duration != 1200*time.Millisecond {
		t.Fatalf("duration = %v", run.Duration)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.SaveOutcome(ctx, sampleOutcome(id)); err != nil {
			t.Fatalf("SaveOutcome %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want limit applied", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestOpenLocksDataDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := Open(cfg); err == nil {
		t.Fatal("second Open must fail while the lock is held")
	}
}
