package ingest

import (
	"context"
	"testing"

	"ccta/internal/storage"
	"ccta/pkg/ccta"
)

func TestRegistryIngestCreatesProjectOnFirstUse(t *testing.T) {
	reg := NewRegistry(storage.NewMemoryStore(), 7)
	ctx := context.Background()
	now := uint32(1_700_000_000)

	err := reg.Ingest(ctx, Batch{
		Project:   "proj-a",
		Timestamp: now,
		Runs: []ccta.TestRun{
			{Testsuite: "suite", Name: "T", Outcome: ccta.Pass},
		},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	v, err := reg.View(ctx, "proj-a", now)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.NumTests() != 1 {
		t.Fatalf("NumTests() = %d, want 1", v.NumTests())
	}
}

func TestRegistryIngestAccumulatesAcrossBatches(t *testing.T) {
	reg := NewRegistry(storage.NewMemoryStore(), 7)
	ctx := context.Background()
	now := uint32(1_700_000_000)

	for i := 0; i < 3; i++ {
		err := reg.Ingest(ctx, Batch{
			Project:   "proj-a",
			Timestamp: now,
			Runs:      []ccta.TestRun{{Testsuite: "suite", Name: "T", Outcome: ccta.Pass}},
		})
		if err != nil {
			t.Fatalf("Ingest #%d: %v", i, err)
		}
	}

	v, err := reg.View(ctx, "proj-a", now)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if got := v.Test(0).Aggregate(0, 1).TotalPass; got != 3 {
		t.Fatalf("pass count = %d, want 3", got)
	}
}

func TestRegistryLoadsExistingArtifactFromStore(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	now := uint32(1_700_000_000)

	w := ccta.NewWriter(7)
	s, err := w.StartSession(now, nil, "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	s.Insert(ccta.TestRun{Testsuite: "suite", Name: "Preexisting", Outcome: ccta.Pass})
	if err := store.Put(ctx, "proj-b", w.Finish()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reg := NewRegistry(store, 7)
	v, err := reg.View(ctx, "proj-b", now)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.NumTests() != 1 {
		t.Fatalf("NumTests() = %d, want 1 (loaded from storage)", v.NumTests())
	}
	name, _ := v.Test(0).Name()
	if name != "Preexisting" {
		t.Fatalf("Name() = %q, want %q", name, "Preexisting")
	}
}

func TestRegistryKeepsProjectsIndependent(t *testing.T) {
	reg := NewRegistry(storage.NewMemoryStore(), 7)
	ctx := context.Background()
	now := uint32(1_700_000_000)

	_ = reg.Ingest(ctx, Batch{Project: "a", Timestamp: now, Runs: []ccta.TestRun{{Testsuite: "s", Name: "T", Outcome: ccta.Pass}}})
	_ = reg.Ingest(ctx, Batch{Project: "b", Timestamp: now, Runs: []ccta.TestRun{
		{Testsuite: "s", Name: "T", Outcome: ccta.Pass},
		{Testsuite: "s", Name: "T", Outcome: ccta.Failure},
	}})

	va, _ := reg.View(ctx, "a", now)
	vb, _ := reg.View(ctx, "b", now)
	if va.Test(0).Aggregate(0, 1).TotalPass != 1 {
		t.Fatalf("project a pass count wrong")
	}
	if vb.Test(0).Aggregate(0, 1).TotalPass != 1 || vb.Test(0).Aggregate(0, 1).TotalFail != 1 {
		t.Fatalf("project b counts wrong")
	}
}
