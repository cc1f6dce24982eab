package ccta

import "testing"

func TestRewriteNoOpWhenDeadCountBelowThreshold(t *testing.T) {
	now := baseNow()
	w := NewWriter(7)
	s := mustSession(t, w, now, nil)
	for _, name := range []string{"A", "B", "C", "D"} {
		s.Insert(TestRun{Testsuite: "suite", Name: name, Outcome: Pass})
	}
	v, err := Parse(w.Finish(), now)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rw, changed, err := Rewrite(v, now, 7, 0)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if changed {
		t.Fatalf("Rewrite reported changed=true, want false (no rows dead, same width)")
	}
	out, err := Parse(rw.Finish(), now)
	if err != nil {
		t.Fatalf("Parse(rewritten): %v", err)
	}
	if out.NumTests() != 4 {
		t.Fatalf("NumTests() after no-op rewrite = %d, want 4", out.NumTests())
	}
}

func TestRewriteDropsDeadRowsAboveThreshold(t *testing.T) {
	now := baseNow()
	w := NewWriter(7)
	s := mustSession(t, w, now, nil)
	s.Insert(TestRun{Testsuite: "suite", Name: "Live", Outcome: Pass})
	for _, name := range []string{"D1", "D2", "D3"} {
		s.Insert(TestRun{Testsuite: "suite", Name: name, Outcome: Pass})
	}

	later := now + 8*secondsPerDay
	s2 := mustSession(t, w, later, nil)
	s2.Insert(TestRun{Testsuite: "suite", Name: "Live", Outcome: Pass})

	v, err := Parse(w.Finish(), later)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rw, changed, err := Rewrite(v, later, 7, 1)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !changed {
		t.Fatalf("Rewrite reported changed=false, want true (3 dead rows exceed threshold 1)")
	}
	out, err := Parse(rw.Finish(), later)
	if err != nil {
		t.Fatalf("Parse(rewritten): %v", err)
	}
	if out.NumTests() != 1 {
		t.Fatalf("NumTests() after GC = %d, want 1 (only Live should survive)", out.NumTests())
	}
	name, _ := out.Test(0).Name()
	if name != "Live" {
		t.Fatalf("surviving row name = %q, want \"Live\"", name)
	}
}

func TestRewriteResizeChangesWidthEvenWithNoDeadRows(t *testing.T) {
	now := baseNow()
	w := NewWriter(2)
	s := mustSession(t, w, now, nil)
	s.Insert(TestRun{Testsuite: "suite", Name: "T", Outcome: Pass})
	v, err := Parse(w.Finish(), now)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rw, changed, err := Rewrite(v, now, 7, 0)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !changed {
		t.Fatalf("Rewrite reported changed=false, want true (width changed from 2 to 7)")
	}
	out, err := Parse(rw.Finish(), now)
	if err != nil {
		t.Fatalf("Parse(rewritten): %v", err)
	}
	if out.NumDays() != 7 {
		t.Fatalf("NumDays() = %d, want 7", out.NumDays())
	}
	if out.Test(0).Bucket(0).totalPassCount != 1 {
		t.Fatalf("surviving row's data lost across resize")
	}
}

func TestRewriteKeepsCommitHashesRegardlessOfRowGC(t *testing.T) {
	now := baseNow()
	w := NewWriter(7)
	s, err := w.StartSession(now, nil, testSHA1)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	s.Insert(TestRun{Testsuite: "suite", Name: "Dead", Outcome: Pass})

	later := now + 30*secondsPerDay
	v, err := Parse(w.Finish(), later)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rw, _, err := Rewrite(v, later, 7, 0)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	out, err := Parse(rw.Finish(), later)
	if err != nil {
		t.Fatalf("Parse(rewritten): %v", err)
	}
	if out.NumTests() != 0 {
		t.Fatalf("NumTests() = %d, want 0 (Dead row aged out)", out.NumTests())
	}
	hashes, err := out.CommitHashes()
	if err != nil {
		t.Fatalf("CommitHashes: %v", err)
	}
	if len(hashes) != 1 || hashes[0] != testSHA1 {
		t.Fatalf("CommitHashes() after GC = %v, want [%q] preserved", hashes, testSHA1)
	}
}

// TestRewriteNegativeThresholdSelectsDefault reproduces the distinction
// between "caller didn't pass a threshold" (negative, selects
// numTests/4) and an explicit request to rewrite on any dead row at
// all (threshold 0): with 8 rows and 1 dead, threshold 0 is strict
// enough to force a rewrite, but the default (numTests/4 == 2) is not.
func TestRewriteNegativeThresholdSelectsDefault(t *testing.T) {
	now := baseNow()
	w := NewWriter(7)
	s := mustSession(t, w, now, nil)
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		s.Insert(TestRun{Testsuite: "suite", Name: name, Outcome: Pass})
	}

	later := now + 8*secondsPerDay
	s2 := mustSession(t, w, later, nil)
	for _, name := range []string{"B", "C", "D", "E", "F", "G", "H"} {
		s2.Insert(TestRun{Testsuite: "suite", Name: name, Outcome: Pass})
	}

	v, err := Parse(w.Finish(), later)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, changedDefault, err := Rewrite(v, later, 7, -1)
	if err != nil {
		t.Fatalf("Rewrite(default): %v", err)
	}
	if changedDefault {
		t.Fatalf("Rewrite(threshold=-1) reported changed=true, want false (1 dead row is within the default numTests/4 == 2)")
	}

	_, changedZero, err := Rewrite(v, later, 7, 0)
	if err != nil {
		t.Fatalf("Rewrite(threshold=0): %v", err)
	}
	if !changedZero {
		t.Fatalf("Rewrite(threshold=0) reported changed=false, want true (any dead row should force a rewrite)")
	}
}

func TestIsLive(t *testing.T) {
	now := baseNow()
	if !isLive(now, now, 7) {
		t.Errorf("isLive(now, now, 7) = false, want true")
	}
	if isLive(now, now+7*secondsPerDay, 7) {
		t.Errorf("isLive(now, now+7d, 7) = true, want false (aged out of a 7-day window)")
	}
	if !isLive(now, now+6*secondsPerDay, 7) {
		t.Errorf("isLive(now, now+6d, 7) = false, want true (still within a 7-day window)")
	}
}
