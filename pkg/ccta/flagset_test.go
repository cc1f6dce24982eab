package ccta

import "testing"

func TestFlagSetEmptyIsSentinel(t *testing.T) {
	t1 := newFlagSetTable()
	off := t1.insert(nil)
	if off != noFlagSet {
		t.Fatalf("insert(nil) = %d, want noFlagSet", off)
	}
	got, ok := t1.read(off)
	if !ok || len(got) != 0 {
		t.Fatalf("read(noFlagSet) = (%v, %v), want ([], true)", got, ok)
	}
}

func TestFlagSetCanonicalizesOrder(t *testing.T) {
	t1 := newFlagSetTable()
	a := t1.insert([]uint32{10, 20})
	b := t1.insert([]uint32{20, 10})
	if a != b {
		t.Fatalf("insert([10,20]) and insert([20,10]) = %d, %d, want same offset", a, b)
	}
	if len(t1.blob) != 4+4*2 {
		t.Fatalf("blob grew on a duplicate set insert: len=%d", len(t1.blob))
	}
}

func TestFlagSetDedupsWithinSet(t *testing.T) {
	t1 := newFlagSetTable()
	a := t1.insert([]uint32{5, 5, 7})
	got, ok := t1.read(a)
	if !ok {
		t.Fatalf("read(%d) failed", a)
	}
	if len(got) != 2 {
		t.Fatalf("read(%d) = %v, want 2 distinct offsets", a, got)
	}
}

func TestFlagSetTableFromBytes(t *testing.T) {
	t1 := newFlagSetTable()
	off := t1.insert([]uint32{1, 2, 3})
	t1.insert([]uint32{4})

	rebuilt, err := flagSetTableFromBytes(t1.blob)
	if err != nil {
		t.Fatalf("flagSetTableFromBytes: %v", err)
	}
	if got := rebuilt.insert([]uint32{3, 2, 1}); got != off {
		t.Fatalf("rebuilt table re-inserted {1,2,3} at %d, want reuse of %d", got, off)
	}
}

func TestReadFlagSetOutOfBounds(t *testing.T) {
	if _, ok := readFlagSet([]byte{1, 2, 3}, 0); ok {
		t.Fatalf("readFlagSet on truncated blob should fail")
	}
}
