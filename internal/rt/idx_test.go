package rt

import "testing"

func TestIdxInsertLookup(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	idx := eng.MakeIdx()

	a := idx.Insert(IntVal(1))
	b := idx.Insert(IntVal(2))
	if a == b {
		t.Fatal("distinct keys must get distinct rows")
	}
	if again := idx.Insert(IntVal(1)); again != a {
		t.Errorf("re-inserting an existing key returned a new row: %d != %d", again, a)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}

	row, ok := idx.Lookup(IntVal(2))
	if !ok || row != b {
		t.Errorf("Lookup(2) = (%d, %v), want (%d, true)", row, ok, b)
	}
	if _, ok := idx.Lookup(IntVal(99)); ok {
		t.Error("Lookup of an absent key should report not found")
	}
}

func TestIdxRemoveKeepsRowsStable(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	idx := eng.MakeIdx()

	a := idx.Insert(IntVal(10))
	b := idx.Insert(IntVal(20))

	if !idx.Remove(IntVal(10)) {
		t.Fatal("Remove of a live key should report true")
	}
	if idx.Remove(IntVal(10)) {
		t.Error("Remove of an already-removed key should report false")
	}
	if idx.Len() != 1 {
		t.Errorf("Len() after removal = %d, want 1", idx.Len())
	}
	// b's row index must not have shifted.
	if row, ok := idx.Lookup(IntVal(20)); !ok || row != b {
		t.Errorf("surviving key moved rows: got (%d, %v), want (%d, true)", row, ok, b)
	}
	_ = a
}

func TestIdxGrowthAcrossCapTable(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	idx := eng.MakeIdx()

	const n = 5000
	for i := 0; i < n; i++ {
		idx.Insert(IntVal(int32(i)))
	}
	if idx.Len() != n {
		t.Fatalf("Len() = %d, want %d", idx.Len(), n)
	}
	for i := 0; i < n; i++ {
		row, ok := idx.Lookup(IntVal(int32(i)))
		if !ok || idx.Key(row).AsInt() != int32(i) {
			t.Fatalf("lookup of %d failed after growth: row=%d ok=%v", i, row, ok)
		}
	}
}

func TestIdxKeysIteratesLiveOnly(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	idx := eng.MakeIdx()

	idx.Insert(IntVal(1))
	idx.Insert(IntVal(2))
	idx.Insert(IntVal(3))
	idx.Remove(IntVal(2))

	seen := map[int32]bool{}
	idx.Keys(func(row int, key Val) { seen[key.AsInt()] = true })

	if len(seen) != 2 || !seen[1] || !seen[3] || seen[2] {
		t.Errorf("Keys() visited %v, want {1, 3}", seen)
	}
}
