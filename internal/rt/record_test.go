package rt

import (
	"testing"

	"github.com/redchew/taz/internal/errors"
)

func TestRecDefGetSet(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()

	r := eng.MakeRec()
	name := eng.strs.Make([]byte("x"))

	if !r.Get(name).IsUdf() {
		t.Fatal("undefined field must read as udf")
	}
	r.Def(eng, name, IntVal(1))
	if got := r.Get(name); got.AsInt() != 1 {
		t.Fatalf("Get after Def = %v, want 1", got)
	}
	r.Set(eng, name, IntVal(2))
	if got := r.Get(name); got.AsInt() != 2 {
		t.Fatalf("Get after Set = %v, want 2", got)
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
}

func TestRecSetUndefinedRaises(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	name := eng.strs.Make([]byte("missing"))

	res := eng.RunBarrier(func() {
		r := eng.MakeRec()
		r.Set(eng, name, IntVal(1))
	})
	if !res.HasErr || res.ErrNum != errors.SetUndefined {
		t.Fatalf("result = %+v, want SET_UNDEFINED", res)
	}
}

func TestRecEqualStructural(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	name := eng.strs.Make([]byte("a"))

	a := eng.MakeRec()
	a.Def(eng, name, IntVal(1))
	b := eng.MakeRec()
	b.Def(eng, name, IntVal(1))

	if !eng.recEqual(a, b) {
		t.Fatal("records with identical fields must compare equal")
	}
	b.Def(eng, eng.strs.Make([]byte("extra")), IntVal(2))
	if eng.recEqual(a, b) {
		t.Fatal("b has an extra field, must not be equal to a")
	}
	if !eng.RecLess(a, b) {
		t.Fatal("a's fields are a strict subset of b's, RecLess should hold")
	}
}

// TestRecCyclicRecordDetection mirrors spec.md §8 scenario 3:
// A.def(0, B); B.def(0, A); recEqual(A, A) must raise CYCLIC_RECORD.
func TestRecCyclicRecordDetection(t *testing.T) {
	eng := MakeEngine(Config{})
	defer eng.FreeEngine()
	field := eng.strs.Make([]byte("0"))

	res := eng.RunBarrier(func() {
		a := eng.MakeRec()
		b := eng.MakeRec()
		a.Def(eng, field, ObjVal(b))
		b.Def(eng, field, ObjVal(a))
		eng.recEqual(a, a)
	})
	if !res.HasErr || res.ErrNum != errors.CyclicRecord {
		t.Fatalf("result = %+v, want CYCLIC_RECORD", res)
	}
}
