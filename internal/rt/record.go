package rt

import "github.com/redchew/taz/internal/errors"

// Rec is the runtime's record type (spec.md §4.4), grounded on tazR_Rec
// (taz_record.c): a field-name Idx plus a parallel values array. Multiple
// records can share one Idx until the first Def on a sharing record, which
// gives that record its own copy — copy-on-separate, the `sep` flag below mirrors
// the original's SEP bit, and `visiting` stands in for its RCU bit, used
// to detect a record that (directly or through nested records) contains
// itself during equal/less comparisons.
//
// The original packs the index pointer, its flags, and the values
// pointer/row-count into two tagged machine words to save space per
// record; that packing buys nothing in a GC'd language with ordinary
// struct fields, so Rec just uses plain fields for the same four pieces
// of state.
type Rec struct {
	ObjHeader

	idx  *Idx
	vals []Val
	sep  bool
	visiting bool
}

// MakeRec allocates a new, empty record with a private field index.
func (eng *Engine) MakeRec() *Rec {
	r := &Rec{ObjHeader: NewObjHeader(TypeRec), idx: eng.MakeIdx(), sep: true}
	var anchor ObjAnchor
	eng.AllocObj(r, &anchor)
	eng.CommitObj(&anchor)
	return r
}

// makeRecSharing allocates a record that shares an existing field index
// with another record, deferring the copy until the record's first Def
// (e.g. constructing many records of the same shape from one
// REC-building bytecode site).
func (eng *Engine) makeRecSharing(idx *Idx, vals []Val) *Rec {
	r := &Rec{ObjHeader: NewObjHeader(TypeRec), idx: idx, vals: vals, sep: false}
	var anchor ObjAnchor
	eng.AllocObj(r, &anchor)
	eng.CommitObj(&anchor)
	return r
}

func (r *Rec) separate(eng *Engine) {
	if r.sep {
		return
	}
	fresh := eng.MakeIdx()
	r.idx.Keys(func(row int, key Val) {
		fresh.Insert(key)
	})
	r.idx = fresh
	r.sep = true
}

// Def defines a new field (or redefines an existing one), separating the
// index first if it's still shared (tazR_recDef).
func (r *Rec) Def(eng *Engine, name Str, val Val) {
	r.separate(eng)
	row := r.idx.Insert(StrHandleVal(name))
	for len(r.vals) <= row {
		r.vals = append(r.vals, Udf())
	}
	r.vals[row] = val
}

// Set assigns an already-defined field, raising SetUndefined if it hasn't
// been Def'd yet (tazR_recSet).
func (r *Rec) Set(eng *Engine, name Str, val Val) {
	row, ok := r.idx.Lookup(StrHandleVal(name))
	if !ok {
		eng.Error(errors.SetUndefined, StrHandleVal(name))
		return
	}
	r.vals[row] = val
}

// Get reads a field, returning Udf if undefined (tazR_recGet).
func (r *Rec) Get(name Str) Val {
	row, ok := r.idx.Lookup(StrHandleVal(name))
	if !ok {
		return Udf()
	}
	return r.vals[row]
}

// Count reports the number of defined fields (tazR_recCount).
func (r *Rec) Count() int { return r.idx.Len() }

// Iterate walks fields in definition order (RecIter, §4.4).
func (r *Rec) Iterate(fn func(name Str, val Val)) {
	r.idx.Keys(func(row int, key Val) {
		fn(key.AsStr(), r.vals[row])
	})
}

// isSubset reports whether every field of a exists in b with an equal
// value — the structural building block behind Equal/Less/LessOrEqual
// (taz_record.c's isSubset/areEqual/recLess/recLessOrEqual). A record
// reachable from itself through nested field values (directly or via b)
// raises CYCLIC_RECORD rather than silently terminating the recursion,
// per spec.md §8 scenario 3: recEqual(A, A) where A.0 = B and B.0 = A must
// fail, not report equal.
func (eng *Engine) isSubset(a, b *Rec) bool {
	if a.visiting && b.visiting {
		eng.Error(errors.CyclicRecord, Udf())
		return false
	}
	a.visiting, b.visiting = true, true
	defer func() { a.visiting, b.visiting = false, false }()

	ok := true
	a.idx.Keys(func(row int, key Val) {
		if !ok {
			return
		}
		brow, found := b.idx.Lookup(key)
		if !found || !eng.Equal(a.vals[row], b.vals[brow]) {
			ok = false
		}
	})
	return ok
}

func (eng *Engine) recEqual(a, b *Rec) bool {
	return eng.isSubset(a, b) && eng.isSubset(b, a)
}

// RecLessOrEqual reports whether a's fields are a subset of b's
// (tazR_recLessOrEqual).
func (eng *Engine) RecLessOrEqual(a, b *Rec) bool { return eng.isSubset(a, b) }

// RecLess reports whether a is a strict subset of b (tazR_recLess).
func (eng *Engine) RecLess(a, b *Rec) bool {
	return eng.isSubset(a, b) && !eng.isSubset(b, a)
}

func (r *Rec) Scan(eng *Engine, full bool) {
	eng.MarkObj(r.idx)
	for _, v := range r.vals {
		eng.MarkVal(v)
	}
}

func (r *Rec) Size() uintptr {
	return uintptr(len(r.vals)) * 32
}
