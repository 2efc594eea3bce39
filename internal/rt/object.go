package rt

// ObjHeader is the intrusive GC header embedded in every heap object,
// grounded on tazR_Obj (taz_common.h): a next-pointer for the engine's
// all-objects list plus type/mark/dead bits. The original packs next and
// the tag bits into one tagged pointer word (tazR_TPtr) to save space;
// here Next is a real Go pointer (so Go's own GC keeps the chain alive
// regardless of our mark bits — see DESIGN.md's object.go entry on using
// actual pointers rather than unsafe/manual memory) and the tag bits are ordinary
// fields.
type ObjHeader struct {
	Next   Obj
	Typ    Type
	Marked bool
	Dead   bool

	// slot is lazily assigned the first time this object is boxed into a
	// Val under the nanbox build (val_nanbox.go); unused by the tagged
	// representation. -1 means "not yet interned".
	slot int32
}

// NewObjHeader initializes a header for a freshly allocated object of the
// given type.
func NewObjHeader(typ Type) ObjHeader { return ObjHeader{Typ: typ, slot: -1} }

func (h *ObjHeader) Header() *ObjHeader { return h }
func (h *ObjHeader) Type() Type         { return h.Typ }
func (h *ObjHeader) IsMarked() bool     { return h.Marked }
func (h *ObjHeader) IsDead() bool       { return h.Dead }

// Obj is any GC-tracked heap object: Idx, Rec, Code, Fun, Fib, Box, or a
// State object (Assembler). Every Obj must be scannable (report the
// Vals/Strs/Objs it holds live); finalization is optional (the finalizer
// interface in engine_init.go).
type Obj interface {
	Header() *ObjHeader
	// Scan reports the engine-owned references this object holds, via mark
	// callbacks on eng. full additionally asks hybrid fields (e.g. a Code's
	// own name Str) to be marked — see StrPool's full-cycle sweep.
	Scan(eng *Engine, full bool)
	// Size estimates the object's heap footprint for GC pacing heuristics.
	Size() uintptr
}
