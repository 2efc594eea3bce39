//go:build nanbox

package rt

import "math"

// Val is the NaN-boxed value representation (spec.md §3), selected with
// `-tags nanbox`. A quiet-NaN float64 pattern's 52 mantissa bits carry a
// 4-bit type tag plus a 48-bit payload, mirroring tazR_othVal's
// `0x7FF<<52 | payload<<4 | tag` (taz_common.h); any bit pattern that
// isn't that reserved NaN shape is read back as an ordinary float64 (Dec).
//
// Go's garbage collector cannot trace a raw pointer hidden inside a
// uint64, so heap objects aren't boxed by address the way the C original
// boxes a pointer: instead the payload is an index into a process-wide
// object table (objTable below) and the real *Go* pointer lives there,
// where the GC can see it. This is the one place the nanbox build
// deliberately diverges from the C layout — documented in DESIGN.md.
type Val uint64

const (
	nanExpMask  = uint64(0x7FF) << 52
	nanTagMask  = uint64(0xF)
	nanPayShift = 4
	nanPayMask  = (uint64(1) << 48) - 1
)

func box(tag Type, payload uint64) Val {
	return Val(nanExpMask | (payload&nanPayMask)<<nanPayShift | uint64(tag)&nanTagMask)
}

func (v Val) isBoxed() bool {
	bits := uint64(v)
	return bits&nanExpMask == nanExpMask && bits&((uint64(1)<<52)-1) != 0
}

var (
	valUdf = box(TypeUdf, 0)
	valNil = box(TypeNil, 0)
)

func Udf() Val    { return valUdf }
func NilVal() Val { return valNil }

func LogVal(b bool) Val {
	var p uint64
	if b {
		p = 1
	}
	return box(TypeLog, p)
}

func IntVal(i int32) Val     { return box(TypeInt, uint64(uint32(i))) }
func DecVal(d float64) Val   { return Val(math.Float64bits(d)) }
func TupVal(n uint8) Val     { return box(TypeTup, uint64(n)) }
func StrHandleVal(s Str) Val { return box(TypeStr, uint64(s)) }

func RefVal(r Ref) Val {
	return box(TypeRef, uint64(r.Kind)<<32|uint64(r.Which))
}

// objTable maps nanbox payload indices to live Go object pointers. See the
// type doc comment above for why this indirection exists.
var (
	objTable []Obj
	objFree  []uint32
)

func internObj(o Obj) uint32 {
	h := o.Header()
	if h.slot >= 0 {
		return uint32(h.slot)
	}
	var idx uint32
	if n := len(objFree); n > 0 {
		idx = objFree[n-1]
		objFree = objFree[:n-1]
		objTable[idx] = o
	} else {
		idx = uint32(len(objTable))
		objTable = append(objTable, o)
	}
	h.slot = int32(idx)
	return idx
}

// releaseObj frees a nanbox object-table slot once the GC has confirmed the
// backing object is unreachable (called from gc.go's sweep).
func releaseObj(slot int32) {
	if slot < 0 {
		return
	}
	objTable[slot] = nil
	objFree = append(objFree, uint32(slot))
}

func ObjVal(o Obj) Val {
	return box(o.Header().Typ, uint64(internObj(o)))
}

func (v Val) Type() Type {
	if !v.isBoxed() {
		return TypeDec
	}
	return Type(uint64(v) & nanTagMask)
}

func (v Val) payload() uint64 {
	return (uint64(v) >> nanPayShift) & nanPayMask
}

func (v Val) AsLog() bool    { return v.payload() != 0 }
func (v Val) AsInt() int32   { return int32(uint32(v.payload())) }
func (v Val) AsDec() float64 { return math.Float64frombits(uint64(v)) }
func (v Val) AsTup() uint8   { return uint8(v.payload()) }
func (v Val) AsStr() Str     { return Str(v.payload()) }

func (v Val) AsObj() Obj {
	idx := v.payload()
	if int(idx) >= len(objTable) {
		return nil
	}
	return objTable[idx]
}

func (v Val) AsRef() Ref {
	p := v.payload()
	return Ref{Kind: RefKind(p >> 32), Which: uint32(p)}
}

func (v Val) rawBits() uint64 {
	if v.Type() == TypeDec {
		return 0
	}
	return uint64(v)
}
