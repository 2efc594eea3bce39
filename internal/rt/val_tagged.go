//go:build !nanbox

package rt

// Val is the tagged-struct value representation (spec.md §3's "tagged
// struct" alternative to NaN-boxing), the default build. Every field other
// than dec is a plain payload; which one is meaningful is determined by
// typ. Heap objects are held as a real Go interface value (obj) rather
// than an address, so Go's own GC keeps them alive independent of our
// mark-sweep bookkeeping — see SPEC_FULL.md §4's note on this
// representation choice.
type Val struct {
	typ Type
	u   uint64
	dec float64
	obj Obj
}

var (
	valUdf = Val{typ: TypeUdf}
	valNil = Val{typ: TypeNil}
)

func Udf() Val    { return valUdf }
func NilVal() Val { return valNil }

func LogVal(b bool) Val {
	var u uint64
	if b {
		u = 1
	}
	return Val{typ: TypeLog, u: u}
}

func IntVal(i int32) Val    { return Val{typ: TypeInt, u: uint64(uint32(i))} }
func DecVal(d float64) Val  { return Val{typ: TypeDec, dec: d} }
func TupVal(n uint8) Val    { return Val{typ: TypeTup, u: uint64(n)} }
func StrHandleVal(s Str) Val { return Val{typ: TypeStr, u: uint64(s)} }

func RefVal(r Ref) Val {
	return Val{typ: TypeRef, u: uint64(r.Kind)<<32 | uint64(r.Which)}
}

// ObjVal wraps a heap object, tagging it with its own header type.
func ObjVal(o Obj) Val {
	return Val{typ: o.Header().Typ, obj: o}
}

func (v Val) Type() Type  { return v.typ }
func (v Val) AsLog() bool { return v.u != 0 }
func (v Val) AsInt() int32 { return int32(uint32(v.u)) }
func (v Val) AsDec() float64 { return v.dec }
func (v Val) AsTup() uint8   { return uint8(v.u) }
func (v Val) AsStr() Str     { return Str(v.u) }
func (v Val) AsObj() Obj     { return v.obj }

func (v Val) AsRef() Ref {
	return Ref{Kind: RefKind(v.u >> 32), Which: uint32(v.u)}
}

// rawBits exposes the non-float payload for hashing (§3's Val.hash()).
func (v Val) rawBits() uint64 {
	if v.typ == TypeDec {
		return 0
	}
	return v.u
}
