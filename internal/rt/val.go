package rt

import (
	"math"

	"github.com/dchest/siphash"
)

// IsUdf, IsNil and friends are representation-independent convenience
// checks layered on top of whichever Val build (val_tagged.go/val_nanbox.go)
// is active.
func (v Val) IsUdf() bool { return v.Type() == TypeUdf }
func (v Val) IsNil() bool { return v.Type() == TypeNil }

// Truthy implements the language's boolean-coercion rule used by AND_JUMP/
// OR_JUMP/ALT_JUMP and conditional branches (spec.md §4.6): nil, udf,
// false and the atomic zero values are falsy, everything else is truthy.
func (v Val) Truthy() bool {
	switch v.Type() {
	case TypeUdf, TypeNil:
		return false
	case TypeLog:
		return v.AsLog()
	case TypeInt:
		return v.AsInt() != 0
	case TypeDec:
		return v.AsDec() != 0
	default:
		return true
	}
}

// Hash computes the value's hash for use as an Index key (§4.3). Atomic
// values hash their raw bits through the engine's process-wide SipHash key
// (SPEC_FULL.md §3); strings delegate to the string pool so that two
// differently-classed handles with equal content still hash equal.
func (e *Engine) Hash(v Val) uint64 {
	if v.Type() == TypeStr {
		return e.strs.Hash(v.AsStr())
	}
	var buf [9]byte
	buf[0] = byte(v.Type())
	bits := v.rawBits()
	if v.Type() == TypeDec {
		bits = math.Float64bits(v.AsDec())
	}
	for i := 0; i < 8; i++ {
		buf[1+i] = byte(bits >> (8 * uint(i)))
	}
	return siphash.Hash(e.strs.k0, e.strs.k1, buf[:])
}

// Equal implements tazR_valEqual extended with by-content string
// comparison (the raw handles may differ in class yet name the same
// bytes).
func (e *Engine) Equal(a, b Val) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Type() {
	case TypeStr:
		return e.strs.Equal(a.AsStr(), b.AsStr())
	case TypeDec:
		return a.AsDec() == b.AsDec()
	case TypeRec:
		return e.recEqual(a.AsObj().(*Rec), b.AsObj().(*Rec))
	default:
		return a.rawBits() == b.rawBits() && a.AsObj() == b.AsObj()
	}
}
