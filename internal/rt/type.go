// Package rt is the core runtime: the value model, allocator/GC, string
// pool, index, record, environment, code/assembler and fiber/interpreter
// subsystems described in spec.md §3-§5. They live in one package because
// each depends on the others' concrete types (records hold indices, fibers
// hold records/functions, the engine allocates and scans all of them) —
// see SPEC_FULL.md §1 for why this isn't split further.
package rt

// Type is the runtime value tag, grounded on tazR_Type (taz_common.h).
// Order matters: atomic types sort before the hybrid Str type, which sorts
// before heap object types — callers can test e.g. `typ >= TypeStr` to ask
// "does this value need GC involvement".
type Type uint8

const (
	TypeNone Type = iota

	// Atomic: payload fits entirely in a Val, no GC/allocation involved.
	TypeUdf
	TypeNil
	TypeLog
	TypeInt
	TypeDec
	TypeTup
	TypeRef
	typeLastAtomic = TypeRef

	// Hybrid: string handles. Short strings are inline in the handle (no
	// allocation); medium/long strings are interned/allocated but the
	// pool, not the GC's object list, owns their lifetime (§4.2).
	TypeStr
	typeLastHybrid = TypeStr

	// Heap objects: tracked by the engine's mark-sweep GC (§4.1, §4.7).
	TypeIdx
	TypeRec
	TypeCode
	TypeFun
	TypeFib
	TypeBox
	TypeState
	typeLastObject = TypeState
)

// IsAtomic reports whether values of this type carry their entire payload
// inline with no heap involvement.
func (t Type) IsAtomic() bool { return t >= TypeUdf && t <= typeLastAtomic }

// IsObj reports whether values of this type are GC-tracked heap objects.
func (t Type) IsObj() bool { return t >= TypeIdx && t <= typeLastObject }

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeUdf:
		return "udf"
	case TypeNil:
		return "nil"
	case TypeLog:
		return "log"
	case TypeInt:
		return "int"
	case TypeDec:
		return "dec"
	case TypeTup:
		return "tup"
	case TypeRef:
		return "ref"
	case TypeStr:
		return "str"
	case TypeIdx:
		return "idx"
	case TypeRec:
		return "rec"
	case TypeCode:
		return "code"
	case TypeFun:
		return "fun"
	case TypeFib:
		return "fib"
	case TypeBox:
		return "box"
	case TypeState:
		return "state"
	default:
		return "?"
	}
}

// RefKind is the sub-type of a Ref value, carried over verbatim from
// tazR_RefType (taz_common.h) per SPEC_FULL.md §4.
type RefKind uint8

const (
	RefGlobal RefKind = iota
	RefLocal
	RefBoxed
	// RefConst addresses the assembler's own constant pool — the original
	// (taz_code.c's addConst) tags these as tazR_RefType_CONST, a fourth
	// kind used only by the assembler/interpreter, distinct from the
	// three environment-facing kinds above.
	RefConst
)

// Ref is a symbolic reference with a kind and a slot index, produced by the
// assembler's addLocal/addUpval/addParam/addConst (§4.6) and consumed by
// GET/SET instructions at interpretation time.
type Ref struct {
	Kind  RefKind
	Which uint32
}

// Scope mirrors taz_Scope: whether a Code object is a top-level chunk
// (global scope) or an ordinary function body (local scope).
type Scope uint8

const (
	ScopeLocal Scope = iota
	ScopeGlobal
)
