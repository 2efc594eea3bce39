package rt

import (
	"github.com/redchew/taz/internal/bytecode"
	"github.com/redchew/taz/internal/errors"
)

// Assembler builds a Code object instruction-by-instruction, grounded on
// BCAssembler (taz_code.c): it owns the growing word buffer, constant
// pool, and the local/upvalue name indices that addLocal/addUpval/addParam
// resolve names against.
type Assembler struct {
	ObjHeader

	eng  *Engine
	name Str
	scope Scope

	buf    *bytecode.Buffer
	consts []Val

	numFixedParams int
	hasVarParams   bool

	upvalIdx  *Idx
	numUpvals int
	localIdx  *Idx
	numLocals int
}

// MakeAssembler starts assembling a new Code object (tazR_makeAssembler).
func (eng *Engine) MakeAssembler(name Str, scope Scope) *Assembler {
	as := &Assembler{
		ObjHeader: NewObjHeader(TypeState),
		eng:       eng,
		name:      name,
		scope:     scope,
		buf:       bytecode.NewBuffer(),
		upvalIdx:  eng.MakeIdx(),
		localIdx:  eng.MakeIdx(),
	}
	var anchor ObjAnchor
	eng.AllocObj(as, &anchor)
	eng.CommitObj(&anchor)
	return as
}

// MakeNestedAssembler starts assembling a function nested inside this one,
// sharing the engine and scope (makeNestedAssembler).
func (as *Assembler) MakeNestedAssembler(name Str) *Assembler {
	return as.eng.MakeAssembler(name, as.scope)
}

// AddLabel returns a label for the instruction about to be emitted, for a
// caller that wants a backward-jump target (addLabel's `where ==
// instrs.top` case).
func (as *Assembler) AddLabel() bytecode.Label { return as.buf.Here() }

// AddInstrA emits an A-form instruction.
func (as *Assembler) AddInstrA(op bytecode.Op, operand int) bytecode.Label {
	return as.buf.EmitA(op, operand)
}

// AddInstrB emits a B-form instruction (addInstr generalizes both forms in
// the original via a single opcode/v/x triple; here the two forms are
// split into AddInstrA/AddInstrB since Go's type system makes an
// accidental form/field mismatch a compile error instead of a silent
// opcode-table bug).
func (as *Assembler) AddInstrB(op bytecode.Op, variation, operand int) bytecode.Label {
	return as.buf.EmitB(op, variation, operand)
}

// PatchJump backfills a forward jump's operand once its target is known.
func (as *Assembler) PatchJump(lbl bytecode.Label, target bytecode.Label) {
	as.buf.PatchOperand(lbl, target.Offset())
}

// AddConst appends val to the constant pool (equal values are not
// deduplicated) and returns a CONST-kind Ref
// for it, raising NumConsts if the pool has overflowed (addConst).
func (as *Assembler) AddConst(val Val) Ref {
	loc := len(as.consts)
	as.consts = append(as.consts, val)
	if loc > int(^uint32(0)>>2) {
		as.eng.Error(errors.NumConsts, Udf())
	}
	return Ref{Kind: RefConst, Which: uint32(loc)}
}

// AddUpval resolves (or creates) an upvalue slot for name (addUpval).
func (as *Assembler) AddUpval(name Str) Ref {
	loc := as.upvalIdx.Insert(StrHandleVal(name))
	as.numUpvals++
	if loc > int(^uint32(0)>>2) {
		as.eng.Error(errors.NumUpvals, Udf())
	}
	return Ref{Kind: RefBoxed, Which: uint32(loc)}
}

// AddLocal resolves (or creates) a local slot for name, routing through
// the environment's global table instead when this assembler is building
// top-level (global-scoped) code (addLocal).
func (as *Assembler) AddLocal(name Str) Ref {
	var loc uint32
	if as.scope == ScopeGlobal {
		loc = as.eng.env.GlobalLoc(name)
	} else {
		loc = uint32(as.localIdx.Insert(StrHandleVal(name)))
	}
	as.numLocals++
	kind := RefLocal
	if as.scope == ScopeGlobal {
		kind = RefGlobal
	}
	return Ref{Kind: kind, Which: loc}
}

// AddParam declares a fixed or variadic parameter. Must be called before
// any AddLocal on this assembler (addParam).
func (as *Assembler) AddParam(name Str, variadic bool) Ref {
	if as.scope == ScopeGlobal {
		panic("rt: global-scoped code cannot declare parameters")
	}
	loc := uint32(as.localIdx.Insert(StrHandleVal(name)))
	if variadic {
		as.hasVarParams = true
	} else {
		as.numFixedParams++
	}
	return Ref{Kind: RefLocal, Which: loc}
}

// MakeCode finalizes the assembler into an immutable Code object
// (makeByteCode). The assembler's word buffer is already packed to
// spec.md §4.6's layout (the original defers packing to this step; here
// Buffer packs eagerly as instructions are emitted, so MakeCode only has
// to snapshot it).
func (as *Assembler) MakeCode() *Code {
	code := &Code{
		ObjHeader:      NewObjHeader(TypeCode),
		Scope:          as.scope,
		Name:           as.name,
		NumFixedParams: as.numFixedParams,
		HasVarParams:   as.hasVarParams,
		UpvalIdx:       as.upvalIdx,
		NumUpvals:      as.numUpvals,
		LocalIdx:       as.localIdx,
		NumLocals:      as.numLocals,
		Consts:         as.consts,
		Words:          as.buf.Bytes(),
	}
	var anchor ObjAnchor
	as.eng.AllocObj(code, &anchor)
	as.eng.CommitObj(&anchor)
	return code
}

func (as *Assembler) Scan(eng *Engine, full bool) {
	eng.MarkObj(as.upvalIdx)
	eng.MarkObj(as.localIdx)
	for _, v := range as.consts {
		eng.MarkVal(v)
	}
}

func (as *Assembler) Size() uintptr { return uintptr(len(as.consts))*24 + uintptr(as.buf.Len()) }
