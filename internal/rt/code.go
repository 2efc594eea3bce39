package rt

import "github.com/redchew/taz/internal/bytecode"

// Code is the compiled form of a function body — either byte-coded
// (produced by an Assembler) or a host callback, grounded on tazR_Code /
// tazR_ByteCode / tazR_HostCode (taz_code.h).
type Code struct {
	ObjHeader

	Scope          Scope
	Name           Str
	NumFixedParams int
	HasVarParams   bool

	UpvalIdx  *Idx
	NumUpvals int
	LocalIdx  *Idx
	NumLocals int

	// Byte-coded fields. Host is nil for byte-coded Code.
	Consts []Val
	Words  []byte
	Labels []bytecode.Label

	// Host callback, set instead of Words/Consts for a host-defined Code.
	Host func(eng *Engine, fib *Fiber, args []Val) []Val
}

func (c *Code) Scan(eng *Engine, full bool) {
	if c.UpvalIdx != nil {
		eng.MarkObj(c.UpvalIdx)
	}
	if c.LocalIdx != nil {
		eng.MarkObj(c.LocalIdx)
	}
	if full {
		eng.MarkStr(c.Name)
	}
	for _, v := range c.Consts {
		eng.MarkVal(v)
	}
}

func (c *Code) Size() uintptr {
	return uintptr(len(c.Words)) + uintptr(len(c.Consts))*24
}

// MakeHostCode wraps a Go function as callable taz Code (tazR_makeHostCode),
// used to expose host-defined functions (e.g. the standard library, or a
// test harness's instrumentation hooks) to fibers.
func (eng *Engine) MakeHostCode(name Str, numFixedParams int, hasVarParams bool, fn func(eng *Engine, fib *Fiber, args []Val) []Val) *Code {
	c := &Code{
		ObjHeader:      NewObjHeader(TypeCode),
		Scope:          ScopeLocal,
		Name:           name,
		NumFixedParams: numFixedParams,
		HasVarParams:   hasVarParams,
		UpvalIdx:       eng.MakeIdx(),
		LocalIdx:       eng.MakeIdx(),
		Host:           fn,
	}
	var anchor ObjAnchor
	eng.AllocObj(c, &anchor)
	eng.CommitObj(&anchor)
	return c
}
