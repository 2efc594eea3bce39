// Package taz is the public embedding surface for the runtime implemented
// in internal/rt: an engine, a tagged/NaN-boxed value model, a string
// pool, indices, records, an environment, a bytecode assembler, and
// fibers. It re-exports internal/rt's types under stable names rather than
// re-implementing them, the same shape sentra's top-level package uses for
// its own vm/compiler subsystems.
package taz

import (
	"strings"

	"github.com/redchew/taz/internal/errors"
	"github.com/redchew/taz/internal/rt"
)

// Config configures a new Engine (spec.md §6). Unlike the original's single
// allocator callback, Go has no place to hang a user-supplied
// allocate/realloc/free triple — the runtime allocates ordinary Go values
// and lets the garbage collector reclaim them, so Config carries only the
// knobs that still mean something in a managed runtime (representation
// toggles, GC pacing, logging).
type Config = rt.Config

// Engine is the central runtime component.
type Engine = rt.Engine

// MakeEngine constructs a new Engine.
func MakeEngine(cfg Config) *Engine { return rt.MakeEngine(cfg) }

// FreeEngine releases every resource the engine still owns.
func FreeEngine(eng *Engine) { eng.FreeEngine() }

// Value construction, re-exported for every atomic and hybrid type
// (spec.md §6, "value construction helpers for every atomic and hybrid
// type").
type (
	Val    = rt.Val
	Str    = rt.Str
	Ref    = rt.Ref
	RefKind = rt.RefKind
	Type   = rt.Type
)

var (
	Udf    = rt.Udf
	Nil    = rt.NilVal
	Log    = rt.LogVal
	Int    = rt.IntVal
	Dec    = rt.DecVal
	Tup    = rt.TupVal
	RefVal = rt.RefVal
)

// Obj constructors and types.
type (
	Idx        = rt.Idx
	Rec        = rt.Rec
	Code       = rt.Code
	Assembler  = rt.Assembler
	Fun        = rt.Fun
	Box        = rt.Box
	Fiber      = rt.Fiber
	Environment = rt.Environment
	FiberState = rt.FiberState
	Scope      = rt.Scope
)

const (
	ScopeLocal  = rt.ScopeLocal
	ScopeGlobal = rt.ScopeGlobal
)

// Error is the runtime's error value (spec.md §6's stable numeric
// taxonomy).
type Error = errors.Error

// ErrNum is a stable numeric error kind.
type ErrNum = errors.Num

// Recoverable and fatal error kinds, re-exported from internal/errors so
// callers never need to import it directly.
const (
	ErrKeyType        = errors.KeyType
	ErrNumLocals      = errors.NumLocals
	ErrNumUpvals      = errors.NumUpvals
	ErrNumConsts      = errors.NumConsts
	ErrParamName      = errors.ParamName
	ErrUpvalName      = errors.UpvalName
	ErrExtraParams    = errors.ExtraParams
	ErrSetToUdf       = errors.SetToUdf
	ErrSetUndefined   = errors.SetUndefined
	ErrFormatSpec     = errors.FormatSpec
	ErrCyclicRecord   = errors.CyclicRecord
	ErrFibNotStopped  = errors.FibNotStopped
	ErrTooManyReturns = errors.TooManyReturns
	ErrTooFewReturns  = errors.TooFewReturns
	ErrTooManyArgs    = errors.TooManyArgs
	ErrTooFewArgs     = errors.TooFewArgs
	ErrUdfAsArg       = errors.UdfAsArg
	ErrPanic          = errors.Panic
	ErrOther          = errors.Other
	ErrMemory         = errors.Memory
)

// Writer is a single-character sink used by the (non-goal) formatter
// boundary — kept as an interface so a future formatter package can be
// wired against it without touching the runtime (spec.md §6).
type Writer interface {
	WriteChar(c byte) bool
}

// Reader is a single-character source, the Writer's dual.
type Reader interface {
	ReadChar() (byte, bool)
}

// DumpCode returns a disassembly of code as a string (spec.md §9
// supplemental: tazR_dumpCode).
func DumpCode(eng *Engine, code *Code) string {
	var sb strings.Builder
	rt.DumpCode(&sb, code, eng.Strings())
	return sb.String()
}
