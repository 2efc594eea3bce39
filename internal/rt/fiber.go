package rt

import (
	"github.com/google/uuid"

	"github.com/redchew/taz/internal/errors"
)

// FiberState is the lifecycle state of a Fiber (spec.md §4.8). Unlike the
// parent/child "Paused" distinction spec.md sketches for nested fiber
// hand-off, a single fiber's own yield/resume cycle only ever toggles
// between Stopped (suspended, resumable) and Current (running) — scenario
// 5 in spec.md §8 is written exactly that way: each yield returns the
// fiber to a resumable state, and only completion or error leave it
// non-resumable.
type FiberState uint8

const (
	FiberStopped FiberState = iota
	FiberCurrent
	FiberFinished
	FiberFailed
)

func (s FiberState) String() string {
	switch s {
	case FiberStopped:
		return "stopped"
	case FiberCurrent:
		return "current"
	case FiberFinished:
		return "finished"
	case FiberFailed:
		return "failed"
	default:
		return "?"
	}
}

// activation is one entry of a Fiber's control stack (BaseAR/ByteAR/HostAR,
// taz_fiber.c). A byte-coded frame owns a slice of locals and an
// instruction pointer into its Code's word stream; a host frame wraps one
// Go callback invocation and, once that callback has yielded partway
// through, sits on the control stack marked pending until the fiber is
// resumed with the values the callback is waiting on.
type activation struct {
	isHost  bool
	pending bool

	fun  *Fun
	code *Code

	locals   []Val
	hostArgs []Val
	ip       int
	base     int // Fiber.vstack index where this frame's operand stack begins
}

// Fiber is a cooperative coroutine with its own value and control stacks
// (tazR_Fib, taz_fiber.c). Each one carries a stable identity (uuid.UUID,
// grounded on SnellerInc/sneller's per-session id usage and wired per
// SPEC_FULL.md §3) so concurrently-live fibers are distinguishable in logs.
// Error values returned by Resume do not carry it.
type Fiber struct {
	ObjHeader

	eng *Engine
	ID  uuid.UUID

	state FiberState
	entry *Fun

	vstack []Val
	cstack []*activation

	finalResult []Val
}

// MakeFiber creates a new, Stopped fiber that will run fun when first
// resumed (makeFib).
func (eng *Engine) MakeFiber(fun *Fun) *Fiber {
	f := &Fiber{
		ObjHeader: NewObjHeader(TypeFib),
		eng:       eng,
		ID:        uuid.New(),
		state:     FiberStopped,
		entry:     fun,
	}
	eng.fibers = append(eng.fibers, f)
	var anchor ObjAnchor
	eng.AllocObj(f, &anchor)
	eng.CommitObj(&anchor)
	eng.log.Debugw("fiber created", "fiber", f.ID)
	return f
}

func (f *Fiber) State() FiberState { return f.state }

// formatArgs lays out actual arguments against a Code's declared
// parameters, raising TooFewArgs/TooManyArgs/UdfAsArg exactly as
// doCall/formatArgs does in taz_fiber.c: fixed parameters must be present
// and not Udf; extra arguments are only accepted when the callee is
// variadic, in which case they're collected into a trailing record rather
// than bound one-by-one.
func (f *Fiber) formatArgs(code *Code, args []Val) []Val {
	fixed := code.NumFixedParams
	if len(args) < fixed {
		f.eng.Error(errors.TooFewArgs, IntVal(int32(len(args))))
	}
	if !code.HasVarParams && len(args) > fixed {
		f.eng.Error(errors.TooManyArgs, IntVal(int32(len(args))))
	}
	locals := make([]Val, code.NumLocals)
	for i := range locals {
		locals[i] = Udf()
	}
	for i := 0; i < fixed; i++ {
		if args[i].IsUdf() {
			f.eng.Error(errors.UdfAsArg, IntVal(int32(i)))
		}
		locals[i] = args[i]
	}
	if code.HasVarParams {
		rec := f.eng.MakeRec()
		for i, v := range args[fixed:] {
			rec.Def(f.eng, f.eng.strs.Make([]byte{byte('0' + i)}), v)
		}
		locals[fixed] = ObjVal(rec)
	}
	return locals
}

// pushByteAR starts a byte-coded activation for fun (pushAR).
func (f *Fiber) pushByteAR(fun *Fun, locals []Val) *activation {
	ar := &activation{fun: fun, code: fun.Code, locals: locals, base: len(f.vstack)}
	f.cstack = append(f.cstack, ar)
	return ar
}

func (f *Fiber) pushHostAR(fun *Fun, args []Val) *activation {
	ar := &activation{fun: fun, code: fun.Code, isHost: true, hostArgs: args, base: len(f.vstack)}
	f.cstack = append(f.cstack, ar)
	return ar
}

func (f *Fiber) popAR() {
	f.cstack = f.cstack[:len(f.cstack)-1]
}

func (f *Fiber) top() *activation {
	if len(f.cstack) == 0 {
		return nil
	}
	return f.cstack[len(f.cstack)-1]
}

func (f *Fiber) push(v Val) { f.vstack = append(f.vstack, v) }

func (f *Fiber) pop() Val {
	v := f.vstack[len(f.vstack)-1]
	f.vstack = f.vstack[:len(f.vstack)-1]
	return v
}

func (f *Fiber) popN(n int) []Val {
	vals := make([]Val, n)
	copy(vals, f.vstack[len(f.vstack)-n:])
	f.vstack = f.vstack[:len(f.vstack)-n]
	return vals
}

func (f *Fiber) peek(fromTop int) Val { return f.vstack[len(f.vstack)-1-fromTop] }

// collectTuple pops a TUP-headed bundle (the header pushed by the TUP
// opcode, with its N member values directly below it on the stack) and
// returns the members in left-to-right order.
func (f *Fiber) collectTuple() []Val {
	header := f.pop()
	n := int(header.AsTup())
	vals := f.popN(n)
	return vals
}

// Resume runs the fiber until it finishes, yields, or fails (cont/resume in
// taz_fiber.c). Only a Stopped fiber may be resumed; for a Current, Finished
// or Failed one, Resume returns a FIB_NOT_STOPPED error without running it.
func (f *Fiber) Resume(args []Val) (results []Val, yielded bool, err error) {
	if f.state != FiberStopped {
		return nil, false, errors.New(errors.FibNotStopped, Udf())
	}

	if len(f.cstack) == 0 {
		locals := f.formatArgs(f.entry.Code, args)
		f.pushByteAR(f.entry, locals)
	} else {
		// Resuming a fiber paused mid-yield: the arguments become the
		// pending host call's return values, and interpretation continues
		// in the byte-coded frame beneath it.
		top := f.top()
		top.pending = false
		f.popAR()
		f.pushResult(args)
	}

	prev := f.state
	f.state = FiberCurrent
	f.eng.log.Debugw("fiber resumed", "fiber", f.ID, "from", prev.String())

	res := f.eng.RunRootBarrier(func() {
		f.run()
	})

	switch {
	case res.Yielded:
		f.state = FiberStopped
		return res.YieldVals, true, nil
	case res.HasErr:
		f.state = FiberFailed
		return nil, false, errors.New(res.ErrNum, res.ErrVal)
	default:
		f.state = FiberFinished
		return f.finalResult, false, nil
	}
}

// pushResult lands a call/resume's result on the value stack: zero values
// push Udf, one value pushes itself, and more than one push the member
// values followed by a TUP header, the same shape the TUP opcode builds —
// so a caller's GET_CONST/spread machinery can treat a multi-value result
// uniformly whether it came from a bytecode RET or a resumed host yield.
func (f *Fiber) pushResult(vals []Val) {
	switch len(vals) {
	case 0:
		f.push(Udf())
	case 1:
		f.push(vals[0])
	default:
		for _, v := range vals {
			f.push(v)
		}
		f.push(TupVal(uint8(len(vals))))
	}
}

func (f *Fiber) Scan(eng *Engine, full bool) {
	for _, v := range f.vstack {
		eng.MarkVal(v)
	}
	for _, ar := range f.cstack {
		if ar.fun != nil {
			eng.MarkObj(ar.fun)
		}
		for _, v := range ar.locals {
			eng.MarkVal(v)
		}
	}
}

func (f *Fiber) Size() uintptr {
	return uintptr(len(f.vstack))*24 + uintptr(len(f.cstack))*48
}
