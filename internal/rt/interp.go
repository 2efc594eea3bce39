package rt

import (
	"github.com/redchew/taz/internal/bytecode"
	"github.com/redchew/taz/internal/errors"
)

// run drives f's control stack until it empties (the fiber has returned
// from its entry function) or an interrupt (error/yield) unwinds out of
// it via panic — the non-local-jump discipline spec.md §5/§7 describes,
// ported onto Go's panic/recover instead of setjmp/longjmp (see barrier.go).
//
// Each iteration dispatches the instruction at the current byte-coded
// frame's ip; CALL/host invocation pushes a new activation and loops again
// without returning to the Go call stack, so arbitrarily deep taz call
// chains cost one Go-level loop iteration each rather than one Go stack
// frame each.
func (f *Fiber) run() {
	for {
		ar := f.top()
		if ar == nil {
			return
		}
		if ar.isHost {
			f.runHost(ar)
			continue
		}
		if f.step(ar) {
			continue
		}
	}
}

// runHost invokes (or resumes past) a host activation. A host Code runs to
// completion unless it calls Engine.Yield, in which case this function
// never returns normally — the panic unwinds straight out of run() to
// Resume's barrier, leaving ar on top of the control stack marked pending
// for the next Resume to find.
func (f *Fiber) runHost(ar *activation) {
	ar.pending = true
	results := ar.code.Host(f.eng, f, ar.hostArgs)
	ar.pending = false
	f.popAR()
	f.pushResult(results)
}

// step executes exactly one instruction of ar's byte-coded frame and
// always returns true, including for the RET that empties the control
// stack: run's outer loop notices f.top() == nil on its next pass.
func (f *Fiber) step(ar *activation) bool {
	ins := bytecode.Decode(ar.code.Words, ar.ip)
	ar.ip += ins.Width
	op, v, x := ins.Op, ins.Variation, ins.Operand

	switch op {
	case bytecode.Nop:
		// padding only

	case bytecode.GetLocalA, bytecode.GetLocalB:
		f.push(ar.locals[x])

	case bytecode.GetConstA, bytecode.GetConstB:
		f.push(ar.code.Consts[x])

	case bytecode.GetUpvalA, bytecode.GetUpvalB:
		f.push(ar.fun.Upvals[x].Val)

	case bytecode.GetGlobalA, bytecode.GetGlobalB:
		f.push(f.eng.env.GlobalValByLoc(uint32(x)))

	case bytecode.GetFieldA, bytecode.GetFieldB:
		name := ar.code.Consts[x].AsStr()
		rec := f.pop().AsObj().(*Rec)
		f.push(rec.Get(name))

	case bytecode.Jump:
		ar.ip = x
	case bytecode.AndJump:
		if f.peek(0).Truthy() {
			f.pop()
		} else {
			ar.ip = x
		}
	case bytecode.OrJump:
		if f.peek(0).Truthy() {
			ar.ip = x
		} else {
			f.pop()
		}
	case bytecode.AltJump:
		// a ?? b: keep a and skip b's bytecode when a is already defined;
		// otherwise drop the Udf and fall through into b.
		if !f.peek(0).IsUdf() {
			ar.ip = x
		} else {
			f.pop()
		}

	case bytecode.LoadThing:
		f.push(loadThing(f.eng, x))

	case bytecode.Not:
		f.push(LogVal(!f.pop().Truthy()))
	case bytecode.Neg:
		f.push(negVal(f.eng, f.pop()))
	case bytecode.Flip:
		f.push(IntVal(^f.pop().AsInt()))

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
		b, a := f.pop(), f.pop()
		f.push(arith(f.eng, op, a, b))

	case bytecode.Shl, bytecode.Shr:
		b, a := f.pop(), f.pop()
		if op == bytecode.Shl {
			f.push(IntVal(a.AsInt() << uint(b.AsInt())))
		} else {
			f.push(IntVal(a.AsInt() >> uint(b.AsInt())))
		}

	case bytecode.Lt, bytecode.Le, bytecode.Gt, bytecode.Ge:
		b, a := f.pop(), f.pop()
		f.push(LogVal(order(f.eng, op, a, b)))
	case bytecode.Ie:
		b, a := f.pop(), f.pop()
		f.push(LogVal(f.eng.Equal(a, b)))
	case bytecode.Ne:
		b, a := f.pop(), f.pop()
		f.push(LogVal(!f.eng.Equal(a, b)))
	case bytecode.Ue:
		b, a := f.pop(), f.pop()
		f.push(LogVal(a.Type() != b.Type()))

	case bytecode.LAnd, bytecode.LXor, bytecode.LOr:
		b, a := f.pop(), f.pop()
		f.push(bitwise(op, a, b))

	case bytecode.Call:
		f.doCall(x)
	case bytecode.Ret:
		f.doReturn(x)
		return true

	case bytecode.Pop:
		f.pop()
	case bytecode.Dup:
		f.push(f.peek(0))
	case bytecode.Swap:
		a, b := f.pop(), f.pop()
		f.push(a)
		f.push(b)

	case bytecode.SpreadInTup:
		f.spreadInTup()
	case bytecode.SpreadInRec:
		f.spreadInRec()

	case bytecode.Def:
		f.doDef(ar, v, x)
	case bytecode.Set:
		f.doSet(ar, v, x)

	case bytecode.DefFields:
		f.doDefFields(ar, v, x)
	case bytecode.SetFields:
		f.doSetFields(ar, v, x)

	case bytecode.MakeRef:
		// The assembler precomputes the Ref and stores it in the constant
		// pool (AddConst(RefVal(...))); MAKE_REF is a semantic marker
		// distinguishing a reference-producing load from an ordinary
		// GET_CONST, even though the fetch itself is identical.
		f.push(ar.code.Consts[x])
	case bytecode.Tup:
		f.push(TupVal(uint8(x)))

	default:
		f.eng.Error(errors.Other, IntVal(int32(op)))
	}
	return true
}

func loadThing(eng *Engine, operand int) Val {
	switch operand {
	case bytecode.ThingZeroInt:
		return IntVal(0)
	case bytecode.ThingZeroDec:
		return DecVal(0)
	case bytecode.ThingNil:
		return NilVal()
	case bytecode.ThingUdf:
		return Udf()
	case bytecode.ThingTrue:
		return LogVal(true)
	case bytecode.ThingFalse:
		return LogVal(false)
	case bytecode.ThingEmptyShortStr, bytecode.ThingEmptyLongStr:
		return StrHandleVal(eng.strs.Make(nil))
	default:
		return Udf()
	}
}

func negVal(eng *Engine, v Val) Val {
	switch v.Type() {
	case TypeInt:
		return IntVal(-v.AsInt())
	case TypeDec:
		return DecVal(-v.AsDec())
	default:
		eng.Error(errors.KeyType, v)
		return Udf()
	}
}

func arith(eng *Engine, op bytecode.Op, a, b Val) Val {
	if a.Type() == TypeDec || b.Type() == TypeDec {
		x, y := toDec(a), toDec(b)
		switch op {
		case bytecode.Add:
			return DecVal(x + y)
		case bytecode.Sub:
			return DecVal(x - y)
		case bytecode.Mul:
			return DecVal(x * y)
		case bytecode.Div:
			return DecVal(x / y)
		default: // Mod
			return DecVal(decMod(x, y))
		}
	}
	x, y := a.AsInt(), b.AsInt()
	switch op {
	case bytecode.Add:
		return IntVal(x + y)
	case bytecode.Sub:
		return IntVal(x - y)
	case bytecode.Mul:
		return IntVal(x * y)
	case bytecode.Div:
		if y == 0 {
			eng.Error(errors.Other, a)
			return Udf()
		}
		return IntVal(x / y)
	default: // Mod
		if y == 0 {
			eng.Error(errors.Other, a)
			return Udf()
		}
		return IntVal(x % y)
	}
}

func toDec(v Val) float64 {
	if v.Type() == TypeDec {
		return v.AsDec()
	}
	return float64(v.AsInt())
}

func decMod(x, y float64) float64 {
	q := x - y*float64(int64(x/y))
	return q
}

func order(eng *Engine, op bytecode.Op, a, b Val) bool {
	var x, y float64
	switch {
	case a.Type() == TypeStr && b.Type() == TypeStr:
		less := eng.strs.Less(a.AsStr(), b.AsStr())
		switch op {
		case bytecode.Lt:
			return less
		case bytecode.Le:
			return less || eng.strs.Equal(a.AsStr(), b.AsStr())
		case bytecode.Gt:
			return !less && !eng.strs.Equal(a.AsStr(), b.AsStr())
		default: // Ge
			return !less
		}
	case a.Type() == TypeRec && b.Type() == TypeRec:
		ra, rb := a.AsObj().(*Rec), b.AsObj().(*Rec)
		switch op {
		case bytecode.Lt:
			return eng.RecLess(ra, rb)
		case bytecode.Le:
			return eng.RecLessOrEqual(ra, rb)
		case bytecode.Gt:
			return eng.RecLess(rb, ra)
		default: // Ge
			return eng.RecLessOrEqual(rb, ra)
		}
	default:
		x, y = toDec(a), toDec(b)
	}
	switch op {
	case bytecode.Lt:
		return x < y
	case bytecode.Le:
		return x <= y
	case bytecode.Gt:
		return x > y
	default: // Ge
		return x >= y
	}
}

func bitwise(op bytecode.Op, a, b Val) Val {
	if a.Type() == TypeLog && b.Type() == TypeLog {
		x, y := a.AsLog(), b.AsLog()
		switch op {
		case bytecode.LAnd:
			return LogVal(x && y)
		case bytecode.LXor:
			return LogVal(x != y)
		default:
			return LogVal(x || y)
		}
	}
	x, y := a.AsInt(), b.AsInt()
	switch op {
	case bytecode.LAnd:
		return IntVal(x & y)
	case bytecode.LXor:
		return IntVal(x ^ y)
	default:
		return IntVal(x | y)
	}
}

// doCall pops argc arguments and the callee below them, then either pushes
// a new byte-coded activation (interpretation resumes in the new frame on
// the next run() iteration) or invokes a host Code directly (runHost).
func (f *Fiber) doCall(argc int) {
	args := f.popN(argc)
	callee := f.pop()
	fun, ok := callee.AsObj().(*Fun)
	if !ok {
		f.eng.Error(errors.KeyType, callee)
		return
	}
	if fun.Code.Host != nil {
		f.pushHostAR(fun, args)
		return
	}
	locals := f.formatArgs(fun.Code, args)
	f.pushByteAR(fun, locals)
}

// doReturn pops n return values off the current frame, tears it down, and
// lands the result on the caller's stack (or, if this was the entry
// frame, stashes it as the fiber's final result).
func (f *Fiber) doReturn(n int) {
	vals := f.popN(n)
	ar := f.top()
	f.vstack = f.vstack[:ar.base]
	f.popAR()
	if len(f.cstack) == 0 {
		f.finalResult = vals
		return
	}
	f.pushResult(vals)
}

func (f *Fiber) spreadInTup() {
	v := f.pop()
	if rec, ok := v.AsObj().(*Rec); ok {
		n := rec.Count()
		rec.Iterate(func(name Str, val Val) { f.push(val) })
		f.push(TupVal(uint8(n)))
		return
	}
	f.push(v)
}

func (f *Fiber) spreadInRec() {
	v := f.pop()
	rec := f.eng.MakeRec()
	if src, ok := v.AsObj().(*Rec); ok {
		src.Iterate(func(name Str, val Val) { rec.Def(f.eng, name, val) })
	}
	f.push(ObjVal(rec))
}

// doDef binds a pattern-defined name (or tuple of names) in the current
// frame. Tuple variations destructure a TUP bundle across consecutive
// local slots starting at x; record variations bind the whole popped
// value to a single slot — full per-field record-pattern matching is not
// reconstructable from spec.md's level of detail and is narrowed to this
// whole-value bind (see DESIGN.md).
func (f *Fiber) doDef(ar *activation, variation, x int) {
	switch variation {
	case bytecode.VarSimpleTuple, bytecode.VarVariadicTuple:
		vals := f.collectTuple()
		for i, v := range vals {
			if x+i < len(ar.locals) {
				ar.locals[x+i] = v
			}
		}
	default:
		ar.locals[x] = f.pop()
	}
}

func (f *Fiber) doSet(ar *activation, variation, x int) {
	switch variation {
	case bytecode.VarSimpleTuple, bytecode.VarVariadicTuple:
		vals := f.collectTuple()
		for i, v := range vals {
			if x+i < len(ar.locals) {
				ar.locals[x+i] = v
			}
		}
	default:
		if ar.code.Scope == ScopeGlobal {
			f.eng.env.SetGlobalByLoc(uint32(x), f.pop())
		} else {
			ar.locals[x] = f.pop()
		}
	}
}

// doDefFields writes into a record popped off the stack rather than into
// the current frame's locals — the field-pattern counterpart to doDef
// (taz_opcodes.in.c's DEF_FIELDS). The tuple-pattern variations define a single
// named field (x indexes the field name in the constant pool, the same way
// GET_FIELD does); the record-pattern variations copy every field of the
// popped value across onto the target record.
func (f *Fiber) doDefFields(ar *activation, variation, x int) {
	switch variation {
	case bytecode.VarSimpleTuple, bytecode.VarVariadicTuple:
		name := ar.code.Consts[x].AsStr()
		val := f.pop()
		rec := f.pop().AsObj().(*Rec)
		rec.Def(f.eng, name, val)
	default:
		val := f.pop()
		rec := f.pop().AsObj().(*Rec)
		if src, ok := val.AsObj().(*Rec); ok {
			src.Iterate(func(name Str, v Val) { rec.Def(f.eng, name, v) })
		}
	}
}

// doSetFields is doDefFields's SET_FIELDS counterpart: it requires every
// written field to already be defined, raising SET_UNDEFINED otherwise
// (Rec.Set).
func (f *Fiber) doSetFields(ar *activation, variation, x int) {
	switch variation {
	case bytecode.VarSimpleTuple, bytecode.VarVariadicTuple:
		name := ar.code.Consts[x].AsStr()
		val := f.pop()
		rec := f.pop().AsObj().(*Rec)
		rec.Set(f.eng, name, val)
	default:
		val := f.pop()
		rec := f.pop().AsObj().(*Rec)
		if src, ok := val.AsObj().(*Rec); ok {
			src.Iterate(func(name Str, v Val) { rec.Set(f.eng, name, v) })
		}
	}
}
