package rt

import (
	"go.uber.org/multierr"

	"github.com/redchew/taz/internal/errors"
)

// Bucket is a stack-scoped set of GC roots (tazE_Bucket, taz_engine.h's
// "Note: Reference Buckets"): a subroutine that needs to keep intermediate
// Vals alive across an allocation (and therefore across a possible GC)
// installs a bucket on the current barrier instead of relying on Go
// locals, which the mark phase has no way to see.
type Bucket struct {
	vals []Val
}

// NewBucket returns a bucket sized for n slots, all initialized to Udf
// (mirroring the original's "initialized to udf when installed").
func NewBucket(n int) *Bucket {
	vals := make([]Val, n)
	for i := range vals {
		vals[i] = Udf()
	}
	return &Bucket{vals: vals}
}

func (b *Bucket) Get(i int) Val     { return b.vals[i] }
func (b *Bucket) Set(i int, v Val)  { b.vals[i] = v }
func (b *Bucket) Len() int          { return len(b.vals) }

// AddBucket links b onto the current barrier (tazE_addBucket).
func (eng *Engine) AddBucket(b *Bucket) {
	if bar := eng.barrier; bar != nil {
		bar.buckets = append(bar.buckets, b)
	}
}

// RemBucket unlinks b (tazE_remBucket). Must be called before the stack
// frame that owns b returns.
func (eng *Engine) RemBucket(b *Bucket) {
	bar := eng.barrier
	if bar == nil {
		return
	}
	for i, x := range bar.buckets {
		if x == b {
			bar.buckets = append(bar.buckets[:i], bar.buckets[i+1:]...)
			return
		}
	}
}

// Barrier is a non-local-jump boundary (tazE_Barrier): the Go port replaces
// setjmp/longjmp with panic/recover, since threading an error return
// through every potentially-failing call in the interpreter loop would be
// both far more invasive to sentra's existing control-flow shape and far
// slower in the common no-error path. A Barrier still owns the anchor and
// bucket lists that must be torn down on unwind, exactly as the original
// does; only the jump mechanism changed (SPEC_FULL.md §9 / open question
// resolution, recorded in DESIGN.md).
type Barrier struct {
	prev *Barrier

	objAnchors []*ObjAnchor
	rawAnchors []*RawAnchor
	buckets    []*Bucket

	// root marks the engine-level outermost barrier: fatal error kinds
	// (errors.Num.IsFatal) skip every other barrier and are only ever
	// caught here (spec.md §7).
	root bool

	// OnError/OnYield are optional pre-interrupt callbacks, mirroring
	// errorFun/yieldFun in taz_engine.h — run after an interrupt is
	// raised but before anchors/buckets are torn down.
	OnError func(eng *Engine, bar *Barrier)
	OnYield func(eng *Engine, bar *Barrier)
}

type interruptKind uint8

const (
	interruptError interruptKind = iota
	interruptYield
)

type interrupt struct {
	kind      interruptKind
	errNum    errors.Num
	errVal    Val
	yieldVals []Val
}

// PushBarrier installs bar as the current barrier (tazE_pushBarrier).
func (eng *Engine) PushBarrier(bar *Barrier) {
	bar.prev = eng.barrier
	eng.barrier = bar
}

// PopBarrier uninstalls bar, which must be the current barrier
// (tazE_popBarrier).
func (eng *Engine) PopBarrier(bar *Barrier) {
	if eng.barrier != bar {
		panic("rt: PopBarrier called out of order")
	}
	eng.barrier = bar.prev
}

// Error raises a runtime error, unwinding to the nearest enclosing barrier
// (or, for a fatal kind, the engine-root barrier) via panic/recover
// (tazE_error).
func (eng *Engine) Error(num errors.Num, val Val) {
	if bar := eng.barrier; bar != nil && bar.OnError != nil {
		bar.OnError(eng, bar)
	}
	panic(interrupt{kind: interruptError, errNum: num, errVal: val})
}

// Yield suspends the current fiber, unwinding to the nearest enclosing
// barrier (tazE_yield). vals becomes the result handed back to whoever
// called Resume. Yield itself never returns: the next Resume's arguments
// stand in for the result of the host call that yielded, and the fiber
// continues in the frame beneath it.
func (eng *Engine) Yield(vals ...Val) {
	if bar := eng.barrier; bar != nil && bar.OnYield != nil {
		bar.OnYield(eng, bar)
	}
	panic(interrupt{kind: interruptYield, yieldVals: vals})
}

// cleanupBarrier cancels every anchor still pending on bar and drops its
// bucket links, exactly what the original does when a long jump crosses a
// barrier. Raw anchors may each report a release failure; every one
// encountered during this single unwind is combined via multierr rather
// than only surfacing the first, then logged — a barrier unwind has
// already committed to propagating the original error/yield, so cleanup
// failures can only be reported, not substituted for it.
func (eng *Engine) cleanupBarrier(bar *Barrier) {
	for _, a := range bar.objAnchors {
		if a.obj != nil {
			a.obj.Header().Dead = true
		}
	}
	var cleanupErr error
	for _, a := range bar.rawAnchors {
		if a.release != nil {
			cleanupErr = multierr.Append(cleanupErr, a.release())
		}
	}
	if cleanupErr != nil {
		eng.log.Warnw("barrier cleanup errors", "error", cleanupErr)
	}
	bar.objAnchors = nil
	bar.rawAnchors = nil
	bar.buckets = nil
}

// BarrierResult reports how RunBarrier's function terminated.
type BarrierResult struct {
	Yielded   bool
	YieldVals []Val
	ErrNum    errors.Num
	ErrVal    Val
	HasErr    bool
}

// RunBarrier installs a fresh, non-root barrier, runs fn, and recovers any
// Error/Yield interrupt it raises, releasing pending anchors/buckets along
// the way. Fatal error kinds are re-panicked after local cleanup so they
// keep unwinding to the next barrier up (or ultimately RunRootBarrier).
func (eng *Engine) RunBarrier(fn func()) (result BarrierResult) {
	return eng.runBarrier(&Barrier{}, fn)
}

// RunRootBarrier is like RunBarrier but marks the barrier as root: fatal
// error kinds stop here instead of propagating further, since there is no
// barrier above the engine's own entry point.
func (eng *Engine) RunRootBarrier(fn func()) (result BarrierResult) {
	return eng.runBarrier(&Barrier{root: true}, fn)
}

func (eng *Engine) runBarrier(bar *Barrier, fn func()) (result BarrierResult) {
	eng.PushBarrier(bar)
	defer func() {
		eng.cleanupBarrier(bar)
		eng.PopBarrier(bar)
		r := recover()
		if r == nil {
			return
		}
		it, ok := r.(interrupt)
		if !ok {
			panic(r)
		}
		if it.kind == interruptError && it.errNum.IsFatal() && !bar.root {
			panic(r)
		}
		switch it.kind {
		case interruptError:
			result.HasErr = true
			result.ErrNum = it.errNum
			result.ErrVal = it.errVal
		case interruptYield:
			result.Yielded = true
			result.YieldVals = it.yieldVals
		}
	}()
	fn()
	return
}
