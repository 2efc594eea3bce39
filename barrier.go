package taz

import "github.com/redchew/taz/internal/rt"

// Barrier is a non-local-jump boundary owning the anchors and buckets
// created within its scope (spec.md §6).
type Barrier = rt.Barrier

// Bucket is a stack-declared root set of Val slots traced by the GC.
type Bucket = rt.Bucket

// ObjAnchor and RawAnchor register a tentative allocation pending commit.
type (
	ObjAnchor = rt.ObjAnchor
	RawAnchor = rt.RawAnchor
)

// BarrierResult reports how a barrier's function terminated.
type BarrierResult = rt.BarrierResult

// RunBarrier installs a fresh, non-root barrier around fn, recovering any
// Error/Yield it raises.
func RunBarrier(eng *Engine, fn func()) BarrierResult { return eng.RunBarrier(fn) }

// RunRootBarrier is RunBarrier for the engine's outermost scope, where
// fatal error kinds are finally caught instead of propagated further.
func RunRootBarrier(eng *Engine, fn func()) BarrierResult { return eng.RunRootBarrier(fn) }

// NewBucket allocates a bucket sized for n Val slots.
func NewBucket(n int) *Bucket { return rt.NewBucket(n) }
