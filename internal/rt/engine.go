package rt

import (
	"go.uber.org/zap"

	"github.com/redchew/taz/internal/errors"
)

// Config carries the embedding parameters from spec.md §6's makeEngine,
// plus the original's two independent representation knobs (SPEC_FULL.md
// §4) and a pluggable logger. Like sentra's and ignite's configuration
// structs, it is always passed explicitly — no flag/env parsing lives in
// this package.
type Config struct {
	// DisablePtrTagging and DisableNaNTagging mirror
	// taz_CONFIG_DISABLE_PTR_TAGGING / taz_CONFIG_DISABLE_NAN_TAGGING: two
	// independent switches, not one "representation" flag. The NaN-boxing
	// switch is informational here (the actual representation is chosen
	// at compile time by the `nanbox` build tag, since Go can't switch a
	// value's memory layout at runtime) but is still threaded through so a
	// Config built for a NaN-boxed binary documents its own intent.
	DisablePtrTagging bool
	DisableNaNTagging bool

	// StrPoolSweepEvery sets the string pool's full-cycle sweep cadence
	// (§4.2). 0 selects a sensible default.
	StrPoolSweepEvery int

	// MarkStackSize bounds the GC's iterative mark stack before it falls
	// back to local recursive sub-scans (§4.7's "bounded mark stack with
	// local recursive sub-scan overflow handling").
	MarkStackSize int

	// Logger receives structured lifecycle events (engine creation and
	// release, GC cycles, fiber creation and resumption, raw-anchor release
	// failures), in ignite's zap.SugaredLogger style (SPEC_FULL.md §2).
	// Heap growth and index growth are not logged. Defaults to a no-op
	// logger.
	Logger *zap.SugaredLogger
}

func (c Config) withDefaults() Config {
	if c.StrPoolSweepEvery == 0 {
		c.StrPoolSweepEvery = 16
	}
	if c.MarkStackSize == 0 {
		c.MarkStackSize = 256
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	return c
}

// Engine is the central runtime component (tazE_Engine, taz_engine.h):
// memory management (GC + tentative allocation), string pooling, error
// propagation via Barrier, and a reference to the shared Environment.
type Engine struct {
	cfg Config
	log *zap.SugaredLogger

	strs *StrPool

	// objects is the all-objects intrusive list head, used by the sweep
	// phase to walk every allocated object regardless of reachability
	// (tazE_Obj's next_and_tag chain).
	objects Obj

	env *Environment

	barrier *Barrier

	// fibers tracks every Fiber ever created by MakeFiber as a GC root —
	// a simplification over the original's reachability-only rooting
	// (SPEC_FULL.md/DESIGN.md): Go's own GC already keeps a Fiber alive
	// for as long as any code holds a reference to it, so this list only
	// affects our own mark bits (used for introspection and the string
	// pool's liveness accounting), never actual memory reclamation.
	fibers []*Fiber

	// activeMarker is set for the duration of a Collect cycle so Scan
	// implementations can reach it through MarkObj/MarkStr/MarkVal
	// without threading a marker parameter through every scan function,
	// mirroring the original's tazE_markObj/tazE_markStr taking only eng.
	activeMarker *gcMarker

	// Pre-built error values for the fatal/common cases sentra's teacher
	// never needed but spec.md §6/§7 names explicitly (errvalBadAlloc and
	// friends in taz_engine.h).
	errMemory *errors.Error

	gcCycles   int
	bytesAlloc uintptr
	gcThresh   uintptr
}
