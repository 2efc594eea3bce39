package rt

import (
	"github.com/redchew/taz/internal/errors"
	"go.uber.org/zap"
)

// MakeEngine constructs a new Engine (tazE_makeEngine). The environment is
// created immediately so globals can be defined before any barrier is
// pushed.
func MakeEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	eng := &Engine{
		cfg:  cfg,
		log:  cfg.Logger,
		strs: NewStrPool(cfg.StrPoolSweepEvery),
	}
	eng.gcThresh = 1 << 20
	eng.env = newEnvironment(eng)
	eng.errMemory = errors.New(errors.Memory, nil)
	eng.log.Infow("engine created",
		"ptrTaggingDisabled", cfg.DisablePtrTagging,
		"nanTaggingDisabled", cfg.DisableNaNTagging,
	)
	return eng
}

// FreeEngine releases every object the engine still owns (tazE_freeEngine).
// Go's own GC will reclaim the memory regardless; this walks the
// all-objects list and calls Finalize on every object that implements
// finalizer, then drops the list.
func (eng *Engine) FreeEngine() {
	for o := eng.objects; o != nil; o = o.Header().Next {
		if fin, ok := o.(finalizer); ok {
			fin.Finalize(eng)
		}
	}
	eng.objects = nil
	eng.log.Infow("engine freed", "gcCycles", eng.gcCycles)
}

// finalizer is the optional hook for objects that hold resources beyond
// what Go's GC reclaims on its own. None of this package's object types
// implements it.
type finalizer interface {
	Finalize(eng *Engine)
}

// Logger exposes the engine's structured logger to other rt files and to
// the public taz package.
func (eng *Engine) Logger() *zap.SugaredLogger { return eng.log }

// Strings exposes the engine's string pool to callers (the disassembler,
// the public taz package) that need to decode a Str handle's bytes without
// otherwise touching runtime internals.
func (eng *Engine) Strings() *StrPool { return eng.strs }

// InternStr interns b into the engine's string pool, choosing inline,
// medium or long representation by length (tazR_strMake).
func (eng *Engine) InternStr(b []byte) Str { return eng.strs.Make(b) }
