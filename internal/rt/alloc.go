package rt

// ObjAnchor and RawAnchor implement the tentative-allocation protocol from
// taz_engine.h's "Note: Memory Allocation": an allocation is provisional
// until committed, and is automatically released if a barrier unwinds
// (error or yield) while it's still pending.
//
// Go's own GC reclaims memory regardless of what we do here, so the
// C original's core worry — a long jump leaking a malloc'd block that
// nothing will ever free — cannot actually happen in this port. What
// still matters, and what this preserves, is the engine's own book-
// keeping: an object must not be linked into the all-objects list (and
// therefore must not be scanned or returned to guest code) until its
// constructor has fully initialized it and its barrier has committed.
type ObjAnchor struct {
	obj Obj
}

// RawAnchor is the non-object counterpart, used for builder-internal
// buffers (e.g. the assembler's word buffer, a record's field array during
// separation) that aren't themselves GC objects but still need to vanish
// cleanly on an unwind mid-construction. The release callback may report a
// cleanup failure (e.g. a pooled buffer that failed to return to its
// arena); cleanupBarrier (barrier.go) combines every such error across all
// anchors unwound by one interrupt via multierr rather than only
// surfacing the first.
type RawAnchor struct {
	release func() error
}

// AllocObj registers a freshly constructed object as pending on the
// current barrier. The object must not be exposed to any other code until
// CommitObj is called.
func (eng *Engine) AllocObj(o Obj, anchor *ObjAnchor) Obj {
	anchor.obj = o
	if b := eng.barrier; b != nil {
		b.objAnchors = append(b.objAnchors, anchor)
	}
	return o
}

// CommitObj links a pending object into the engine's all-objects list,
// making it live and GC-scanned (tazE_commitObj).
func (eng *Engine) CommitObj(anchor *ObjAnchor) {
	o := anchor.obj
	if o == nil {
		return
	}
	h := o.Header()
	h.Next = eng.objects
	eng.objects = o
	eng.bytesAlloc += o.Size()
	eng.detachObjAnchor(anchor)
	anchor.obj = nil
}

// CancelObj abandons a pending object (tazE_cancelObj): it is never linked
// into the all-objects list, so the sweep phase never sees it and Go's GC
// collects it as soon as nothing else references it.
func (eng *Engine) CancelObj(anchor *ObjAnchor) {
	if anchor.obj != nil {
		anchor.obj.Header().Dead = true
	}
	eng.detachObjAnchor(anchor)
	anchor.obj = nil
}

func (eng *Engine) detachObjAnchor(anchor *ObjAnchor) {
	b := eng.barrier
	if b == nil {
		return
	}
	for i, a := range b.objAnchors {
		if a == anchor {
			b.objAnchors = append(b.objAnchors[:i], b.objAnchors[i+1:]...)
			return
		}
	}
}

// AllocRaw registers a cleanup to run if the current barrier unwinds
// before CommitRaw is called (tazE_mallocRaw's anchor half).
func (eng *Engine) AllocRaw(anchor *RawAnchor, release func() error) {
	anchor.release = release
	if b := eng.barrier; b != nil {
		b.rawAnchors = append(b.rawAnchors, anchor)
	}
}

// CommitRaw marks a raw allocation as permanent (tazE_commitRaw).
func (eng *Engine) CommitRaw(anchor *RawAnchor) {
	eng.detachRawAnchor(anchor)
	anchor.release = nil
}

// CancelRaw runs the registered release callback immediately
// (tazE_cancelRaw).
func (eng *Engine) CancelRaw(anchor *RawAnchor) {
	if anchor.release != nil {
		if err := anchor.release(); err != nil {
			eng.log.Warnw("raw anchor release failed", "error", err)
		}
	}
	eng.detachRawAnchor(anchor)
	anchor.release = nil
}

func (eng *Engine) detachRawAnchor(anchor *RawAnchor) {
	b := eng.barrier
	if b == nil {
		return
	}
	for i, a := range b.rawAnchors {
		if a == anchor {
			b.rawAnchors = append(b.rawAnchors[:i], b.rawAnchors[i+1:]...)
			return
		}
	}
}
