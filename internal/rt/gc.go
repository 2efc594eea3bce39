package rt

// gcMarker is the bounded mark stack described in spec.md §4.7: push
// candidates up to a fixed limit; once full, fall back to scanning the
// overflowing object immediately via a plain recursive call instead of
// growing the explicit stack, trading a deeper Go call stack for bounded
// heap use in the worklist itself.
type gcMarker struct {
	eng   *Engine
	stack []Obj
	limit int
	full  bool
}

func (m *gcMarker) markObj(o Obj) {
	if o == nil {
		return
	}
	h := o.Header()
	if h.Marked {
		return
	}
	h.Marked = true
	if len(m.stack) < m.limit {
		m.stack = append(m.stack, o)
		return
	}
	// Mark stack overflow: scan this object's children right now via a
	// local recursive sub-scan rather than growing the worklist.
	o.Scan(m.eng, m.full)
}

func (m *gcMarker) markVal(v Val) {
	switch v.Type() {
	case TypeStr:
		m.eng.strs.mark(v.AsStr())
	default:
		if v.Type().IsObj() {
			m.markObj(v.AsObj())
		}
	}
}

func (m *gcMarker) drain() {
	for len(m.stack) > 0 {
		o := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		o.Scan(m.eng, m.full)
	}
}

// Collect runs one mark-sweep cycle (tazE_collect). A full cycle also asks
// the string pool to sweep its medium and long strings (§4.2's "full cycle
// every Nth cycle"); a non-full cycle only reclaims unreachable heap
// objects.
func (eng *Engine) Collect(full bool) {
	eng.gcCycles++
	eng.log.Debugw("gc cycle start", "cycle", eng.gcCycles, "full", full, "bytesAlloc", eng.bytesAlloc)

	for o := eng.objects; o != nil; o = o.Header().Next {
		o.Header().Marked = false
	}

	m := &gcMarker{eng: eng, limit: eng.cfg.MarkStackSize, full: full}
	eng.activeMarker = m
	eng.markRoots(m)
	m.drain()
	eng.activeMarker = nil

	var kept Obj
	var keptTail Obj
	freed := 0
	for o := eng.objects; o != nil; {
		next := o.Header().Next
		if o.Header().Marked {
			o.Header().Next = nil
			if keptTail == nil {
				kept = o
			} else {
				keptTail.Header().Next = o
			}
			keptTail = o
		} else {
			freed++
			eng.releaseObject(o)
		}
		o = next
	}
	eng.objects = kept

	eng.strs.sweep(full)
	eng.gcThresh = eng.bytesAlloc * 2
	if eng.gcThresh < 1<<16 {
		eng.gcThresh = 1 << 16
	}
	eng.log.Infow("gc cycle done", "cycle", eng.gcCycles, "freed", freed)
}

// MaybeCollect triggers a cycle if the engine has grown past its
// allocation threshold since the last one — the pacing policy stands in
// for the original's allocator-driven trigger, since Go's own allocator
// doesn't expose the same hooks.
func (eng *Engine) MaybeCollect() {
	if eng.bytesAlloc < eng.gcThresh {
		return
	}
	full := eng.gcCycles%eng.cfg.StrPoolSweepEvery == 0
	eng.Collect(full)
}

func (eng *Engine) releaseObject(o Obj) {
	o.Header().Dead = true
	releaseObjSlot(o)
}

func (eng *Engine) markRoots(m *gcMarker) {
	if eng.env != nil {
		eng.env.scan(eng, m)
	}
	for bar := eng.barrier; bar != nil; bar = bar.prev {
		for _, b := range bar.buckets {
			for _, v := range b.vals {
				m.markVal(v)
			}
		}
	}
	for _, f := range eng.fibers {
		m.markObj(f)
	}
}

// MarkObj and MarkStr expose the mark callbacks Scan implementations call
// on their referenced fields (tazE_markObj/tazE_markStr). They're only
// meaningful mid-collection; Scan implementations receive the active
// marker indirectly through these engine-level entry points, matching the
// original's shape of passing `eng` to every scan function.
func (eng *Engine) MarkObj(o Obj)   { eng.activeMarker.markObj(o) }
func (eng *Engine) MarkStr(s Str)   { eng.strs.mark(s) }
func (eng *Engine) MarkVal(v Val)   { eng.activeMarker.markVal(v) }
