package rt

// Box is an upvalue cell (tazR_Box): a single boxed Val shared between a
// closure and the enclosing scope that captured it, so writes through one
// closure's upvalue are visible through any other closure sharing the
// same Box.
type Box struct {
	ObjHeader
	Val Val
}

// MakeBox allocates a fresh upvalue cell.
func (eng *Engine) MakeBox(v Val) *Box {
	b := &Box{ObjHeader: NewObjHeader(TypeBox), Val: v}
	var anchor ObjAnchor
	eng.AllocObj(b, &anchor)
	eng.CommitObj(&anchor)
	return b
}

func (b *Box) Scan(eng *Engine, full bool) { eng.MarkVal(b.Val) }
func (b *Box) Size() uintptr               { return 32 }
