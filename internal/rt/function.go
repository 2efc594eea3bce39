package rt

// Fun is a closure: a Code body plus the upvalue Boxes it was created
// with (tazR_Fun).
type Fun struct {
	ObjHeader
	Code   *Code
	Upvals []*Box
}

// MakeFun closes code over upvals, which must be ordered to match
// code.UpvalIdx's slots.
func (eng *Engine) MakeFun(code *Code, upvals []*Box) *Fun {
	f := &Fun{ObjHeader: NewObjHeader(TypeFun), Code: code, Upvals: upvals}
	var anchor ObjAnchor
	eng.AllocObj(f, &anchor)
	eng.CommitObj(&anchor)
	return f
}

func (f *Fun) Scan(eng *Engine, full bool) {
	eng.MarkObj(f.Code)
	for _, b := range f.Upvals {
		eng.MarkObj(b)
	}
}

func (f *Fun) Size() uintptr { return uintptr(len(f.Upvals))*8 + 16 }
