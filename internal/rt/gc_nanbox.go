//go:build nanbox

package rt

// releaseObjSlot frees o's object-table slot (see val_nanbox.go) once the
// sweep phase has determined it is unreachable.
func releaseObjSlot(o Obj) {
	h := o.Header()
	releaseObj(h.slot)
	h.slot = -1
}
