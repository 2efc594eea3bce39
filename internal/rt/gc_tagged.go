//go:build !nanbox

package rt

// releaseObjSlot is a no-op under the tagged-struct representation: Vals
// hold a direct Go reference to their object, there is no side table to
// release from.
func releaseObjSlot(o Obj) {}
