// cmd/tazdump/main.go
package main

import (
	"fmt"
	"os"

	"github.com/redchew/taz/internal/bytecode"
	"github.com/redchew/taz/internal/rt"
)

// tazdump is a small disassembler CLI over rt.DumpCode, the Go port's
// equivalent of the original's `-dump` debug flag (taz_code.c's
// tazR_dumpCode). Since source compilation is out of scope (spec.md's
// Non-goals exclude a front-end), tazdump demonstrates the disassembler
// against a hand-assembled sample: `GET_CONST_A k0; GET_CONST_B k1; ADD;
// RET 1`, the exact round-trip spec.md §8 names as a testable property.
func main() {
	eng := rt.MakeEngine(rt.Config{})
	defer eng.FreeEngine()

	as := eng.MakeAssembler(eng.InternStr([]byte("sample")), rt.ScopeGlobal)
	k0 := as.AddConst(rt.IntVal(2))
	k1 := as.AddConst(rt.IntVal(3))
	as.AddInstrA(bytecode.GetConstA, int(k0.Which))
	as.AddInstrB(bytecode.GetConstB, 0, int(k1.Which))
	as.AddInstrA(bytecode.Add, 0)
	as.AddInstrA(bytecode.Ret, 1)
	code := as.MakeCode()

	fmt.Fprintln(os.Stdout, "taz bytecode disassembly")
	rt.DumpCode(os.Stdout, code, eng.Strings())
}
