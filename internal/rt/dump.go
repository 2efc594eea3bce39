package rt

import (
	"fmt"
	"io"

	"github.com/redchew/taz/internal/bytecode"
)

// DumpCode writes a human-readable disassembly of code to w, grounded on
// tazR_dumpCode (taz_code.c): one line per instruction, showing its byte
// offset, mnemonic, and operand(s), plus a trailing listing of the
// constant pool. It is the supplemental debugging feature SPEC_FULL.md §4
// recovers from original_source/ that the distilled spec dropped.
func DumpCode(w io.Writer, code *Code, strs *StrPool) {
	fmt.Fprintf(w, "; code %q scope=%v locals=%d upvals=%d params=%d(+variadic=%v)\n",
		strs.Bytes(code.Name), code.Scope, code.NumLocals, code.NumUpvals,
		code.NumFixedParams, code.HasVarParams)

	if code.Host != nil {
		fmt.Fprintln(w, "; <host code>")
		return
	}

	bytecode.Walk(code.Words, func(ins bytecode.Instruction) {
		switch ins.Op.Form() {
		case bytecode.FormA:
			fmt.Fprintf(w, "%04d  %-16s %d\n", ins.Offset, ins.Op.Name(), ins.Operand)
		default:
			fmt.Fprintf(w, "%04d  %-16s v=%d x=%d\n", ins.Offset, ins.Op.Name(), ins.Variation, ins.Operand)
		}
	})

	fmt.Fprintln(w, "; constants")
	for i, v := range code.Consts {
		fmt.Fprintf(w, "  [%d] %s\n", i, dumpVal(v, strs))
	}
}

func dumpVal(v Val, strs *StrPool) string {
	switch v.Type() {
	case TypeUdf:
		return "udf"
	case TypeNil:
		return "nil"
	case TypeLog:
		return fmt.Sprintf("%v", v.AsLog())
	case TypeInt:
		return fmt.Sprintf("%d", v.AsInt())
	case TypeDec:
		return fmt.Sprintf("%g", v.AsDec())
	case TypeStr:
		return fmt.Sprintf("%q", strs.Bytes(v.AsStr()))
	case TypeRef:
		r := v.AsRef()
		return fmt.Sprintf("ref(kind=%d,which=%d)", r.Kind, r.Which)
	default:
		return v.Type().String()
	}
}
