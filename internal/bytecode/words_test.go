package bytecode

import "testing"

func TestEmitAAndDecode(t *testing.T) {
	b := NewBuffer()
	b.EmitA(GetConstA, 3)
	b.EmitA(Ret, 1)
	b.finishWord()

	if b.Len()%WordSize != 0 {
		t.Fatalf("buffer length %d not word-aligned", b.Len())
	}

	var got []Instruction
	Walk(b.Bytes(), func(ins Instruction) { got = append(got, ins) })

	if len(got) != 2 {
		t.Fatalf("want 2 instructions, got %d", len(got))
	}
	if got[0].Op != GetConstA || got[0].Operand != 3 || got[0].Width != 1 {
		t.Errorf("instruction 0 = %+v", got[0])
	}
	if got[1].Op != Ret || got[1].Operand != 1 || got[1].Width != 1 {
		t.Errorf("instruction 1 = %+v", got[1])
	}
}

func TestEmitAPadsOutNop(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 3; i++ {
		b.EmitA(Pop, 0)
	}
	b.finishWord()
	if b.Len() != WordSize {
		t.Fatalf("want one padded word (%d bytes), got %d", WordSize, b.Len())
	}

	var ops []Op
	Walk(b.Bytes(), func(ins Instruction) { ops = append(ops, ins.Op) })
	if len(ops) != 3 {
		t.Fatalf("Walk must skip NOP padding, got %d instructions", len(ops))
	}
}

func TestEmitBRoundTrip(t *testing.T) {
	b := NewBuffer()
	b.EmitB(GetConstB, 2, 200)
	b.finishWord()

	var got Instruction
	Walk(b.Bytes(), func(ins Instruction) { got = ins })

	if got.Op != GetConstB || got.Variation != 2 || got.Operand != 200 || got.Width != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEmitBDoesNotStraddleWordBoundary(t *testing.T) {
	b := NewBuffer()
	// Fill a word down to exactly one spare byte, then emit a B-form
	// instruction: it must not straddle the boundary, so a NOP pad goes
	// in first and the B-form starts the next word.
	for i := 0; i < WordSize-1; i++ {
		b.EmitA(Pop, 0)
	}
	if b.wordRemaining() != 1 {
		t.Fatalf("setup: want 1 byte remaining, got %d", b.wordRemaining())
	}
	lbl := b.EmitB(Jump, 0, 5)
	if lbl.Offset()%WordSize != 0 {
		t.Fatalf("B-form instruction must start on a word boundary, got offset %d", lbl.Offset())
	}
}

func TestPatchOperandA(t *testing.T) {
	b := NewBuffer()
	lbl := b.EmitA(GetLocalA, 0)
	b.PatchOperand(lbl, 2)

	ins := Decode(b.Bytes(), 0)
	if ins.Operand != 2 {
		t.Fatalf("patched operand = %d, want 2", ins.Operand)
	}
}

func TestPatchOperandB(t *testing.T) {
	b := NewBuffer()
	lbl := b.EmitB(Jump, 0, 0)
	b.PatchOperand(lbl, 200)

	ins := Decode(b.Bytes(), lbl.Offset())
	if ins.Operand != 200 {
		t.Fatalf("patched operand = %d, want 200", ins.Operand)
	}
}

func TestEmitAOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on out-of-range A-form operand")
		}
	}()
	b := NewBuffer()
	b.EmitA(GetLocalA, MaxOperandA+1)
}

func TestEmitBOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on out-of-range B-form operand")
		}
	}()
	b := NewBuffer()
	b.EmitB(GetConstB, 0, MaxOperandB+1)
}

func TestHereTargetsUpcomingInstruction(t *testing.T) {
	b := NewBuffer()
	b.EmitA(Pop, 0)
	here := b.Here()
	if here.Offset() != b.Len() {
		t.Fatalf("Here() = %d, want %d", here.Offset(), b.Len())
	}
}

func TestStackEffect(t *testing.T) {
	if eff := Add.StackEffect(0); eff != -1 {
		t.Errorf("ADD stack effect = %d, want -1", eff)
	}
	if eff := Call.StackEffect(3); eff != 3 {
		t.Errorf("CALL(3) stack effect = %d, want 3", eff)
	}
	if eff := Dup.StackEffect(0); eff != 1 {
		t.Errorf("DUP stack effect = %d, want 1", eff)
	}
}

func TestOpName(t *testing.T) {
	if Add.Name() != "ADD" {
		t.Errorf("Add.Name() = %q, want ADD", Add.Name())
	}
	if Op(numOps).Name() != "UNKNOWN" {
		t.Errorf("out-of-table op should report UNKNOWN")
	}
}
