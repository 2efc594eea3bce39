package bytecode

// WordSize is the number of bytes in one packed word. An instruction is
// never split across a word boundary (spec.md §4.6); Buffer pads the tail
// of a word with NOP when the next instruction wouldn't otherwise fit.
const WordSize = 8

// Label identifies an already-emitted instruction so its operand can be
// patched once a forward target is known — the Go analogue of the C
// original's tazR_Label{ addr *ulongest; shift unsigned } (taz_code.h),
// which pointed at a packed machine word and a bit shift within it. Buffer
// is byte-addressable rather than word-addressable, so Offset is a byte
// index; form records which of EmitA/EmitB produced the label, since
// patching an A-form byte and a B-form byte pair take different paths.
type Label struct {
	offset int
	form   Form
}

// Buffer accumulates a packed instruction stream. Its last word may be
// only partly filled; padding is added only where a B-form instruction
// would otherwise straddle a word boundary, or by finishWord.
type Buffer struct {
	bytes []byte
}

// NewBuffer returns an empty instruction buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Bytes exposes the packed stream for the disassembler and the runtime's
// Code constructor.
func (b *Buffer) Bytes() []byte { return b.bytes }

// Len reports the buffer length in bytes.
func (b *Buffer) Len() int { return len(b.bytes) }

func (b *Buffer) wordRemaining() int {
	r := len(b.bytes) % WordSize
	if r == 0 {
		return WordSize
	}
	return WordSize - r
}

func (b *Buffer) padWord() {
	for len(b.bytes)%WordSize != 0 {
		b.bytes = append(b.bytes, encodeA(Nop, 0))
	}
}

// finishWord pads the buffer out to the next word boundary if one isn't
// already aligned, so a fresh word starts clean.
func (b *Buffer) finishWord() {
	if len(b.bytes)%WordSize != 0 {
		b.padWord()
	}
}

// encodeA packs an A-form instruction into its single byte: the top bit
// flags the form, the next two the operand, the bottom five the opcode's
// A-form code (table[op].code, not op's own iota value).
func encodeA(op Op, operand int) byte {
	return formBit | byte(operand&MaxOperandA)<<5 | table[op].code
}

func decodeA(w byte) (Op, int) {
	code := w & 0x1f
	operand := int((w >> 5) & MaxOperandA)
	return formACode[code], operand
}

// encodeB packs a B-form instruction into two bytes: the first carries the
// (clear) form bit, the 2-bit variation, and the opcode's B-form code; the
// second is a full 8-bit operand.
func encodeB(op Op, variation, operand int) (byte, byte) {
	b0 := byte(variation&MaxVariation)<<5 | table[op].code
	b1 := byte(operand & 0xff)
	return b0, b1
}

func decodeB(b0, b1 byte) (op Op, variation, operand int) {
	code := b0 & 0x1f
	op = formBCode[code]
	variation = int((b0 >> 5) & MaxVariation)
	operand = int(b1)
	return
}

// EmitA appends an A-form instruction.
func (b *Buffer) EmitA(op Op, operand int) Label {
	if operand < 0 || operand > MaxOperandA {
		panic("bytecode: A-form operand out of range")
	}
	lbl := Label{offset: len(b.bytes), form: FormA}
	b.bytes = append(b.bytes, encodeA(op, operand))
	return lbl
}

// EmitB appends a B-form instruction, padding the current word with a NOP
// first if only one byte remains (a B-form instruction is two bytes and
// must not straddle a word boundary).
func (b *Buffer) EmitB(op Op, variation, operand int) Label {
	if operand < 0 || operand > MaxOperandB {
		panic("bytecode: B-form operand out of range")
	}
	if variation < 0 || variation > MaxVariation {
		panic("bytecode: B-form variation out of range")
	}
	if b.wordRemaining() < 2 {
		b.padWord()
	}
	lbl := Label{offset: len(b.bytes), form: FormB}
	b0, b1 := encodeB(op, variation, operand)
	b.bytes = append(b.bytes, b0, b1)
	return lbl
}

// Emit appends an instruction in whichever form op is declared for, with
// variation 0 for FormB ops that don't use the variation bits.
func (b *Buffer) Emit(op Op, operand int) Label {
	if op.Form() == FormA {
		return b.EmitA(op, operand)
	}
	return b.EmitB(op, 0, operand)
}

// EmitVariant is Emit for FormB opcodes that use the 2-bit variation field
// (DEF/SET).
func (b *Buffer) EmitVariant(op Op, variation, operand int) Label {
	return b.EmitB(op, variation, operand)
}

// PatchOperand rewrites the operand of a previously emitted instruction —
// used to back-fill forward jump targets once the destination is known.
func (b *Buffer) PatchOperand(lbl Label, operand int) {
	switch lbl.form {
	case FormA:
		op, _ := decodeA(b.bytes[lbl.offset])
		b.bytes[lbl.offset] = encodeA(op, operand)
	case FormB:
		op, variation, _ := decodeB(b.bytes[lbl.offset], b.bytes[lbl.offset+1])
		b0, b1 := encodeB(op, variation, operand)
		b.bytes[lbl.offset] = b0
		b.bytes[lbl.offset+1] = b1
	default:
		panic("bytecode: malformed label")
	}
}

// Here returns a label for the instruction about to be emitted — the
// position a backward jump (e.g. a loop header) should target.
func (b *Buffer) Here() Label {
	return Label{offset: len(b.bytes)}
}

// Offset exposes the raw byte position of a label, used by jump opcodes
// to compute relative displacements and by the disassembler to print
// addresses.
func (l Label) Offset() int { return l.offset }

// Instruction is one decoded instruction, as produced by Decode — used by
// the disassembler and the interpreter's fetch step alike.
type Instruction struct {
	Op        Op
	Variation int
	Operand   int
	Offset    int
	Width     int // bytes consumed (1 for FormA, 2 for FormB)
}

// Decode reads the instruction starting at offset. The leading byte's top
// bit tells the two forms apart: set means FormA (one byte total), clear
// means FormB (a second operand byte follows). It does not skip NOP
// padding — callers walk word boundaries explicitly (see Walk).
func Decode(bytes []byte, offset int) Instruction {
	b0 := bytes[offset]
	if b0&formBit != 0 {
		op, operand := decodeA(b0)
		return Instruction{Op: op, Operand: operand, Offset: offset, Width: 1}
	}
	op, variation, operand := decodeB(b0, bytes[offset+1])
	return Instruction{Op: op, Variation: variation, Operand: operand, Offset: offset, Width: 2}
}

// Walk calls fn for every non-NOP instruction in bytes, in stream order.
func Walk(bytes []byte, fn func(Instruction)) {
	for i := 0; i < len(bytes); {
		ins := Decode(bytes, i)
		if ins.Op != Nop {
			fn(ins)
		}
		i += ins.Width
	}
}
