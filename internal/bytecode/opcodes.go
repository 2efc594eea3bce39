// Package bytecode implements the word-packed instruction format and
// assembler core described in spec.md §4.6. It has no dependency on the
// value model or runtime object graph (those live in internal/rt) — it only
// knows about opcodes, operands, words and labels, exactly the way the
// teacher repo's internal/bytecode knows only about op bytes and a constant
// pool, leaving everything value-shaped to the compiler/vm packages above it.
package bytecode

// Form selects how an instruction's operand is packed.
//
//   - FormA: one byte, "1ooccccc" — the top bit flags A-form, a 2-bit
//     operand (0..3), a 5-bit opcode.
//   - FormB: two bytes, "0vvccccc xxxxxxxx" — the top bit flags B-form
//     (always 0), a 2-bit variation, a 5-bit opcode, and a full 8-bit
//     operand byte.
//
// Each form keeps its own independent 5-bit opcode numbering (0..31), so
// Decode tells the two apart from a single leading bit rather than from a
// combined opcode range — spec.md §9's Open Question on how wide a B-form
// operand can get is resolved by giving it a whole second byte, and the
// discriminator bit is what makes that affordable without stealing bits
// from A-form's opcode space.
type Form uint8

const (
	FormA Form = iota
	FormB
)

// formBit flags an A-form instruction's leading byte.
const formBit = 0x80

// MaxOperandA is the largest operand FormA can encode (2 bits).
const MaxOperandA = 1<<2 - 1

// MaxOperandB is the largest operand FormB can encode (a full byte).
const MaxOperandB = 1<<8 - 1

// MaxVariation is the largest 2-bit variation FormB can encode.
const MaxVariation = 1<<2 - 1

// Op is an opcode. Declaration order only governs cache-locality within a
// form's dispatch table (spec.md §4.6: "common opcodes must be placed
// first") — the bit pattern actually emitted comes from each opcode's
// table entry, not from Op's own numeric value, since FormA and FormB each
// need their own dense 0..31 run.
type Op byte

const (
	// Loads — far and away the hottest path through the interpreter, so
	// they lead both forms' tables.
	GetLocalA Op = iota
	GetConstA
	GetUpvalA
	GetGlobalA
	GetFieldA

	// Unary.
	Not
	Neg
	Flip

	// Arithmetic.
	Add
	Sub
	Mul
	Div
	Mod

	// Shifts.
	Shl
	Shr

	// Comparisons.
	Lt
	Le
	Gt
	Ge
	Ie // value-equal
	Ne // not value-equal
	Ue // incomparable (differing, non-orderable types)

	// Logical.
	LAnd
	LXor
	LOr

	// Return and stack shuffling — the rest of the A-form table.
	Ret
	Pop
	Dup
	Swap

	// Tuple/record spreads.
	SpreadInTup
	SpreadInRec

	// Nop pads the tail of a word so the next instruction starts at a word
	// boundary (spec.md §4.6: "an instruction never straddles a word").
	Nop

	// B-form opcodes start here. Each of these needs either a wider operand
	// than A-form's 2 bits can give (jump targets, call arity, a LOAD_THING
	// selector, ref/tuple counts) or the 2-bit variation field (DEF/SET).
	// The five GET_*_B loads are the wide-operand forms of the GET_*_A
	// loads above; none of the others has an A-form counterpart.
	GetLocalB
	GetConstB
	GetUpvalB
	GetGlobalB
	GetFieldB

	// Short-circuit jumps.
	AndJump
	OrJump
	AltJump
	Jump

	// LOAD_THING: operand selects among the pre-interned atoms listed in
	// spec.md §4.6.
	LoadThing

	Call

	// Pattern-based defines/sets of names, including plain single-variable
	// assignment as the "simple tuple" variation — spec.md has no separate
	// direct-store opcode, so SET_LOCAL/SET_UPVAL/SET_GLOBAL all route
	// through here instead of carrying their own opcodes (taz_opcodes.in.c's
	// DEF_VARS/SET_VARS). The FormB variation field selects one of four
	// combinations: simple|variadic crossed with tuple|record pattern.
	Def
	Set

	// Pattern-based defines/sets of record fields (DEF_FIELDS/SET_FIELDS in
	// the same reference listing) — the write-side counterpart to
	// GET_FIELD_A/B, operating on a record popped off the stack rather than
	// on the current frame's locals.
	DefFields
	SetFields

	// Reference constructor and tuple header.
	MakeRef
	Tup

	numOps
)

// Variation bits for Def/Set (FormB's 2-bit variation field).
const (
	VarSimpleTuple = iota
	VarSimpleRecord
	VarVariadicTuple
	VarVariadicRecord
)

// LoadThing operands (LOAD_THING's FormB operand byte).
const (
	ThingZeroInt = iota
	ThingZeroDec
	ThingNil
	ThingUdf
	ThingTrue
	ThingFalse
	ThingEmptyShortStr
	ThingEmptyLongStr
)

type opInfo struct {
	name string
	form Form
	// code is the 5-bit pattern this opcode is packed as, within its own
	// form's table — independent of code's sibling form and of Op's own
	// iota value.
	code byte
	// Worst-case stack effect is mul*operand + off (spec.md §4.6), used to
	// pre-size the value stack before a call instead of per-instruction
	// bounds checks.
	mul, off int
}

var table = [numOps]opInfo{
	GetLocalA:   {"GET_LOCAL_A", FormA, 0, 0, 1},
	GetConstA:   {"GET_CONST_A", FormA, 1, 0, 1},
	GetUpvalA:   {"GET_UPVAL_A", FormA, 2, 0, 1},
	GetGlobalA:  {"GET_GLOBAL_A", FormA, 3, 0, 1},
	GetFieldA:   {"GET_FIELD_A", FormA, 4, 0, 0},
	Not:         {"NOT", FormA, 5, 0, 0},
	Neg:         {"NEG", FormA, 6, 0, 0},
	Flip:        {"FLIP", FormA, 7, 0, 0},
	Add:         {"ADD", FormA, 8, 0, -1},
	Sub:         {"SUB", FormA, 9, 0, -1},
	Mul:         {"MUL", FormA, 10, 0, -1},
	Div:         {"DIV", FormA, 11, 0, -1},
	Mod:         {"MOD", FormA, 12, 0, -1},
	Shl:         {"SHL", FormA, 13, 0, -1},
	Shr:         {"SHR", FormA, 14, 0, -1},
	Lt:          {"LT", FormA, 15, 0, -1},
	Le:          {"LE", FormA, 16, 0, -1},
	Gt:          {"GT", FormA, 17, 0, -1},
	Ge:          {"GE", FormA, 18, 0, -1},
	Ie:          {"IE", FormA, 19, 0, -1},
	Ne:          {"NE", FormA, 20, 0, -1},
	Ue:          {"UE", FormA, 21, 0, -1},
	LAnd:        {"AND", FormA, 22, 0, -1},
	LXor:        {"XOR", FormA, 23, 0, -1},
	LOr:         {"OR", FormA, 24, 0, -1},
	Ret:         {"RET", FormA, 25, 0, 0},
	Pop:         {"POP", FormA, 26, 0, -1},
	Dup:         {"DUP", FormA, 27, 0, 1},
	Swap:        {"SWAP", FormA, 28, 0, 0},
	SpreadInTup: {"SPREAD_IN_TUP", FormA, 29, 0, 0},
	SpreadInRec: {"SPREAD_IN_REC", FormA, 30, 0, 0},
	Nop:         {"NOP", FormA, 31, 0, 0},

	GetLocalB:  {"GET_LOCAL_B", FormB, 0, 0, 1},
	GetConstB:  {"GET_CONST_B", FormB, 1, 0, 1},
	GetUpvalB:  {"GET_UPVAL_B", FormB, 2, 0, 1},
	GetGlobalB: {"GET_GLOBAL_B", FormB, 3, 0, 1},
	GetFieldB:  {"GET_FIELD_B", FormB, 4, 0, 0},
	AndJump:    {"AND_JUMP", FormB, 5, 0, 0},
	OrJump:     {"OR_JUMP", FormB, 6, 0, 0},
	AltJump:    {"ALT_JUMP", FormB, 7, 0, 0},
	Jump:       {"JUMP", FormB, 8, 0, 0},
	LoadThing:  {"LOAD_THING", FormB, 9, 0, 1},
	Call:       {"CALL", FormB, 10, 1, 0},
	Def:        {"DEF", FormB, 11, 0, 0},
	Set:        {"SET", FormB, 12, 0, 0},
	DefFields:  {"DEF_FIELDS", FormB, 13, -1, -1},
	SetFields:  {"SET_FIELDS", FormB, 14, -1, -2},
	MakeRef:    {"MAKE_REF", FormB, 15, 0, 1},
	Tup:        {"TUP", FormB, 16, 0, 1},
}

// formACode and formBCode map each form's 5-bit code back to its Op, built
// once at init so Decode doesn't have to linear-scan table on every fetch.
var formACode [32]Op
var formBCode [32]Op

func init() {
	for op, info := range table {
		switch info.form {
		case FormA:
			formACode[info.code] = Op(op)
		case FormB:
			formBCode[info.code] = Op(op)
		}
	}
}

// Name returns the canonical opcode mnemonic, used by the disassembler.
func (op Op) Name() string {
	if int(op) < len(table) && table[op].name != "" {
		return table[op].name
	}
	return "UNKNOWN"
}

// Form reports which instruction form this opcode is emitted in.
func (op Op) Form() Form { return table[op].form }

// StackEffect returns the worst-case value-stack delta of executing this
// opcode with the given operand (spec.md §4.6: "X·mul + off").
func (op Op) StackEffect(operand int) int {
	info := table[op]
	return info.mul*operand + info.off
}
