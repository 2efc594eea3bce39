// Package errors implements the error taxonomy described in spec.md §6.
//
// Every fallible runtime operation reports a taz.Error carrying one of the
// stable numeric kinds below plus an arbitrary payload value (the SentraError
// in the teacher repo carries a message and source location the same way;
// here the payload is the runtime Val rather than free text, since the
// language-level error value must survive a barrier unwind intact).
package errors

import (
	"fmt"
	"strings"
)

// Num is a stable numeric error kind (spec.md §6).
type Num int

const (
	None Num = iota

	// Recoverable kinds.
	KeyType
	NumLocals
	NumUpvals
	NumConsts
	ParamName
	UpvalName
	ExtraParams
	SetToUdf
	SetUndefined
	FormatSpec
	CyclicRecord
	FibNotStopped
	TooManyReturns
	TooFewReturns
	TooManyArgs
	TooFewArgs
	UdfAsArg
	Panic
	Other

	// Fatal kinds escape every barrier until the engine-root handler.
	firstFatal
	Memory = firstFatal
)

// IsFatal reports whether errors of this kind bypass user barriers
// (spec.md §7, "Resource exhaustion and any memory error are fatal").
func (n Num) IsFatal() bool { return n >= firstFatal }

var names = map[Num]string{
	None:           "NONE",
	KeyType:        "KEY_TYPE",
	NumLocals:      "NUM_LOCALS",
	NumUpvals:      "NUM_UPVALS",
	NumConsts:      "NUM_CONSTS",
	ParamName:      "PARAM_NAME",
	UpvalName:      "UPVAL_NAME",
	ExtraParams:    "EXTRA_PARAMS",
	SetToUdf:       "SET_TO_UDF",
	SetUndefined:   "SET_UNDEFINED",
	FormatSpec:     "FORMAT_SPEC",
	CyclicRecord:   "CYCLIC_RECORD",
	FibNotStopped:  "FIB_NOT_STOPPED",
	TooManyReturns: "TOO_MANY_RETURNS",
	TooFewReturns:  "TOO_FEW_RETURNS",
	TooManyArgs:    "TOO_MANY_ARGS",
	TooFewArgs:     "TOO_FEW_ARGS",
	UdfAsArg:       "UDF_AS_ARG",
	Panic:          "PANIC",
	Other:          "OTHER",
	Memory:         "MEMORY",
}

func (n Num) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return fmt.Sprintf("Num(%d)", int(n))
}

// Error is the runtime's error value. It follows the teacher's baseError
// wrapping pattern (cause + structured details) grafted onto sentra's
// SentraError (source location, call stack) but keys the payload to the
// numeric taxonomy from spec.md §6 instead of a free-form string type.
type Error struct {
	Num     Num
	Payload any // the tazR_TVal (or Go stand-in) carried across the barrier
	cause   error
	details map[string]any
	stack   []Frame
}

// Frame is one entry of a reported call stack, mirroring sentra's StackFrame.
type Frame struct {
	Function string
	Line     int
}

func New(num Num, payload any) *Error {
	return &Error{Num: num, Payload: payload}
}

func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

func (e *Error) WithStack(stack []Frame) *Error {
	e.stack = stack
	return e
}

func (e *Error) Details() map[string]any { return e.details }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %v", e.Num, e.Payload)
	for _, f := range e.stack {
		fmt.Fprintf(&sb, "\n  at %s:%d", f.Function, f.Line)
	}
	return sb.String()
}

// IsFatal reports whether this error escapes every user barrier.
func (e *Error) IsFatal() bool { return e.Num.IsFatal() }
