package lisp

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrSyntax         = errors.New("syntax error")
	ErrUnboundSymbol  = errors.New("unbound symbol")
	ErrNotApplicable  = errors.New("not applicable")
	ErrArityMismatch  = errors.New("arity mismatch")
	ErrNativeCall     = errors.New("native call error")
	ErrRecursionLimit = errors.New("recursion limit exceeded")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrInterrupted    = errors.New("evaluation interrupted")
)

// Position is a 1-based line:column in script source
type Position struct {
	Line int
	Col  int
}

// IsZero reports whether the position is unknown
func (p Position) IsZero() bool {
	return p.Line == 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is raised by the reader and the evaluator
type Error struct {
	Kind error
	Pos  Position
	Msg  string

	eof bool
}

func (e *Error) Error() string {
	if e.Pos.IsZero() {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v at %s: %s", e.Kind, e.Pos, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// IsIncomplete reports whether err came from source that ended inside an
// open form, so more input could complete it.
func IsIncomplete(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.eof
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NativeError builds the error a primitive returns for bad arguments
func NativeError(name, format string, args ...any) error {
	return &Error{Kind: ErrNativeCall, Msg: name + ": " + fmt.Sprintf(format, args...)}
}

// locate attaches pos to err unless it already carries one
func locate(err error, pos Position) error {
	if pos.IsZero() {
		return err
	}
	var le *Error
	if errors.As(err, &le) {
		if le.Pos.IsZero() {
			le.Pos = pos
		}
		return err
	}
	return &Error{Kind: ErrNativeCall, Pos: pos, Msg: err.Error()}
}
