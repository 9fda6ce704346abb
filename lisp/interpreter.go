package lisp

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"
)

//go:embed stdlib.scm
var stdlibSource string

// DefaultMaxDepth bounds non-tail evaluation nesting
const DefaultMaxDepth = 10000

// Rand is the random source behind random-integer and random-float.
// *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Interpreter owns a root environment and evaluates forms in it. An
// Interpreter is not safe for concurrent use; give each goroutine its own.
type Interpreter struct {
	global   *Env
	out      io.Writer
	rand     Rand
	maxDepth int
	depth    int

	ctx      context.Context
	maxSteps int64
	steps    int64
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithOutput sets where display and newline write
func WithOutput(w io.Writer) Option {
	return func(it *Interpreter) {
		it.out = w
	}
}

// WithRand sets the random source
func WithRand(r Rand) Option {
	return func(it *Interpreter) {
		it.rand = r
	}
}

// WithMaxDepth sets the nesting limit
func WithMaxDepth(n int) Option {
	return func(it *Interpreter) {
		if n > 0 {
			it.maxDepth = n
		}
	}
}

// WithStepLimit bounds the forms a single top-level evaluation may
// evaluate. Zero means no limit.
func WithStepLimit(n int64) Option {
	return func(it *Interpreter) {
		if n >= 0 {
			it.maxSteps = n
		}
	}
}

// WithContext stops evaluation with ErrInterrupted once ctx is done
func WithContext(ctx context.Context) Option {
	return func(it *Interpreter) {
		it.ctx = ctx
	}
}

// New creates an interpreter with the core primitives and the standard
// library installed in a fresh root environment.
func New(opts ...Option) (*Interpreter, error) {
	it := &Interpreter{
		global:   NewEnv(nil),
		out:      os.Stdout,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(it)
	}
	if it.rand == nil {
		it.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	installCore(it)

	// the standard library loads outside the caller's budget
	ctx, steps := it.ctx, it.maxSteps
	it.ctx, it.maxSteps = nil, 0
	if _, err := it.Load(stdlibSource); err != nil {
		return nil, fmt.Errorf("failed to load standard library: %w", err)
	}
	it.ctx, it.maxSteps = ctx, steps
	return it, nil
}

// Global returns the root environment
func (it *Interpreter) Global() *Env {
	return it.global
}

// Rand returns the interpreter's random source
func (it *Interpreter) Rand() Rand {
	return it.rand
}

// Output returns the writer display prints to
func (it *Interpreter) Output() io.Writer {
	return it.out
}

// Define binds a host value in the root environment
func (it *Interpreter) Define(name string, v Value) {
	it.global.Define(Symbol(name), v)
}

// Register installs a primitive in the root environment
func (it *Interpreter) Register(name string, arity Arity, fn NativeFunc) {
	it.global.Define(Symbol(name), &Native{Name: name, Arity: arity, Fn: fn})
}

// Lookup resolves a global binding
func (it *Interpreter) Lookup(name string) (Value, bool) {
	return it.global.Lookup(Symbol(name))
}

// Eval evaluates a single form in env (the root environment when env is nil)
func (it *Interpreter) Eval(expr Value, env *Env) (Value, error) {
	if env == nil {
		env = it.global
	}
	return it.eval(expr, env)
}

// Load parses src and evaluates each top-level form in the root environment,
// returning the value of the last one.
func (it *Interpreter) Load(src string) (Value, error) {
	forms, err := Parse(src)
	if err != nil {
		return nil, err
	}

	var last Value = Nil
	for _, form := range forms {
		if last, err = it.Eval(form, nil); err != nil {
			return nil, err
		}
	}
	return last, nil
}

// Apply invokes a procedure value with already evaluated arguments
func (it *Interpreter) Apply(fn Value, args []Value) (Value, error) {
	switch f := fn.(type) {
	case *Native:
		return it.callNative(f, args)
	case *Closure:
		frame, err := bindParams(f, args)
		if err != nil {
			return nil, err
		}
		return it.evalBody(f.Body, frame)
	default:
		return nil, newError(ErrNotApplicable, "%s is a %s, not a procedure", Write(fn), fn.Kind())
	}
}

// Call applies the global procedure bound to name
func (it *Interpreter) Call(name string, args ...Value) (Value, error) {
	fn, ok := it.Lookup(name)
	if !ok {
		return nil, newError(ErrUnboundSymbol, "%s", name)
	}
	return it.Apply(fn, args)
}
