package lisp

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a Value
type Kind int

const (
	KindEmptyList Kind = iota
	KindInteger
	KindFloat
	KindSymbol
	KindBoolean
	KindChar
	KindPair
	KindVector
	KindClosure
	KindNative
	KindHost
)

var kindNames = [...]string{
	KindEmptyList: "empty list",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindSymbol:    "symbol",
	KindBoolean:   "boolean",
	KindChar:      "char",
	KindPair:      "pair",
	KindVector:    "vector",
	KindClosure:   "procedure",
	KindNative:    "primitive procedure",
	KindHost:      "host value",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is any datum the interpreter can hold. Host packages may add their own
// variants by returning KindHost.
type Value interface {
	Kind() Kind
}

// Integer is an exact number
type Integer int64

// Float is an inexact number
type Float float64

// Symbol is an interned-by-value identifier
type Symbol string

// Boolean is #t or #f
type Boolean bool

// Char is a character literal
type Char rune

// EmptyList terminates every proper list
type EmptyList struct{}

// Nil is the empty list
var Nil Value = EmptyList{}

// True and False are the two booleans
var (
	True  Value = Boolean(true)
	False Value = Boolean(false)
)

func (Integer) Kind() Kind   { return KindInteger }
func (Float) Kind() Kind     { return KindFloat }
func (Symbol) Kind() Kind    { return KindSymbol }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Char) Kind() Kind      { return KindChar }
func (EmptyList) Kind() Kind { return KindEmptyList }

// Pair is a mutable cons cell. Pos is set for pairs built by the reader.
type Pair struct {
	Car Value
	Cdr Value
	Pos Position
}

func (*Pair) Kind() Kind { return KindPair }

// Vector is a mutable ordered sequence. Strings are vectors of Char.
type Vector struct {
	Items []Value
}

func (*Vector) Kind() Kind { return KindVector }

// Closure pairs a lambda with the environment it was created in
type Closure struct {
	Name   string
	Params Value // proper list, dotted list or a single symbol
	Body   []Value
	Env    *Env
}

func (*Closure) Kind() Kind { return KindClosure }

// NativeFunc is the host side of a primitive procedure
type NativeFunc func(args []Value) (Value, error)

// Arity is the accepted argument count of a primitive. Max < 0 means variadic.
type Arity struct {
	Min, Max int
}

// Exactly returns an arity accepting n arguments
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast returns a variadic arity
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

// Between returns an arity accepting min..max arguments
func Between(min, max int) Arity { return Arity{Min: min, Max: max} }

func (a Arity) accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return fmt.Sprintf("at least %d", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	default:
		return fmt.Sprintf("between %d and %d", a.Min, a.Max)
	}
}

// Native is a host-provided primitive procedure
type Native struct {
	Name  string
	Arity Arity
	Fn    NativeFunc
}

func (*Native) Kind() Kind { return KindNative }

// Cons allocates a new pair
func Cons(car, cdr Value) *Pair {
	return &Pair{Car: car, Cdr: cdr}
}

// List builds a proper list from vs
func List(vs ...Value) Value {
	out := Nil
	for i := len(vs) - 1; i >= 0; i-- {
		out = Cons(vs[i], out)
	}
	return out
}

// ListToSlice flattens a proper list. Improper lists are an error.
func ListToSlice(v Value) ([]Value, error) {
	var out []Value
	for {
		switch p := v.(type) {
		case EmptyList:
			return out, nil
		case *Pair:
			out = append(out, p.Car)
			v = p.Cdr
		default:
			return nil, fmt.Errorf("not a proper list: %s", Write(v))
		}
	}
}

// IsList reports whether v is a proper list
func IsList(v Value) bool {
	for {
		switch p := v.(type) {
		case EmptyList:
			return true
		case *Pair:
			v = p.Cdr
		default:
			return false
		}
	}
}

// String converts s into a char vector
func String(s string) *Vector {
	rs := []rune(s)
	items := make([]Value, len(rs))
	for i, r := range rs {
		items[i] = Char(r)
	}
	return &Vector{Items: items}
}

// GoString extracts the text of a char vector
func GoString(v Value) (string, bool) {
	vec, ok := v.(*Vector)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	for _, item := range vec.Items {
		c, ok := item.(Char)
		if !ok {
			return "", false
		}
		sb.WriteRune(rune(c))
	}
	return sb.String(), true
}

// Truthy reports whether v counts as true in a test position
func Truthy(v Value) bool {
	b, ok := v.(Boolean)
	return !ok || bool(b)
}

// IsProcedure reports whether v can be applied
func IsProcedure(v Value) bool {
	switch v.(type) {
	case *Closure, *Native:
		return true
	}
	return false
}

// Eqv compares by identity for containers and by value for atoms
func Eqv(a, b Value) bool {
	switch x := a.(type) {
	case *Pair:
		y, ok := b.(*Pair)
		return ok && x == y
	case *Vector:
		y, ok := b.(*Vector)
		return ok && x == y
	case *Closure:
		y, ok := b.(*Closure)
		return ok && x == y
	case *Native:
		y, ok := b.(*Native)
		return ok && x == y
	case Integer, Float, Symbol, Boolean, Char, EmptyList:
		return a == b
	}
	if e, ok := a.(interface{ Equal(Value) bool }); ok {
		return e.Equal(b)
	}
	return a == b
}

// Equal compares structurally. Shared and cyclic structure is compared
// once: a pair of containers already under comparison counts as equal.
func Equal(a, b Value) bool {
	return equal(a, b, make(map[[2]Value]bool))
}

func equal(a, b Value, seen map[[2]Value]bool) bool {
	switch x := a.(type) {
	case *Pair:
		for {
			y, ok := b.(*Pair)
			if !ok {
				return false
			}
			key := [2]Value{x, y}
			if seen[key] {
				return true
			}
			seen[key] = true

			if !equal(x.Car, y.Car, seen) {
				return false
			}
			next, ok := x.Cdr.(*Pair)
			if !ok {
				return equal(x.Cdr, y.Cdr, seen)
			}
			x, b = next, y.Cdr
		}
	case *Vector:
		y, ok := b.(*Vector)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		key := [2]Value{x, y}
		if seen[key] {
			return true
		}
		seen[key] = true

		for i := range x.Items {
			if !equal(x.Items[i], y.Items[i], seen) {
				return false
			}
		}
		return true
	}
	return Eqv(a, b)
}
