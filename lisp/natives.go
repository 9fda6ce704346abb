package lisp

import (
	"fmt"
	"math"
)

// MaxVectorLength is the largest vector make-vector allocates
const MaxVectorLength = 1 << 24

// installCore registers the primitives every interpreter starts with
func installCore(it *Interpreter) {
	// arithmetic
	it.Register("+", AtLeast(0), func(args []Value) (Value, error) {
		return foldNumbers("+", Integer(0), args, addInt, func(a, b float64) float64 { return a + b })
	})
	it.Register("*", AtLeast(0), func(args []Value) (Value, error) {
		return foldNumbers("*", Integer(1), args, mulInt, func(a, b float64) float64 { return a * b })
	})
	it.Register("-", AtLeast(1), func(args []Value) (Value, error) {
		if len(args) == 1 {
			return foldNumbers("-", Integer(0), args, subInt, func(a, b float64) float64 { return a - b })
		}
		return foldNumbers("-", args[0], args[1:], subInt, func(a, b float64) float64 { return a - b })
	})
	it.Register("/", AtLeast(1), func(args []Value) (Value, error) {
		if len(args) == 1 {
			return divide(Integer(1), args[0])
		}
		acc := args[0]
		for _, arg := range args[1:] {
			v, err := divide(acc, arg)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})
	it.Register("remainder", Exactly(2), func(args []Value) (Value, error) {
		return integerOp("remainder", args, func(a, b int64) int64 { return a % b })
	})
	it.Register("modulo", Exactly(2), func(args []Value) (Value, error) {
		return integerOp("modulo", args, func(a, b int64) int64 {
			m := a % b
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			return m
		})
	})
	it.Register("abs", Exactly(1), func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case Integer:
			if x == math.MinInt64 {
				return nil, NativeError("abs", "integer overflow")
			}
			if x < 0 {
				return -x, nil
			}
			return x, nil
		case Float:
			return Float(math.Abs(float64(x))), nil
		}
		return nil, NativeError("abs", "expected a number, got %s", Write(args[0]))
	})
	it.Register("floor", Exactly(1), floatRounding("floor", math.Floor))
	it.Register("ceiling", Exactly(1), floatRounding("ceiling", math.Ceil))
	it.Register("round", Exactly(1), floatRounding("round", math.RoundToEven))
	it.Register("exact->inexact", Exactly(1), func(args []Value) (Value, error) {
		f, ok := toFloat(args[0])
		if !ok {
			return nil, NativeError("exact->inexact", "expected a number, got %s", Write(args[0]))
		}
		return Float(f), nil
	})
	it.Register("inexact->exact", Exactly(1), func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case Integer:
			return x, nil
		case Float:
			r := math.Round(float64(x))
			if math.IsNaN(r) || r > math.MaxInt64 || r < math.MinInt64 {
				return nil, NativeError("inexact->exact", "%s has no exact representation", Write(x))
			}
			return Integer(r), nil
		}
		return nil, NativeError("inexact->exact", "expected a number, got %s", Write(args[0]))
	})

	// comparison
	it.Register("=", AtLeast(1), compareChain("=", func(c int) bool { return c == 0 }))
	it.Register("<", AtLeast(1), compareChain("<", func(c int) bool { return c < 0 }))
	it.Register(">", AtLeast(1), compareChain(">", func(c int) bool { return c > 0 }))
	it.Register("<=", AtLeast(1), compareChain("<=", func(c int) bool { return c <= 0 }))
	it.Register(">=", AtLeast(1), compareChain(">=", func(c int) bool { return c >= 0 }))

	// randomness
	it.Register("random-integer", Exactly(1), func(args []Value) (Value, error) {
		n, err := IntegerArg("random-integer", args[0])
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, NativeError("random-integer", "limit must be positive, got %d", n)
		}
		return Integer(it.rand.Intn(int(n))), nil
	})
	it.Register("random-float", Exactly(0), func(args []Value) (Value, error) {
		return Float(it.rand.Float64()), nil
	})

	// pairs and lists
	it.Register("cons", Exactly(2), func(args []Value) (Value, error) {
		return Cons(args[0], args[1]), nil
	})
	it.Register("car", Exactly(1), func(args []Value) (Value, error) {
		p, err := pairArg("car", args[0])
		if err != nil {
			return nil, err
		}
		return p.Car, nil
	})
	it.Register("cdr", Exactly(1), func(args []Value) (Value, error) {
		p, err := pairArg("cdr", args[0])
		if err != nil {
			return nil, err
		}
		return p.Cdr, nil
	})
	it.Register("set-car!", Exactly(2), func(args []Value) (Value, error) {
		p, err := pairArg("set-car!", args[0])
		if err != nil {
			return nil, err
		}
		p.Car = args[1]
		return p, nil
	})
	it.Register("set-cdr!", Exactly(2), func(args []Value) (Value, error) {
		p, err := pairArg("set-cdr!", args[0])
		if err != nil {
			return nil, err
		}
		p.Cdr = args[1]
		return p, nil
	})
	it.Register("list", AtLeast(0), func(args []Value) (Value, error) {
		return List(args...), nil
	})

	// vectors
	it.Register("vector", AtLeast(0), func(args []Value) (Value, error) {
		items := make([]Value, len(args))
		copy(items, args)
		return &Vector{Items: items}, nil
	})
	it.Register("make-vector", Between(1, 2), func(args []Value) (Value, error) {
		n, err := IntegerArg("make-vector", args[0])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, NativeError("make-vector", "negative length %d", n)
		}
		if n > MaxVectorLength {
			return nil, NativeError("make-vector", "length %d exceeds %d", n, MaxVectorLength)
		}
		var fill Value = Integer(0)
		if len(args) == 2 {
			fill = args[1]
		}
		items := make([]Value, n)
		for i := range items {
			items[i] = fill
		}
		return &Vector{Items: items}, nil
	})
	it.Register("vector-length", Exactly(1), func(args []Value) (Value, error) {
		v, err := vectorArg("vector-length", args[0])
		if err != nil {
			return nil, err
		}
		return Integer(len(v.Items)), nil
	})
	it.Register("vector-ref", Exactly(2), func(args []Value) (Value, error) {
		v, i, err := vectorIndex("vector-ref", args[0], args[1])
		if err != nil {
			return nil, err
		}
		return v.Items[i], nil
	})
	// vector-set! hands back the vector so calls can be chained
	it.Register("vector-set!", Exactly(3), func(args []Value) (Value, error) {
		v, i, err := vectorIndex("vector-set!", args[0], args[1])
		if err != nil {
			return nil, err
		}
		v.Items[i] = args[2]
		return v, nil
	})

	// predicates
	it.Register("null?", Exactly(1), kindPredicate(KindEmptyList))
	it.Register("pair?", Exactly(1), kindPredicate(KindPair))
	it.Register("symbol?", Exactly(1), kindPredicate(KindSymbol))
	it.Register("integer?", Exactly(1), kindPredicate(KindInteger))
	it.Register("float?", Exactly(1), kindPredicate(KindFloat))
	it.Register("vector?", Exactly(1), kindPredicate(KindVector))
	it.Register("boolean?", Exactly(1), kindPredicate(KindBoolean))
	it.Register("char?", Exactly(1), kindPredicate(KindChar))
	it.Register("number?", Exactly(1), func(args []Value) (Value, error) {
		_, ok := toFloat(args[0])
		return Boolean(ok), nil
	})
	it.Register("procedure?", Exactly(1), func(args []Value) (Value, error) {
		return Boolean(IsProcedure(args[0])), nil
	})
	it.Register("string?", Exactly(1), func(args []Value) (Value, error) {
		_, ok := GoString(args[0])
		return Boolean(ok), nil
	})
	it.Register("eq?", Exactly(2), func(args []Value) (Value, error) {
		return Boolean(Eqv(args[0], args[1])), nil
	})
	it.Register("eqv?", Exactly(2), func(args []Value) (Value, error) {
		return Boolean(Eqv(args[0], args[1])), nil
	})
	it.Register("equal?", Exactly(2), func(args []Value) (Value, error) {
		return Boolean(Equal(args[0], args[1])), nil
	})

	// characters and symbols
	it.Register("char->integer", Exactly(1), func(args []Value) (Value, error) {
		c, ok := args[0].(Char)
		if !ok {
			return nil, NativeError("char->integer", "expected a char, got %s", Write(args[0]))
		}
		return Integer(c), nil
	})
	it.Register("integer->char", Exactly(1), func(args []Value) (Value, error) {
		n, err := IntegerArg("integer->char", args[0])
		if err != nil {
			return nil, err
		}
		if n < 0 || n > math.MaxInt32 {
			return nil, NativeError("integer->char", "%d is not a character code", n)
		}
		return Char(rune(n)), nil
	})
	it.Register("symbol->string", Exactly(1), func(args []Value) (Value, error) {
		s, err := SymbolArg("symbol->string", args[0])
		if err != nil {
			return nil, err
		}
		return String(string(s)), nil
	})
	it.Register("string->symbol", Exactly(1), func(args []Value) (Value, error) {
		s, ok := GoString(args[0])
		if !ok {
			return nil, NativeError("string->symbol", "expected a string, got %s", Write(args[0]))
		}
		return Symbol(s), nil
	})

	// control and output
	it.Register("apply", AtLeast(2), func(args []Value) (Value, error) {
		last, err := ListToSlice(args[len(args)-1])
		if err != nil {
			return nil, NativeError("apply", "last argument must be a list")
		}
		callArgs := append(append([]Value{}, args[1:len(args)-1]...), last...)
		return it.Apply(args[0], callArgs)
	})
	it.Register("error", AtLeast(1), func(args []Value) (Value, error) {
		msg := Display(args[0])
		for _, arg := range args[1:] {
			msg += " " + Write(arg)
		}
		return nil, NativeError("error", "%s", msg)
	})
	it.Register("display", Exactly(1), func(args []Value) (Value, error) {
		if _, err := fmt.Fprint(it.out, Display(args[0])); err != nil {
			return nil, NativeError("display", "%v", err)
		}
		return Nil, nil
	})
	it.Register("newline", Exactly(0), func(args []Value) (Value, error) {
		if _, err := fmt.Fprintln(it.out); err != nil {
			return nil, NativeError("newline", "%v", err)
		}
		return Nil, nil
	})
}

// IntegerArg checks that v is an Integer
func IntegerArg(name string, v Value) (int64, error) {
	n, ok := v.(Integer)
	if !ok {
		return 0, NativeError(name, "expected an integer, got %s", Write(v))
	}
	return int64(n), nil
}

// FloatArg accepts any number and returns it as a float64
func FloatArg(name string, v Value) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, NativeError(name, "expected a number, got %s", Write(v))
	}
	return f, nil
}

// SymbolArg checks that v is a Symbol
func SymbolArg(name string, v Value) (Symbol, error) {
	s, ok := v.(Symbol)
	if !ok {
		return "", NativeError(name, "expected a symbol, got %s", Write(v))
	}
	return s, nil
}

func pairArg(name string, v Value) (*Pair, error) {
	p, ok := v.(*Pair)
	if !ok {
		return nil, NativeError(name, "expected a pair, got %s", Write(v))
	}
	return p, nil
}

func vectorArg(name string, v Value) (*Vector, error) {
	vec, ok := v.(*Vector)
	if !ok {
		return nil, NativeError(name, "expected a vector, got %s", Write(v))
	}
	return vec, nil
}

func vectorIndex(name string, v, index Value) (*Vector, int, error) {
	vec, err := vectorArg(name, v)
	if err != nil {
		return nil, 0, err
	}
	i, err := IntegerArg(name, index)
	if err != nil {
		return nil, 0, err
	}
	if i < 0 || i >= int64(len(vec.Items)) {
		return nil, 0, NativeError(name, "index %d out of range for length %d", i, len(vec.Items))
	}
	return vec, int(i), nil
}

func kindPredicate(k Kind) NativeFunc {
	return func(args []Value) (Value, error) {
		return Boolean(args[0].Kind() == k), nil
	}
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Integer:
		return float64(x), true
	case Float:
		return float64(x), true
	}
	return 0, false
}

func addInt(a, b int64) (int64, bool) {
	s := a + b
	return s, (s > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	s := a - b
	return s, (s < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}

// foldNumbers applies op left to right, staying exact until a Float shows up
func foldNumbers(name string, acc Value, args []Value, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) (Value, error) {
	for _, arg := range args {
		switch x := arg.(type) {
		case Integer:
			if a, ok := acc.(Integer); ok {
				r, ok := intOp(int64(a), int64(x))
				if !ok {
					return nil, NativeError(name, "integer overflow")
				}
				acc = Integer(r)
				continue
			}
		case Float:
		default:
			return nil, NativeError(name, "expected a number, got %s", Write(arg))
		}
		a, ok := toFloat(acc)
		if !ok {
			return nil, NativeError(name, "expected a number, got %s", Write(acc))
		}
		b, _ := toFloat(arg)
		acc = Float(floatOp(a, b))
	}
	return acc, nil
}

func divide(a, b Value) (Value, error) {
	x, aInt := a.(Integer)
	y, bInt := b.(Integer)
	if aInt && bInt {
		if y == 0 {
			return nil, NativeError("/", "division by zero")
		}
		if x == math.MinInt64 && y == -1 {
			return nil, NativeError("/", "integer overflow")
		}
		return x / y, nil
	}

	fa, ok := toFloat(a)
	if !ok {
		return nil, NativeError("/", "expected a number, got %s", Write(a))
	}
	fb, ok := toFloat(b)
	if !ok {
		return nil, NativeError("/", "expected a number, got %s", Write(b))
	}
	if fb == 0 {
		return nil, NativeError("/", "division by zero")
	}
	return Float(fa / fb), nil
}

func integerOp(name string, args []Value, op func(a, b int64) int64) (Value, error) {
	a, err := IntegerArg(name, args[0])
	if err != nil {
		return nil, err
	}
	b, err := IntegerArg(name, args[1])
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, NativeError(name, "division by zero")
	}
	if b == -1 {
		return Integer(0), nil
	}
	return Integer(op(a, b)), nil
}

// floatRounding rounds floats and passes integers through unchanged
func floatRounding(name string, fn func(float64) float64) NativeFunc {
	return func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case Integer:
			return x, nil
		case Float:
			return Float(fn(float64(x))), nil
		}
		return nil, NativeError(name, "expected a number, got %s", Write(args[0]))
	}
}

func compareNumbers(name string, a, b Value) (int, error) {
	if x, ok := a.(Integer); ok {
		if y, ok := b.(Integer); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	}

	fa, err := FloatArg(name, a)
	if err != nil {
		return 0, err
	}
	fb, err := FloatArg(name, b)
	if err != nil {
		return 0, err
	}
	switch {
	case fa < fb:
		return -1, nil
	case fa > fb:
		return 1, nil
	case fa == fb:
		return 0, nil
	}
	return 2, nil // NaN compares false to everything but !=
}

func compareChain(name string, holds func(int) bool) NativeFunc {
	return func(args []Value) (Value, error) {
		if len(args) == 1 {
			if _, err := FloatArg(name, args[0]); err != nil {
				return nil, err
			}
			return True, nil
		}
		result := true
		for i := 1; i < len(args); i++ {
			c, err := compareNumbers(name, args[i-1], args[i])
			if err != nil {
				return nil, err
			}
			if c == 2 || !holds(c) {
				result = false
			}
		}
		return Boolean(result), nil
	}
}
