package lisp

// ctxCheckEvery is how many steps pass between context checks
const ctxCheckEvery = 256

// tick counts one evaluation step against the budget
func (it *Interpreter) tick() error {
	it.steps++
	if it.maxSteps > 0 && it.steps > it.maxSteps {
		return newError(ErrStepLimit, "evaluation took more than %d steps", it.maxSteps)
	}
	if it.ctx != nil && it.steps%ctxCheckEvery == 0 {
		if err := it.ctx.Err(); err != nil {
			return newError(ErrInterrupted, "%v", err)
		}
	}
	return nil
}

// eval evaluates expr in env. Calls in tail position (the chosen branch of
// if/cond, the last expression of a body, and closure application) loop
// instead of recursing, so only non-tail nesting grows the Go stack and
// counts against the depth limit.
func (it *Interpreter) eval(expr Value, env *Env) (result Value, err error) {
	var pos Position

	it.depth++
	defer func() {
		it.depth--
		if err != nil {
			err = locate(err, pos)
		}
	}()
	if it.depth > it.maxDepth {
		return nil, newError(ErrRecursionLimit, "evaluation nested deeper than %d", it.maxDepth)
	}
	if it.depth == 1 {
		it.steps = 0
	}

	for {
		switch x := expr.(type) {
		case Symbol:
			v, ok := env.Lookup(x)
			if !ok {
				return nil, newError(ErrUnboundSymbol, "%s", x)
			}
			return v, nil

		case *Pair:
			if !x.Pos.IsZero() {
				pos = x.Pos
			}
			if err := it.tick(); err != nil {
				return nil, err
			}

			args, err := formArgs(x)
			if err != nil {
				return nil, err
			}

			if sym, ok := x.Car.(Symbol); ok {
				switch sym {
				case "quote":
					if len(args) != 1 {
						return nil, newError(ErrSyntax, "quote takes exactly one datum")
					}
					return args[0], nil

				case "if":
					if len(args) < 2 || len(args) > 3 {
						return nil, newError(ErrSyntax, "if takes a test, a consequent and an optional alternative")
					}
					test, err := it.eval(args[0], env)
					if err != nil {
						return nil, err
					}
					if Truthy(test) {
						expr = args[1]
						continue
					}
					if len(args) == 3 {
						expr = args[2]
						continue
					}
					// a one-armed if with a false test yields the empty list
					return Nil, nil

				case "cond":
					body, value, found, err := it.selectClause(args, env)
					if err != nil {
						return nil, err
					}
					if !found {
						return Nil, nil
					}
					if len(body) == 0 {
						return value, nil
					}
					if expr, err = it.evalPrefix(body, env); err != nil {
						return nil, err
					}
					continue

				case "begin":
					if len(args) == 0 {
						return Nil, nil
					}
					if expr, err = it.evalPrefix(args, env); err != nil {
						return nil, err
					}
					continue

				case "define":
					return it.evalDefine(args, env)

				case "set!":
					if len(args) != 2 {
						return nil, newError(ErrSyntax, "set! takes a symbol and a value")
					}
					name, ok := args[0].(Symbol)
					if !ok {
						return nil, newError(ErrSyntax, "set! target must be a symbol, got %s", Write(args[0]))
					}
					v, err := it.eval(args[1], env)
					if err != nil {
						return nil, err
					}
					if !env.Set(name, v) {
						return nil, newError(ErrUnboundSymbol, "set! of unbound %s", name)
					}
					return v, nil

				case "lambda":
					if len(args) < 2 {
						return nil, newError(ErrSyntax, "lambda needs parameters and a body")
					}
					return newClosure("", args[0], args[1:], env)

				case "let", "let*":
					if len(args) < 2 {
						return nil, newError(ErrSyntax, "%s needs bindings and a body", sym)
					}
					frame, err := it.bindLet(args[0], env, sym == "let*")
					if err != nil {
						return nil, err
					}
					env = frame
					if expr, err = it.evalPrefix(args[1:], env); err != nil {
						return nil, err
					}
					continue

				case "and", "or":
					if len(args) == 0 {
						return Boolean(sym == "and"), nil
					}
					for _, arg := range args[:len(args)-1] {
						v, err := it.eval(arg, env)
						if err != nil {
							return nil, err
						}
						if Truthy(v) != (sym == "and") {
							return v, nil
						}
					}
					expr = args[len(args)-1]
					continue

				case "when", "unless":
					if len(args) < 2 {
						return nil, newError(ErrSyntax, "%s needs a test and a body", sym)
					}
					test, err := it.eval(args[0], env)
					if err != nil {
						return nil, err
					}
					if Truthy(test) != (sym == "when") {
						return Nil, nil
					}
					if expr, err = it.evalPrefix(args[1:], env); err != nil {
						return nil, err
					}
					continue
				}
			}

			fn, err := it.eval(x.Car, env)
			if err != nil {
				return nil, err
			}
			vals := make([]Value, len(args))
			for i, arg := range args {
				if vals[i], err = it.eval(arg, env); err != nil {
					return nil, err
				}
			}

			switch f := fn.(type) {
			case *Native:
				return it.callNative(f, vals)
			case *Closure:
				frame, err := bindParams(f, vals)
				if err != nil {
					return nil, err
				}
				env = frame
				if expr, err = it.evalPrefix(f.Body, env); err != nil {
					return nil, err
				}
				continue
			default:
				return nil, newError(ErrNotApplicable, "%s is a %s, not a procedure", Write(fn), fn.Kind())
			}

		default:
			return expr, nil
		}
	}
}

// evalPrefix evaluates all but the last expression of body and returns the
// last one for the caller to evaluate in tail position.
func (it *Interpreter) evalPrefix(body []Value, env *Env) (Value, error) {
	for _, e := range body[:len(body)-1] {
		if _, err := it.eval(e, env); err != nil {
			return nil, err
		}
	}
	return body[len(body)-1], nil
}

// evalBody evaluates a whole body and returns its last value
func (it *Interpreter) evalBody(body []Value, env *Env) (Value, error) {
	if len(body) == 0 {
		return Nil, nil
	}
	last, err := it.evalPrefix(body, env)
	if err != nil {
		return nil, err
	}
	return it.eval(last, env)
}

func (it *Interpreter) selectClause(clauses []Value, env *Env) (body []Value, test Value, found bool, err error) {
	for _, c := range clauses {
		clause, err := ListToSlice(c)
		if err != nil || len(clause) == 0 {
			return nil, nil, false, newError(ErrSyntax, "malformed cond clause %s", Write(c))
		}
		if sym, ok := clause[0].(Symbol); ok && sym == "else" {
			return clause[1:], True, true, nil
		}
		v, err := it.eval(clause[0], env)
		if err != nil {
			return nil, nil, false, err
		}
		if Truthy(v) {
			return clause[1:], v, true, nil
		}
	}
	return nil, nil, false, nil
}

func (it *Interpreter) evalDefine(args []Value, env *Env) (Value, error) {
	if len(args) == 0 {
		return nil, newError(ErrSyntax, "define needs a target")
	}

	switch target := args[0].(type) {
	case Symbol:
		if len(args) != 2 {
			return nil, newError(ErrSyntax, "define %s takes exactly one value", target)
		}
		v, err := it.eval(args[1], env)
		if err != nil {
			return nil, err
		}
		if c, ok := v.(*Closure); ok && c.Name == "" {
			c.Name = string(target)
		}
		env.Define(target, v)
		return target, nil

	case *Pair:
		name, ok := target.Car.(Symbol)
		if !ok {
			return nil, newError(ErrSyntax, "procedure name must be a symbol, got %s", Write(target.Car))
		}
		if len(args) < 2 {
			return nil, newError(ErrSyntax, "define %s needs a body", name)
		}
		c, err := newClosure(string(name), target.Cdr, args[1:], env)
		if err != nil {
			return nil, err
		}
		env.Define(name, c)
		return name, nil

	default:
		return nil, newError(ErrSyntax, "cannot define %s", Write(args[0]))
	}
}

// bindLet evaluates let initializers in the outer env; let* evaluates them in
// the new frame so later bindings see earlier ones.
func (it *Interpreter) bindLet(bindings Value, env *Env, sequential bool) (*Env, error) {
	list, err := ListToSlice(bindings)
	if err != nil {
		return nil, newError(ErrSyntax, "malformed let bindings %s", Write(bindings))
	}

	frame := NewEnv(env)
	scope := env
	if sequential {
		scope = frame
	}
	for _, b := range list {
		pair, err := ListToSlice(b)
		if err != nil || len(pair) != 2 {
			return nil, newError(ErrSyntax, "malformed let binding %s", Write(b))
		}
		name, ok := pair[0].(Symbol)
		if !ok {
			return nil, newError(ErrSyntax, "let binding name must be a symbol, got %s", Write(pair[0]))
		}
		v, err := it.eval(pair[1], scope)
		if err != nil {
			return nil, err
		}
		frame.Define(name, v)
	}
	return frame, nil
}

func (it *Interpreter) callNative(f *Native, args []Value) (Value, error) {
	if !f.Arity.accepts(len(args)) {
		return nil, newError(ErrArityMismatch, "%s expects %s arguments, got %d", f.Name, f.Arity, len(args))
	}
	v, err := f.Fn(args)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, NativeError(f.Name, "%v", err)
	}
	return v, nil
}

func formArgs(p *Pair) ([]Value, error) {
	args, err := ListToSlice(p.Cdr)
	if err != nil {
		return nil, newError(ErrSyntax, "improper form %s", Write(p))
	}
	return args, nil
}

func newClosure(name string, params Value, body []Value, env *Env) (*Closure, error) {
	for p := params; ; {
		switch x := p.(type) {
		case EmptyList, Symbol:
			return &Closure{Name: name, Params: params, Body: body, Env: env}, nil
		case *Pair:
			if _, ok := x.Car.(Symbol); !ok {
				return nil, newError(ErrSyntax, "parameter must be a symbol, got %s", Write(x.Car))
			}
			p = x.Cdr
		default:
			return nil, newError(ErrSyntax, "malformed parameter list %s", Write(params))
		}
	}
}

func bindParams(c *Closure, args []Value) (*Env, error) {
	frame := NewEnv(c.Env)
	params := c.Params
	for i := 0; ; i++ {
		switch p := params.(type) {
		case EmptyList:
			if i != len(args) {
				return nil, arityError(c, len(args))
			}
			return frame, nil
		case Symbol:
			if i > len(args) {
				return nil, arityError(c, len(args))
			}
			frame.Define(p, List(args[i:]...))
			return frame, nil
		case *Pair:
			if i >= len(args) {
				return nil, arityError(c, len(args))
			}
			frame.Define(p.Car.(Symbol), args[i])
			params = p.Cdr
		}
	}
}

func closureArity(c *Closure) Arity {
	n := 0
	for p := c.Params; ; {
		switch x := p.(type) {
		case *Pair:
			n++
			p = x.Cdr
		case Symbol:
			return AtLeast(n)
		default:
			return Exactly(n)
		}
	}
}

func arityError(c *Closure, got int) error {
	name := c.Name
	if name == "" {
		name = "anonymous procedure"
	}
	return newError(ErrArityMismatch, "%s expects %s arguments, got %d", name, closureArity(c), got)
}
