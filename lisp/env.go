package lisp

// Env is one lexical frame. Lookups walk parent-ward; the parent is never
// owned by the child, a closure keeps its frame alive by holding a pointer.
type Env struct {
	vars   map[Symbol]Value
	parent *Env
}

// NewEnv creates a frame chained to parent (which may be nil)
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[Symbol]Value), parent: parent}
}

// Parent returns the enclosing frame
func (e *Env) Parent() *Env {
	return e.parent
}

// Define binds name in this frame, shadowing any outer binding
func (e *Env) Define(name Symbol, v Value) {
	e.vars[name] = v
}

// Lookup finds the nearest binding of name
func (e *Env) Lookup(name Symbol) (Value, bool) {
	for frame := e; frame != nil; frame = frame.parent {
		if v, ok := frame.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set mutates the frame that defines name. It reports false when name is
// unbound everywhere.
func (e *Env) Set(name Symbol, v Value) bool {
	for frame := e; frame != nil; frame = frame.parent {
		if _, ok := frame.vars[name]; ok {
			frame.vars[name] = v
			return true
		}
	}
	return false
}

// Names lists the symbols bound directly in this frame
func (e *Env) Names() []Symbol {
	names := make([]Symbol, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	return names
}
