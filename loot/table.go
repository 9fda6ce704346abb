package loot

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"terminus-realm/worldgen/lisp"
)

//go:embed loot.scm
var builtinSource string

// ErrUnknownLootEntry is returned when no table is registered under a name
var ErrUnknownLootEntry = errors.New("unknown loot entry")

// State selects which drop list a table entry produces
type State string

const (
	// StateCreate is loot an entity spawns with
	StateCreate State = "create"
	// StateDestroy is salvage left when something is broken down
	StateDestroy State = "destroy"
	// StateEquip is what an entity wears
	StateEquip State = "equip"
)

// ParseState reads a state name
func ParseState(s string) (State, error) {
	switch st := State(strings.ToLower(s)); st {
	case StateCreate, StateDestroy, StateEquip:
		return st, nil
	}
	return "", fmt.Errorf("invalid loot state %q", s)
}

// Option configures a Table
type Option func(*Table)

// WithSource replaces the built-in tables
func WithSource(src string) Option {
	return func(t *Table) { t.source = src }
}

// WithSeed makes the sequence of drops reproducible
func WithSeed(seed int64) Option {
	return func(t *Table) { t.seeds = rand.New(rand.NewSource(seed)) }
}

// WithMaxDepth bounds the interpreter nesting depth
func WithMaxDepth(n int) Option {
	return func(t *Table) { t.maxDepth = n }
}

// Table rolls drops from the loot scripts. Each roll runs in its own
// interpreter, so a Table is safe for concurrent use.
type Table struct {
	source   string
	maxDepth int

	mu    sync.Mutex
	seeds *rand.Rand
}

// NewTable creates a new loot table
func NewTable(opts ...Option) (*Table, error) {
	t := &Table{source: builtinSource}
	for _, opt := range opts {
		opt(t)
	}
	if t.seeds == nil {
		t.seeds = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if _, err := lisp.Parse(t.source); err != nil {
		return nil, fmt.Errorf("failed to parse loot tables: %w", err)
	}
	return t, nil
}

func (t *Table) nextSeed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seeds.Int63()
}

func (t *Table) interpreter(name string, state State, difficulty float64) (*lisp.Interpreter, error) {
	opts := []lisp.Option{lisp.WithRand(rand.New(rand.NewSource(t.nextSeed())))}
	if t.maxDepth > 0 {
		opts = append(opts, lisp.WithMaxDepth(t.maxDepth))
	}

	it, err := lisp.New(opts...)
	if err != nil {
		return nil, err
	}
	it.Define("name", lisp.Symbol(name))
	it.Define("state", lisp.Symbol(state))
	it.Define("difficulty", lisp.Float(difficulty))

	if _, err := it.Load(t.source); err != nil {
		return nil, fmt.Errorf("failed to load loot tables: %w", err)
	}
	return it, nil
}

// Names lists the registered table entries in definition order
func (t *Table) Names() ([]string, error) {
	it, err := t.interpreter("", StateCreate, 0)
	if err != nil {
		return nil, err
	}
	v, err := it.Call("loot-names")
	if err != nil {
		return nil, err
	}
	vs, err := lisp.ListToSlice(v)
	if err != nil {
		return nil, fmt.Errorf("loot-names returned %s", lisp.Write(v))
	}

	names := make([]string, len(vs))
	for i, n := range vs {
		s, ok := n.(lisp.Symbol)
		if !ok {
			return nil, fmt.Errorf("loot entry keys must be symbols, got %s", lisp.Write(n))
		}
		names[i] = string(s)
	}
	return names, nil
}

// Create rolls the drops of the entry called name
func (t *Table) Create(ctx context.Context, name string, state State, difficulty float64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	it, err := t.interpreter(name, state, difficulty)
	if err != nil {
		return nil, err
	}

	entry, err := it.Call("find-loot", lisp.Symbol(name))
	if err != nil {
		return nil, err
	}
	if !lisp.IsProcedure(entry) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLootEntry, name)
	}

	v, err := it.Apply(entry, nil)
	if err != nil {
		return nil, fmt.Errorf("loot %s (%s): %w", name, state, err)
	}
	drops, err := items(v)
	if err != nil {
		return nil, fmt.Errorf("loot %s (%s): %w", name, state, err)
	}
	return drops, nil
}

// items converts a list of item symbols or strings, turning _ into spaces
func items(v lisp.Value) ([]string, error) {
	vs, err := lisp.ListToSlice(v)
	if err != nil {
		return nil, fmt.Errorf("expected a list of items, got %s", lisp.Write(v))
	}

	out := make([]string, 0, len(vs))
	for _, item := range vs {
		if s, ok := item.(lisp.Symbol); ok {
			out = append(out, strings.ReplaceAll(string(s), "_", " "))
			continue
		}
		if s, ok := lisp.GoString(item); ok {
			out = append(out, s)
			continue
		}
		return nil, fmt.Errorf("item must be a symbol or a string, got %s", lisp.Write(item))
	}
	return out, nil
}
