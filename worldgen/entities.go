package worldgen

import (
	"fmt"

	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/models"
)

// Entities is the entity store scripts query and move things through
type Entities interface {
	// Player returns the id of the player running the script
	Player() (string, bool)
	// Query lists entity ids of the given kind, every entity when kind is ""
	Query(kind string) ([]string, error)
	Position(id string) (models.Position, error)
	SetPosition(id string, pos models.Position) error
	// Component renders one named component of an entity as text
	Component(id, component string) (string, error)
}

// EntityRef is a script handle on an entity
type EntityRef struct {
	ID string
}

func (*EntityRef) Kind() lisp.Kind { return lisp.KindHost }

func (e *EntityRef) String() string { return "#<entity " + e.ID + ">" }

// Equal compares handles by entity id
func (e *EntityRef) Equal(v lisp.Value) bool {
	o, ok := v.(*EntityRef)
	return ok && o.ID == e.ID
}

// EntityQuery is a cursor over query results
type EntityQuery struct {
	ids  []string
	next int
}

func (*EntityQuery) Kind() lisp.Kind { return lisp.KindHost }

func (q *EntityQuery) String() string {
	return fmt.Sprintf("#<entity-query %d/%d>", q.next, len(q.ids))
}

// Equal compares cursors by identity
func (q *EntityQuery) Equal(v lisp.Value) bool {
	o, ok := v.(*EntityQuery)
	return ok && o == q
}

// InstallEntities registers the entity primitives backed by ents
func InstallEntities(it *lisp.Interpreter, ents Entities) {
	it.Register("player-entity", lisp.Exactly(0), func(args []lisp.Value) (lisp.Value, error) {
		id, ok := ents.Player()
		if !ok {
			return lisp.Nil, nil
		}
		return &EntityRef{ID: id}, nil
	})
	it.Register("all-entities-query", lisp.Between(0, 1), func(args []lisp.Value) (lisp.Value, error) {
		var kind string
		if len(args) == 1 {
			s, err := lisp.SymbolArg("all-entities-query", args[0])
			if err != nil {
				return nil, err
			}
			kind = string(s)
		}
		ids, err := ents.Query(kind)
		if err != nil {
			return nil, lisp.NativeError("all-entities-query", "%v", err)
		}
		return &EntityQuery{ids: ids}, nil
	})
	// query-entity-next yields '() once the cursor is exhausted
	it.Register("query-entity-next", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		q, ok := args[0].(*EntityQuery)
		if !ok {
			return nil, lisp.NativeError("query-entity-next", "expected an entity query, got %s", lisp.Write(args[0]))
		}
		if q.next >= len(q.ids) {
			return lisp.Nil, nil
		}
		q.next++
		return &EntityRef{ID: q.ids[q.next-1]}, nil
	})
	it.Register("position-entity", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		e, err := entityArg("position-entity", args[0])
		if err != nil {
			return nil, err
		}
		pos, err := ents.Position(e.ID)
		if err != nil {
			return nil, lisp.NativeError("position-entity", "%v", err)
		}
		return lisp.List(lisp.Integer(pos.X), lisp.Integer(pos.Y), lisp.Integer(pos.Z)), nil
	})
	it.Register("set-position", lisp.Exactly(2), func(args []lisp.Value) (lisp.Value, error) {
		e, err := entityArg("set-position", args[0])
		if err != nil {
			return nil, err
		}
		coords, err := lisp.ListToSlice(args[1])
		if err != nil || len(coords) != 3 {
			return nil, lisp.NativeError("set-position", "expected (x y z), got %s", lisp.Write(args[1]))
		}
		var xyz [3]int
		for i, c := range coords {
			n, err := lisp.IntegerArg("set-position", c)
			if err != nil {
				return nil, err
			}
			xyz[i] = int(n)
		}
		if err := ents.SetPosition(e.ID, models.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]}); err != nil {
			return nil, lisp.NativeError("set-position", "%v", err)
		}
		return e, nil
	})
	it.Register("format-component", lisp.Exactly(2), func(args []lisp.Value) (lisp.Value, error) {
		e, err := entityArg("format-component", args[0])
		if err != nil {
			return nil, err
		}
		component, err := lisp.SymbolArg("format-component", args[1])
		if err != nil {
			return nil, err
		}
		text, err := ents.Component(e.ID, string(component))
		if err != nil {
			return nil, lisp.NativeError("format-component", "%v", err)
		}
		return lisp.String(text), nil
	})
}

func entityArg(name string, v lisp.Value) (*EntityRef, error) {
	e, ok := v.(*EntityRef)
	if !ok {
		return nil, lisp.NativeError(name, "expected an entity, got %s", lisp.Write(v))
	}
	return e, nil
}

// RunEntityScript evaluates src in a fresh interpreter wired to ents and
// returns the printed value of the last form.
func RunEntityScript(src string, ents Entities, opts ...lisp.Option) (string, error) {
	it, err := lisp.New(opts...)
	if err != nil {
		return "", err
	}
	InstallEntities(it, ents)

	v, err := it.Load(src)
	if err != nil {
		return "", err
	}
	return lisp.Write(v), nil
}
