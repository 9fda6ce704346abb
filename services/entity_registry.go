package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-memdb"

	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/worldgen"
)

// Entity kinds as scripts see them
const (
	KindPlayer  = "player"
	KindMonster = "monster"
	KindItem    = "item"
)

const entityTable = "entity"

var entitySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		entityTable: {
			Name: entityTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"kind": {
					Name:    "kind",
					Indexer: &memdb.StringFieldIndex{Field: "Kind"},
				},
			},
		},
	},
}

type entityRecord struct {
	ID     string
	Kind   string
	Entity models.Entity
}

// EntityRegistry indexes every live entity by id and kind. Records hold
// pointers to the models; callers guard position changes themselves.
type EntityRegistry struct {
	db *memdb.MemDB
}

// NewEntityRegistry creates an empty registry
func NewEntityRegistry() (*EntityRegistry, error) {
	db, err := memdb.NewMemDB(entitySchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity registry: %w", err)
	}
	return &EntityRegistry{db: db}, nil
}

func kindOf(e models.Entity) string {
	switch e.(type) {
	case *models.Player:
		return KindPlayer
	case *models.Monster:
		return KindMonster
	case *models.Item:
		return KindItem
	}
	return "unknown"
}

// Add indexes e, replacing any entity with the same id
func (r *EntityRegistry) Add(e models.Entity) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	rec := &entityRecord{ID: e.GetID(), Kind: kindOf(e), Entity: e}
	if err := txn.Insert(entityTable, rec); err != nil {
		return fmt.Errorf("failed to add entity %s: %w", rec.ID, err)
	}
	txn.Commit()
	return nil
}

// Remove drops the entity with the given id, if present
func (r *EntityRegistry) Remove(id string) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(entityTable, "id", id); err != nil {
		return fmt.Errorf("failed to remove entity %s: %w", id, err)
	}
	txn.Commit()
	return nil
}

// Get looks up an entity by id
func (r *EntityRegistry) Get(id string) (models.Entity, bool) {
	txn := r.db.Txn(false)
	raw, err := txn.First(entityTable, "id", id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*entityRecord).Entity, true
}

// ByKind lists entities of one kind, every entity when kind is empty,
// ordered by id.
func (r *EntityRegistry) ByKind(kind string) ([]models.Entity, error) {
	txn := r.db.Txn(false)

	var (
		it  memdb.ResultIterator
		err error
	)
	if kind == "" {
		it, err = txn.Get(entityTable, "id")
	} else {
		it, err = txn.Get(entityTable, "kind", kind)
	}
	if err != nil {
		return nil, err
	}

	var out []models.Entity
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*entityRecord).Entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out, nil
}

// Within lists entities of a kind on the same level as center whose
// chebyshev distance from it is at most radius.
func (r *EntityRegistry) Within(kind string, center models.Position, radius int) ([]models.Entity, error) {
	all, err := r.ByKind(kind)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, e := range all {
		pos := e.GetPosition()
		if pos.Z == center.Z && abs(pos.X-center.X) <= radius && abs(pos.Y-center.Y) <= radius {
			out = append(out, e)
		}
	}
	return out, nil
}

// At returns the first entity of kind standing on pos
func (r *EntityRegistry) At(kind string, pos models.Position) (models.Entity, bool) {
	found, err := r.Within(kind, pos, 0)
	if err != nil || len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// ScriptView exposes the registry to entity scripts run by player
func (r *EntityRegistry) ScriptView(player string) worldgen.Entities {
	return scriptView{r: r, player: player}
}

type scriptView struct {
	r      *EntityRegistry
	player string
}

func (v scriptView) Player() (string, bool) {
	if v.player == "" {
		return "", false
	}
	_, ok := v.r.Get(v.player)
	return v.player, ok
}

func (v scriptView) Query(kind string) ([]string, error) {
	es, err := v.r.ByKind(kind)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(es))
	for i, e := range es {
		ids[i] = e.GetID()
	}
	return ids, nil
}

func (v scriptView) Position(id string) (models.Position, error) {
	e, ok := v.r.Get(id)
	if !ok {
		return models.Position{}, fmt.Errorf("no entity %s", id)
	}
	return e.GetPosition(), nil
}

func (v scriptView) SetPosition(id string, pos models.Position) error {
	e, ok := v.r.Get(id)
	if !ok {
		return fmt.Errorf("no entity %s", id)
	}
	e.SetPosition(pos)
	return nil
}

// Component renders a named field of an entity
func (v scriptView) Component(id, component string) (string, error) {
	e, ok := v.r.Get(id)
	if !ok {
		return "", fmt.Errorf("no entity %s", id)
	}

	switch component {
	case "kind":
		return kindOf(e), nil
	case "position":
		pos := e.GetPosition()
		return fmt.Sprintf("%d,%d,%d", pos.X, pos.Y, pos.Z), nil
	}

	switch x := e.(type) {
	case *models.Player:
		switch component {
		case "name":
			return x.Username, nil
		case "health":
			return fmt.Sprintf("%d/%d", x.HP, x.MaxHP), nil
		case "level":
			return strconv.Itoa(x.Level), nil
		case "inventory":
			return strings.Join(x.Inventory, ", "), nil
		}
	case *models.Monster:
		switch component {
		case "name":
			return x.Name, nil
		case "health":
			return fmt.Sprintf("%d/%d", x.HP, x.MaxHP), nil
		}
	case *models.Item:
		switch component {
		case "name":
			return x.Name, nil
		case "description":
			return x.Description, nil
		}
	}
	return "", fmt.Errorf("%s %s has no %s component", kindOf(e), id, component)
}
