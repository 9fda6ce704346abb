package worldgen

import (
	"fmt"
	"strings"

	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/models"
)

// Tile is the script-side value of one chunk cell. It is immutable: painting
// a cell replaces the value stored in the chunk vector. A Tile with non-nil
// Markers is a marker cell and has no base tile.
type Tile struct {
	Name    string
	ID      int
	Side    models.Side
	Markers []lisp.Value
}

func (*Tile) Kind() lisp.Kind { return lisp.KindHost }

// IsMarker reports whether the cell holds markers
func (t *Tile) IsMarker() bool {
	return t.Markers != nil
}

func (t *Tile) String() string {
	if t.IsMarker() {
		parts := make([]string, len(t.Markers))
		for i, m := range t.Markers {
			parts[i] = lisp.Write(m)
		}
		return "#<markers " + strings.Join(parts, " ") + ">"
	}
	return fmt.Sprintf("#<tile %s %s>", t.Name, t.Side)
}

// Equal compares tiles by content
func (t *Tile) Equal(v lisp.Value) bool {
	o, ok := v.(*Tile)
	if !ok {
		return false
	}
	if t.Name != o.Name || t.ID != o.ID || t.Side != o.Side || t.IsMarker() != o.IsMarker() {
		return false
	}
	if len(t.Markers) != len(o.Markers) {
		return false
	}
	for i := range t.Markers {
		if !lisp.Equal(t.Markers[i], o.Markers[i]) {
			return false
		}
	}
	return true
}

// withMarker returns a marker cell holding t's markers plus m. t's marker
// slice is never shared with the result.
func (t *Tile) withMarker(m lisp.Value) *Tile {
	var markers []lisp.Value
	if t != nil && t.IsMarker() {
		markers = make([]lisp.Value, len(t.Markers), len(t.Markers)+1)
		copy(markers, t.Markers)
	}
	return &Tile{Markers: append(markers, m)}
}

// decodeMarker reads one tagged marker list:
//
//	(door <side> <material> [<state>])
//	(light <strength> [(<dx> <dy> <dz>)])
//	(furniture <kind> <side> <variant-offset>...)
//	(enemy <kind>)
func decodeMarker(v lisp.Value) (models.Marker, error) {
	items, err := lisp.ListToSlice(v)
	if err != nil || len(items) == 0 {
		return models.Marker{}, fmt.Errorf("marker must be a non-empty list, got %s", lisp.Write(v))
	}

	tag, ok := items[0].(lisp.Symbol)
	if !ok {
		return models.Marker{}, fmt.Errorf("marker tag must be a symbol, got %s", lisp.Write(items[0]))
	}
	args := items[1:]

	m := models.Marker{Kind: models.MarkerKind(tag)}
	switch m.Kind {
	case models.MarkerDoor:
		if len(args) < 2 || len(args) > 3 {
			return m, fmt.Errorf("door marker takes side, material and an optional state")
		}
		if m.Side, err = sideValue(args[0]); err != nil {
			return m, err
		}
		if m.Material, err = symbolValue("door material", args[1]); err != nil {
			return m, err
		}
		m.State = "closed"
		if len(args) == 3 {
			if m.State, err = symbolValue("door state", args[2]); err != nil {
				return m, err
			}
		}

	case models.MarkerLight:
		if len(args) < 1 || len(args) > 2 {
			return m, fmt.Errorf("light marker takes a strength and an optional offset")
		}
		if m.Strength, err = lisp.FloatArg("light", args[0]); err != nil {
			return m, err
		}
		if len(args) == 2 {
			offset, err := lisp.ListToSlice(args[1])
			if err != nil || len(offset) > 3 {
				return m, fmt.Errorf("light offset must be a list of up to three numbers")
			}
			for _, o := range offset {
				f, err := lisp.FloatArg("light", o)
				if err != nil {
					return m, err
				}
				m.Offset = append(m.Offset, f)
			}
		}

	case models.MarkerFurniture:
		if len(args) < 2 {
			return m, fmt.Errorf("furniture marker takes a kind, a side and variant offsets")
		}
		if m.Name, err = symbolValue("furniture kind", args[0]); err != nil {
			return m, err
		}
		if m.Side, err = sideValue(args[1]); err != nil {
			return m, err
		}
		for _, o := range args[2:] {
			f, err := lisp.FloatArg("furniture", o)
			if err != nil {
				return m, err
			}
			m.Offset = append(m.Offset, f)
		}

	case models.MarkerEnemy:
		if len(args) != 1 {
			return m, fmt.Errorf("enemy marker takes exactly one kind")
		}
		if m.Name, err = symbolValue("enemy kind", args[0]); err != nil {
			return m, err
		}

	default:
		return m, fmt.Errorf("unknown marker tag %s", tag)
	}
	return m, nil
}

func symbolValue(what string, v lisp.Value) (string, error) {
	s, ok := v.(lisp.Symbol)
	if !ok {
		return "", fmt.Errorf("%s must be a symbol, got %s", what, lisp.Write(v))
	}
	return string(s), nil
}

func sideValue(v lisp.Value) (models.Side, error) {
	s, err := symbolValue("side", v)
	if err != nil {
		return models.SideUp, err
	}
	return models.ParseSide(s)
}
