package models

import (
	"fmt"
	"strings"
)

// Tile types represented as integers for compact chunk storage
const (
	TileAir = iota
	TileConcrete
	TileAsphalt
	TileSidewalk
	TileGrass
	TileDirt
	TileSand
	TileWater
	TileTree
	TileBush
	TileWoodFloor
	TileTileFloor
	TileCarpet
	TileConcreteWall
	TileBrickWall
	TileWoodWall
	TileGlass
	TileFence
	TileStairsUp
	TileStairsDown
	TileRoof
	TileRoofCoping
	TileMetalFloor
	TileRubble
)

var tileNames = [...]string{
	TileAir:          "air",
	TileConcrete:     "concrete",
	TileAsphalt:      "asphalt",
	TileSidewalk:     "sidewalk",
	TileGrass:        "grass",
	TileDirt:         "dirt",
	TileSand:         "sand",
	TileWater:        "water",
	TileTree:         "tree",
	TileBush:         "bush",
	TileWoodFloor:    "wood_floor",
	TileTileFloor:    "tile_floor",
	TileCarpet:       "carpet",
	TileConcreteWall: "concrete_wall",
	TileBrickWall:    "brick_wall",
	TileWoodWall:     "wood_wall",
	TileGlass:        "glass",
	TileFence:        "fence",
	TileStairsUp:     "stairs_up",
	TileStairsDown:   "stairs_down",
	TileRoof:         "roof",
	TileRoofCoping:   "roof_coping",
	TileMetalFloor:   "metal_floor",
	TileRubble:       "rubble",
}

var solidTiles = map[int]bool{
	TileWater:        true,
	TileTree:         true,
	TileConcreteWall: true,
	TileBrickWall:    true,
	TileWoodWall:     true,
	TileGlass:        true,
	TileFence:        true,
	TileRoofCoping:   true,
}

// TileMap maps tile names to ids and back
type TileMap struct {
	names []string
	ids   map[string]int
	solid map[int]bool
}

// NewTileMap builds a tile map from names indexed by id
func NewTileMap(names []string, solid map[int]bool) *TileMap {
	tm := &TileMap{
		names: append([]string(nil), names...),
		ids:   make(map[string]int, len(names)),
		solid: solid,
	}
	for id, name := range tm.names {
		tm.ids[name] = id
	}
	return tm
}

// DefaultTileMap returns the built-in tiles
func DefaultTileMap() *TileMap {
	return NewTileMap(tileNames[:], solidTiles)
}

// ID looks up a tile by name
func (tm *TileMap) ID(name string) (int, bool) {
	id, ok := tm.ids[name]
	return id, ok
}

// Name returns the name of a tile id, or "" when out of range
func (tm *TileMap) Name(id int) string {
	if id < 0 || id >= len(tm.names) {
		return ""
	}
	return tm.names[id]
}

// Names lists every tile name in id order
func (tm *TileMap) Names() []string {
	return append([]string(nil), tm.names...)
}

// IsSolid reports whether a tile blocks movement
func (tm *TileMap) IsSolid(id int) bool {
	return tm.solid[id]
}

// Side is one of the four cardinal directions a tile can face
type Side int

const (
	SideUp Side = iota
	SideRight
	SideDown
	SideLeft
)

var sideNames = [...]string{"up", "right", "down", "left"}

// ParseSide reads a side name
func ParseSide(s string) (Side, error) {
	for i, name := range sideNames {
		if strings.EqualFold(s, name) {
			return Side(i), nil
		}
	}
	return SideUp, fmt.Errorf("invalid side %q", s)
}

func (s Side) String() string {
	if s < 0 || int(s) >= len(sideNames) {
		return fmt.Sprintf("side(%d)", int(s))
	}
	return sideNames[s]
}

// Combine rotates s clockwise by other
func (s Side) Combine(other Side) Side {
	return (s + other) % 4
}

// Mirror swaps left and right, leaving up and down alone
func (s Side) Mirror() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	}
	return s
}

// MarshalText encodes a side by name
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side name
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// Entity interface for anything that can exist on the map
type Entity interface {
	GetPosition() Position
	SetPosition(Position)
	GetID() string
}
