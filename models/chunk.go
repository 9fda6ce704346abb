package models

import "fmt"

// MarkerKind tags a marker annotation
type MarkerKind string

const (
	MarkerDoor      MarkerKind = "door"
	MarkerLight     MarkerKind = "light"
	MarkerFurniture MarkerKind = "furniture"
	MarkerEnemy     MarkerKind = "enemy"
)

// Marker is one semantic annotation on a grid cell
type Marker struct {
	Kind     MarkerKind `json:"kind"`
	Name     string     `json:"name,omitempty"` // furniture or enemy kind
	Side     Side       `json:"side"`
	Material string     `json:"material,omitempty"`
	State    string     `json:"state,omitempty"`
	Strength float64    `json:"strength,omitempty"`
	Offset   []float64  `json:"offset,omitempty"`
}

// Tile is one generated cell. A cell holds either a base tile or markers.
type Tile struct {
	Name     string   `json:"name,omitempty"`
	ID       int      `json:"id"`
	Rotation Side     `json:"rotation"`
	Markers  []Marker `json:"markers,omitempty"`
}

// IsMarker reports whether the cell carries markers instead of a base tile
func (t Tile) IsMarker() bool {
	return len(t.Markers) > 0
}

// Chunk is a generated size-x by size-y grid, row-major
type Chunk struct {
	Name       string  `json:"name"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Height     int     `json:"height"`
	Rotation   Side    `json:"rotation"`
	Difficulty float64 `json:"difficulty"`
	SizeX      int     `json:"size_x"`
	SizeY      int     `json:"size_y"`
	Tiles      []Tile  `json:"tiles"`
}

// ChunkKey identifies a chunk in storage
func ChunkKey(x, y, height int) string {
	return fmt.Sprintf("%d,%d,%d", x, y, height)
}

// Key returns the storage key of the chunk
func (c *Chunk) Key() string {
	return ChunkKey(c.X, c.Y, c.Height)
}

// Index converts local coordinates to a tile index
func (c *Chunk) Index(x, y int) int {
	return y*c.SizeX + x
}

// At returns the tile at local coordinates
func (c *Chunk) At(x, y int) (Tile, bool) {
	if x < 0 || y < 0 || x >= c.SizeX || y >= c.SizeY {
		return Tile{}, false
	}
	return c.Tiles[c.Index(x, y)], true
}
