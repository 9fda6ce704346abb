package worldgen

import (
	"context"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"path"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/models"
)

// ErrContractViolation is returned when a chunk script finishes with
// something other than a chunk.
var ErrContractViolation = errors.New("generation contract violation")

// ErrUnknownChunk is returned for a chunk name with no script
var ErrUnknownChunk = errors.New("unknown chunk script")

// Default chunk dimensions
const (
	DefaultSizeX = 16
	DefaultSizeY = 16
)

//go:embed prelude.scm
var preludeSource string

//go:embed scripts/*.scm
var builtinScripts embed.FS

// Config configures a Generator
type Config struct {
	SizeX, SizeY int
	// Seed is mixed into every per-chunk seed
	Seed int64
	// Scripts holds <name>.scm chunk scripts at its root. The built-in
	// scripts are used when nil.
	Scripts  fs.FS
	Tiles    *models.TileMap
	MaxDepth int
	// Output receives anything scripts display
	Output io.Writer
}

// Request names one chunk to generate
type Request struct {
	Name       string      `json:"name"`
	X          int         `json:"x"`
	Y          int         `json:"y"`
	Height     int         `json:"height"`
	Levels     int         `json:"levels"`
	Rotation   models.Side `json:"rotation"`
	Difficulty float64     `json:"difficulty"`
}

// Generator turns chunk requests into tile grids by running chunk scripts.
// It is safe for concurrent use; every call gets its own interpreter.
type Generator struct {
	cfg     Config
	scripts map[string]string
}

// NewGenerator loads every chunk script up front
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.SizeX <= 0 {
		cfg.SizeX = DefaultSizeX
	}
	if cfg.SizeY <= 0 {
		cfg.SizeY = DefaultSizeY
	}
	if cfg.Tiles == nil {
		cfg.Tiles = models.DefaultTileMap()
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.Scripts == nil {
		sub, err := fs.Sub(builtinScripts, "scripts")
		if err != nil {
			return nil, fmt.Errorf("failed to open built-in scripts: %w", err)
		}
		cfg.Scripts = sub
	}

	paths, err := fs.Glob(cfg.Scripts, "*.scm")
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk scripts: %w", err)
	}
	if len(paths) == 0 {
		return nil, errors.New("no chunk scripts found")
	}

	scripts := make(map[string]string, len(paths))
	for _, p := range paths {
		src, err := fs.ReadFile(cfg.Scripts, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk script %s: %w", p, err)
		}
		if _, err := lisp.Parse(string(src)); err != nil {
			return nil, fmt.Errorf("chunk script %s: %w", p, err)
		}
		scripts[strings.TrimSuffix(path.Base(p), ".scm")] = string(src)
	}

	return &Generator{cfg: cfg, scripts: scripts}, nil
}

// Names lists the available chunk scripts
func (g *Generator) Names() []string {
	names := make([]string, 0, len(g.scripts))
	for name := range g.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the chunk dimensions
func (g *Generator) Size() (int, int) {
	return g.cfg.SizeX, g.cfg.SizeY
}

// Seed derives the deterministic random seed of one chunk
func (g *Generator) Seed(req Request) int64 {
	var buf [8]byte
	d := xxhash.New()
	for _, n := range []int64{g.cfg.Seed, int64(req.X), int64(req.Y), int64(req.Height)} {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		d.Write(buf[:])
	}
	d.WriteString(req.Name)
	return int64(d.Sum64())
}

// NewInterpreter prepares an interpreter with the world primitives, the
// prelude and the ambient globals of req bound.
func (g *Generator) NewInterpreter(req Request) (*lisp.Interpreter, error) {
	opts := []lisp.Option{
		lisp.WithRand(rand.New(rand.NewSource(g.Seed(req)))),
		lisp.WithOutput(g.cfg.Output),
	}
	if g.cfg.MaxDepth > 0 {
		opts = append(opts, lisp.WithMaxDepth(g.cfg.MaxDepth))
	}

	it, err := lisp.New(opts...)
	if err != nil {
		return nil, err
	}
	Install(it, g.cfg.Tiles, g.cfg.SizeX, g.cfg.SizeY)

	levels := req.Levels
	if levels <= 0 {
		levels = 1
	}
	it.Define("size-x", lisp.Integer(g.cfg.SizeX))
	it.Define("size-y", lisp.Integer(g.cfg.SizeY))
	it.Define("height", lisp.Integer(req.Height))
	it.Define("levels", lisp.Integer(levels))
	it.Define("rotation", lisp.Symbol(req.Rotation.String()))
	it.Define("difficulty", lisp.Float(req.Difficulty))
	it.Define("chunk-name", lisp.Symbol(req.Name))
	it.Define("chunk-x", lisp.Integer(req.X))
	it.Define("chunk-y", lisp.Integer(req.Y))

	if _, err := it.Load(preludeSource); err != nil {
		return nil, fmt.Errorf("failed to load world prelude: %w", err)
	}
	return it, nil
}

// Generate runs the chunk script named by req
func (g *Generator) Generate(ctx context.Context, req Request) (*models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, ok := g.scripts[req.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChunk, req.Name)
	}

	it, err := g.NewInterpreter(req)
	if err != nil {
		return nil, err
	}
	result, err := it.Load(src)
	if err != nil {
		return nil, fmt.Errorf("chunk %s at height %d: %w", req.Name, req.Height, err)
	}

	chunk := &models.Chunk{
		Name:       req.Name,
		X:          req.X,
		Y:          req.Y,
		Height:     req.Height,
		Rotation:   req.Rotation,
		Difficulty: req.Difficulty,
		SizeX:      g.cfg.SizeX,
		SizeY:      g.cfg.SizeY,
	}

	if _, empty := result.(lisp.EmptyList); empty {
		levels := max(req.Levels, 1)
		if req.Height >= 0 && req.Height < levels {
			return nil, fmt.Errorf("%w: chunk %s returned nothing for building level %d", ErrContractViolation, req.Name, req.Height)
		}
		chunk.Tiles = g.airTiles()
		return chunk, nil
	}

	if chunk.Tiles, err = g.decode(result); err != nil {
		return nil, fmt.Errorf("%w: chunk %s: %v", ErrContractViolation, req.Name, err)
	}
	return chunk, nil
}

func (g *Generator) airTiles() []models.Tile {
	tiles := make([]models.Tile, g.cfg.SizeX*g.cfg.SizeY)
	for i := range tiles {
		tiles[i] = models.Tile{Name: g.cfg.Tiles.Name(models.TileAir), ID: models.TileAir}
	}
	return tiles
}

// decode reads the chunk vector a script returned back into host tiles
func (g *Generator) decode(v lisp.Value) ([]models.Tile, error) {
	vec, ok := v.(*lisp.Vector)
	if !ok {
		return nil, fmt.Errorf("expected a chunk, got %s", lisp.Write(v))
	}
	if len(vec.Items) != g.cfg.SizeX*g.cfg.SizeY {
		return nil, fmt.Errorf("chunk has %d cells, want %d", len(vec.Items), g.cfg.SizeX*g.cfg.SizeY)
	}

	tiles := make([]models.Tile, len(vec.Items))
	for i, item := range vec.Items {
		t, ok := item.(*Tile)
		if !ok {
			return nil, fmt.Errorf("cell %d holds %s, not a tile", i, lisp.Write(item))
		}
		if !t.IsMarker() {
			tiles[i] = models.Tile{Name: t.Name, ID: t.ID, Rotation: t.Side}
			continue
		}

		markers := make([]models.Marker, len(t.Markers))
		for j, m := range t.Markers {
			marker, err := decodeMarker(m)
			if err != nil {
				return nil, fmt.Errorf("cell %d: %v", i, err)
			}
			markers[j] = marker
		}
		tiles[i] = models.Tile{ID: -1, Markers: markers}
	}
	return tiles, nil
}
