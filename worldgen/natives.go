package worldgen

import (
	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/models"
)

// grid carries what the tile natives need to know about the chunk shape
type grid struct {
	tiles        *models.TileMap
	sizeX, sizeY int
}

// Install registers the tile, grid and side primitives on it
func Install(it *lisp.Interpreter, tiles *models.TileMap, sizeX, sizeY int) {
	g := &grid{tiles: tiles, sizeX: sizeX, sizeY: sizeY}

	it.Register("tile", lisp.Between(1, 2), g.tile)
	it.Register("tile-id", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		t, err := baseTileArg("tile-id", args[0])
		if err != nil {
			return nil, err
		}
		return lisp.Integer(t.ID), nil
	})
	it.Register("tile-name", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		t, err := baseTileArg("tile-name", args[0])
		if err != nil {
			return nil, err
		}
		return lisp.Symbol(t.Name), nil
	})
	it.Register("tile-side", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		t, err := baseTileArg("tile-side", args[0])
		if err != nil {
			return nil, err
		}
		return lisp.Symbol(t.Side.String()), nil
	})
	it.Register("tile-with-side", lisp.Exactly(2), func(args []lisp.Value) (lisp.Value, error) {
		t, err := baseTileArg("tile-with-side", args[0])
		if err != nil {
			return nil, err
		}
		side, err := sideArg("tile-with-side", args[1])
		if err != nil {
			return nil, err
		}
		return &Tile{Name: t.Name, ID: t.ID, Side: side}, nil
	})
	it.Register("marker?", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		t, ok := args[0].(*Tile)
		return lisp.Boolean(ok && t.IsMarker()), nil
	})
	it.Register("tile-markers", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		t, err := tileArg("tile-markers", args[0])
		if err != nil {
			return nil, err
		}
		return lisp.List(t.Markers...), nil
	})
	it.Register("single-marker", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		if _, err := decodeMarker(args[0]); err != nil {
			return nil, lisp.NativeError("single-marker", "%v", err)
		}
		return (*Tile)(nil).withMarker(args[0]), nil
	})

	it.Register("make-chunk", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		t, err := tileArg("make-chunk", args[0])
		if err != nil {
			return nil, err
		}
		items := make([]lisp.Value, g.sizeX*g.sizeY)
		for i := range items {
			items[i] = t
		}
		return &lisp.Vector{Items: items}, nil
	})
	it.Register("put-tile", lisp.Exactly(3), func(args []lisp.Value) (lisp.Value, error) {
		chunk, i, err := g.cell("put-tile", args[0], args[1])
		if err != nil {
			return nil, err
		}
		t, err := tileArg("put-tile", args[2])
		if err != nil {
			return nil, err
		}
		chunk.Items[i] = t
		return chunk, nil
	})
	it.Register("get-tile", lisp.Exactly(2), func(args []lisp.Value) (lisp.Value, error) {
		chunk, i, err := g.cell("get-tile", args[0], args[1])
		if err != nil {
			return nil, err
		}
		return chunk.Items[i], nil
	})
	it.Register("combine-markers", lisp.Exactly(3), func(args []lisp.Value) (lisp.Value, error) {
		chunk, i, err := g.cell("combine-markers", args[0], args[1])
		if err != nil {
			return nil, err
		}
		if _, err := decodeMarker(args[2]); err != nil {
			return nil, lisp.NativeError("combine-markers", "%v", err)
		}
		current, _ := chunk.Items[i].(*Tile)
		chunk.Items[i] = current.withMarker(args[2])
		return chunk, nil
	})
	it.Register("in-chunk?", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		x, y, err := pointArg("in-chunk?", args[0])
		if err != nil {
			return nil, err
		}
		return lisp.Boolean(g.inside(x, y)), nil
	})

	it.Register("side-combine", lisp.Exactly(2), func(args []lisp.Value) (lisp.Value, error) {
		a, err := sideArg("side-combine", args[0])
		if err != nil {
			return nil, err
		}
		b, err := sideArg("side-combine", args[1])
		if err != nil {
			return nil, err
		}
		return lisp.Symbol(a.Combine(b).String()), nil
	})
	it.Register("side-mirror", lisp.Exactly(1), func(args []lisp.Value) (lisp.Value, error) {
		s, err := sideArg("side-mirror", args[0])
		if err != nil {
			return nil, err
		}
		return lisp.Symbol(s.Mirror().String()), nil
	})

	it.Register("for-each-tile", lisp.Exactly(2), func(args []lisp.Value) (lisp.Value, error) {
		if !lisp.IsProcedure(args[0]) {
			return nil, lisp.NativeError("for-each-tile", "expected a procedure, got %s", lisp.Write(args[0]))
		}
		x0, y0, w, h, err := areaArg("for-each-tile", args[1])
		if err != nil {
			return nil, err
		}
		for y := y0; y < y0+h; y++ {
			for x := x0; x < x0+w; x++ {
				if _, err := it.Apply(args[0], []lisp.Value{point(x, y)}); err != nil {
					return nil, err
				}
			}
		}
		return lisp.Nil, nil
	})
	it.Register("fill-area", lisp.Exactly(3), g.paint("fill-area", func(x0, y0, w, h int, put func(x, y int, side *models.Side) error) error {
		for y := y0; y < y0+h; y++ {
			for x := x0; x < x0+w; x++ {
				if err := put(x, y, nil); err != nil {
					return err
				}
			}
		}
		return nil
	}))
	it.Register("rectangle-outline", lisp.Exactly(3), g.paint("rectangle-outline", func(x0, y0, w, h int, put func(x, y int, side *models.Side) error) error {
		return outline(x0, y0, w, h, func(x, y int, _ models.Side) error { return put(x, y, nil) })
	}))
	// fences face away from the enclosed area
	it.Register("rectangle-fence", lisp.Exactly(3), g.paint("rectangle-fence", func(x0, y0, w, h int, put func(x, y int, side *models.Side) error) error {
		return outline(x0, y0, w, h, func(x, y int, side models.Side) error { return put(x, y, &side) })
	}))
	it.Register("line", lisp.Exactly(4), func(args []lisp.Value) (lisp.Value, error) {
		chunk, err := g.chunkArg("line", args[0])
		if err != nil {
			return nil, err
		}
		x0, y0, err := pointArg("line", args[1])
		if err != nil {
			return nil, err
		}
		x1, y1, err := pointArg("line", args[2])
		if err != nil {
			return nil, err
		}
		t, err := tileArg("line", args[3])
		if err != nil {
			return nil, err
		}

		var lineErr error
		bresenham(x0, y0, x1, y1, func(x, y int) bool {
			if !g.inside(x, y) {
				lineErr = lisp.NativeError("line", "point (%d . %d) outside the chunk", x, y)
				return false
			}
			chunk.Items[g.index(x, y)] = t
			return true
		})
		if lineErr != nil {
			return nil, lineErr
		}
		return chunk, nil
	})
}

func (g *grid) tile(args []lisp.Value) (lisp.Value, error) {
	name, err := lisp.SymbolArg("tile", args[0])
	if err != nil {
		return nil, err
	}
	id, ok := g.tiles.ID(string(name))
	if !ok {
		return nil, lisp.NativeError("tile", "unknown tile %s", name)
	}
	t := &Tile{Name: string(name), ID: id}
	if len(args) == 2 {
		if t.Side, err = sideArg("tile", args[1]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// paint builds an area painter native: (name chunk area tile) -> chunk
func (g *grid) paint(name string, walk func(x0, y0, w, h int, put func(x, y int, side *models.Side) error) error) lisp.NativeFunc {
	return func(args []lisp.Value) (lisp.Value, error) {
		chunk, err := g.chunkArg(name, args[0])
		if err != nil {
			return nil, err
		}
		x0, y0, w, h, err := areaArg(name, args[1])
		if err != nil {
			return nil, err
		}
		t, err := tileArg(name, args[2])
		if err != nil {
			return nil, err
		}

		err = walk(x0, y0, w, h, func(x, y int, side *models.Side) error {
			if !g.inside(x, y) {
				return lisp.NativeError(name, "point (%d . %d) outside the chunk", x, y)
			}
			cell := t
			if side != nil && !t.IsMarker() {
				cell = &Tile{Name: t.Name, ID: t.ID, Side: *side}
			}
			chunk.Items[g.index(x, y)] = cell
			return nil
		})
		if err != nil {
			return nil, err
		}
		return chunk, nil
	}
}

func (g *grid) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.sizeX && y < g.sizeY
}

func (g *grid) index(x, y int) int {
	return y*g.sizeX + x
}

func (g *grid) chunkArg(name string, v lisp.Value) (*lisp.Vector, error) {
	chunk, ok := v.(*lisp.Vector)
	if !ok || len(chunk.Items) != g.sizeX*g.sizeY {
		return nil, lisp.NativeError(name, "expected a %dx%d chunk, got %s", g.sizeX, g.sizeY, lisp.Write(v))
	}
	return chunk, nil
}

func (g *grid) cell(name string, chunkV, pointV lisp.Value) (*lisp.Vector, int, error) {
	chunk, err := g.chunkArg(name, chunkV)
	if err != nil {
		return nil, 0, err
	}
	x, y, err := pointArg(name, pointV)
	if err != nil {
		return nil, 0, err
	}
	if !g.inside(x, y) {
		return nil, 0, lisp.NativeError(name, "point (%d . %d) outside the chunk", x, y)
	}
	return chunk, g.index(x, y), nil
}

func point(x, y int) lisp.Value {
	return lisp.Cons(lisp.Integer(x), lisp.Integer(y))
}

func pointArg(name string, v lisp.Value) (int, int, error) {
	p, ok := v.(*lisp.Pair)
	if !ok {
		return 0, 0, lisp.NativeError(name, "expected a point (x . y), got %s", lisp.Write(v))
	}
	x, xok := p.Car.(lisp.Integer)
	y, yok := p.Cdr.(lisp.Integer)
	if !xok || !yok {
		return 0, 0, lisp.NativeError(name, "point coordinates must be integers, got %s", lisp.Write(v))
	}
	return int(x), int(y), nil
}

// areaArg reads (start size). Negative sizes count as empty.
func areaArg(name string, v lisp.Value) (x, y, w, h int, err error) {
	parts, err := lisp.ListToSlice(v)
	if err != nil || len(parts) != 2 {
		return 0, 0, 0, 0, lisp.NativeError(name, "expected an area (start size), got %s", lisp.Write(v))
	}
	if x, y, err = pointArg(name, parts[0]); err != nil {
		return 0, 0, 0, 0, err
	}
	if w, h, err = pointArg(name, parts[1]); err != nil {
		return 0, 0, 0, 0, err
	}
	return x, y, max(w, 0), max(h, 0), nil
}

func tileArg(name string, v lisp.Value) (*Tile, error) {
	t, ok := v.(*Tile)
	if !ok {
		return nil, lisp.NativeError(name, "expected a tile, got %s", lisp.Write(v))
	}
	return t, nil
}

func baseTileArg(name string, v lisp.Value) (*Tile, error) {
	t, err := tileArg(name, v)
	if err != nil {
		return nil, err
	}
	if t.IsMarker() {
		return nil, lisp.NativeError(name, "marker cells have no base tile")
	}
	return t, nil
}

func sideArg(name string, v lisp.Value) (models.Side, error) {
	s, err := lisp.SymbolArg(name, v)
	if err != nil {
		return models.SideUp, err
	}
	side, err := models.ParseSide(string(s))
	if err != nil {
		return models.SideUp, lisp.NativeError(name, "%v", err)
	}
	return side, nil
}

// outline walks the border of a rectangle once per cell, passing the side
// facing out of it. Corners take the side of their row.
func outline(x0, y0, w, h int, visit func(x, y int, side models.Side) error) error {
	if w == 0 || h == 0 {
		return nil
	}
	for x := x0; x < x0+w; x++ {
		if err := visit(x, y0, models.SideUp); err != nil {
			return err
		}
		if h > 1 {
			if err := visit(x, y0+h-1, models.SideDown); err != nil {
				return err
			}
		}
	}
	for y := y0 + 1; y < y0+h-1; y++ {
		if err := visit(x0, y, models.SideLeft); err != nil {
			return err
		}
		if w > 1 {
			if err := visit(x0+w-1, y, models.SideRight); err != nil {
				return err
			}
		}
	}
	return nil
}

// bresenham visits every cell on the segment from (x0,y0) to (x1,y1)
// inclusive, stopping early when visit returns false.
func bresenham(x0, y0, x1, y1 int, visit func(x, y int) bool) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	e := dx + dy
	for {
		if !visit(x0, y0) || (x0 == x1 && y0 == y1) {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
