package worldgen

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/models"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()

	g, err := NewGenerator(Config{Seed: 7})
	require.NoError(t, err, "generator should load the built-in scripts")
	return g
}

func eval(t *testing.T, g *Generator, req Request, src string) lisp.Value {
	t.Helper()

	it, err := g.NewInterpreter(req)
	require.NoError(t, err)
	v, err := it.Load(src)
	require.NoError(t, err)
	return v
}

func cells(t *testing.T, v lisp.Value) []*Tile {
	t.Helper()

	vec, ok := v.(*lisp.Vector)
	require.True(t, ok, "expected a chunk vector, got %s", lisp.Write(v))
	out := make([]*Tile, len(vec.Items))
	for i, item := range vec.Items {
		out[i], ok = item.(*Tile)
		require.True(t, ok, "cell %d is not a tile", i)
	}
	return out
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"apartment", "park", "street", "underground"}, newGenerator(t).Names())
}

func TestFillArea(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	chunk := cells(t, eval(t, g, Request{}, "(fill-area (air-chunk) (chunk-area) (tile 'grass))"))

	require.Len(t, chunk, 256)
	for i, c := range chunk {
		assert.Equal(t, "grass", c.Name, "cell %d", i)
	}
}

func TestFillEmptyArea(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	chunk := cells(t, eval(t, g, Request{}, `
		(define c (air-chunk))
		(fill-area c (make-area (make-point 3 3) (make-point 0 5)) (tile 'grass))
		(fill-area c (make-area (make-point 3 3) (make-point -2 5)) (tile 'grass))`))

	for i, c := range chunk {
		assert.Equal(t, "air", c.Name, "cell %d", i)
	}
}

func TestFillAreaOutsideChunk(t *testing.T) {
	t.Parallel()

	it, err := newGenerator(t).NewInterpreter(Request{})
	require.NoError(t, err)

	_, err = it.Load("(fill-area (air-chunk) (make-area (make-point 10 10) (make-point 10 1)) (tile 'grass))")
	assert.ErrorIs(t, err, lisp.ErrNativeCall)

	_, err = it.Load("(put-tile (air-chunk) (make-point 16 0) (tile 'grass))")
	assert.ErrorIs(t, err, lisp.ErrNativeCall)

	_, err = it.Load("(tile 'lava)")
	assert.ErrorIs(t, err, lisp.ErrNativeCall)
}

func TestCombineMarkers(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	v := eval(t, g, Request{}, `
		(define c (filled-chunk 'grass))
		(combine-markers c (make-point 1 1) '(enemy zombie))
		(combine-markers c (make-point 1 1) '(light 1.0))
		(list (marker? (get-tile c (make-point 1 1)))
		      (tile-markers (get-tile c (make-point 1 1)))
		      (marker? (get-tile c (make-point 2 1))))`)

	assert.Equal(t, "(#t ((enemy zombie) (light 1.0)) #f)", lisp.Write(v))
}

func TestCombineMarkersRejectsBadMarker(t *testing.T) {
	t.Parallel()

	it, err := newGenerator(t).NewInterpreter(Request{})
	require.NoError(t, err)

	for _, src := range []string{
		"(combine-markers (air-chunk) (make-point 0 0) '(teleporter))",
		"(combine-markers (air-chunk) (make-point 0 0) '(door sideways wood))",
		"(combine-markers (air-chunk) (make-point 0 0) '(enemy))",
	} {
		_, err := it.Load(src)
		assert.ErrorIs(t, err, lisp.ErrNativeCall, src)
	}
}

func TestMarkerCellHasNoBaseTile(t *testing.T) {
	t.Parallel()

	it, err := newGenerator(t).NewInterpreter(Request{})
	require.NoError(t, err)

	_, err = it.Load("(tile-name (single-marker '(enemy zombie)))")
	assert.ErrorIs(t, err, lisp.ErrNativeCall)
}

func TestRectangleFence(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	chunk := cells(t, eval(t, g, Request{}, "(rectangle-fence (air-chunk) (chunk-area) (tile 'fence))"))

	for _, tt := range []struct {
		x, y int
		side models.Side
	}{
		{0, 0, models.SideUp},
		{15, 0, models.SideUp},
		{0, 15, models.SideDown},
		{7, 15, models.SideDown},
		{0, 5, models.SideLeft},
		{15, 5, models.SideRight},
	} {
		c := chunk[tt.y*16+tt.x]
		assert.Equal(t, "fence", c.Name)
		assert.Equal(t, tt.side, c.Side, "(%d, %d)", tt.x, tt.y)
	}
	assert.Equal(t, "air", chunk[5*16+5].Name)
}

func TestLine(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	chunk := cells(t, eval(t, g, Request{}, "(line (air-chunk) (make-point 0 0) (make-point 3 3) (tile 'dirt))"))

	for i := 0; i < 4; i++ {
		assert.Equal(t, "dirt", chunk[i*16+i].Name)
	}
	assert.Equal(t, "air", chunk[4*16+4].Name)
}

func TestForEachTileOrder(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	v := eval(t, g, Request{}, `
		(define seen '())
		(for-each-tile (lambda (p) (set! seen (cons p seen)))
		               (make-area (make-point 1 2) (make-point 2 2)))
		(reverse seen)`)

	assert.Equal(t, "((1 . 2) (2 . 2) (1 . 3) (2 . 3))", lisp.Write(v))
}

func TestSides(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	for _, tt := range []struct {
		src, want string
	}{
		{"(side-combine 'right 'right)", "down"},
		{"(side-combine 'down 'left)", "right"},
		{"(side-combine 'up 'left)", "left"},
		{"(side-mirror 'left)", "right"},
		{"(side-mirror 'up)", "up"},
		{"(tile-side (tile-with-side (tile 'glass) 'down))", "down"},
		{"(flip-marker '(door left wood))", "(door right wood)"},
		{"(flip-point (make-point 0 4))", "(15 . 4)"},
	} {
		assert.Equal(t, tt.want, lisp.Write(eval(t, g, Request{}, tt.src)), tt.src)
	}
}

func TestEntranceSide(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	assert.Equal(t, "down", lisp.Write(eval(t, g, Request{Rotation: models.SideUp}, "(entrance-side)")))
	assert.Equal(t, "left", lisp.Write(eval(t, g, Request{Rotation: models.SideRight}, "(entrance-side)")))
	assert.Equal(t, "(8 . 15)", lisp.Write(eval(t, g, Request{}, "(edge-middle 'down)")))
}

func TestGradientPick(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	for _, tt := range []struct {
		src, want string
	}{
		{"(gradient-pick '(a b c) -1.0 0.0 4.0)", "a"},
		{"(gradient-pick '(a b c) 0.0 0.0 4.0)", "a"},
		{"(gradient-pick '(a b c) 4.0 0.0 4.0)", "c"},
		{"(gradient-pick '(a b c) 9.0 0.0 4.0)", "c"},
		{"(gradient-pick '(a b c) 2.0 0.0 4.0)", "b"},
		{"(gradient-pick '(a b c) 1.0 2.0 2.0)", "a"},
		{"(gradient-pick '(a b c) 3.0 2.0 2.0)", "c"},
	} {
		assert.Equal(t, tt.want, lisp.Write(eval(t, g, Request{}, tt.src)), tt.src)
	}
}

func TestStopBetweenDifficulty(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	assert.Equal(t, lisp.True, eval(t, g, Request{Difficulty: 0.5}, "(stop-between-difficulty 1.0 2.0)"))
	assert.Equal(t, lisp.False, eval(t, g, Request{Difficulty: 2.0}, "(stop-between-difficulty 1.0 2.0)"))
	assert.Equal(t, lisp.False, eval(t, g, Request{Difficulty: 3.0}, "(stop-between-difficulty 1.0 2.0)"))
}

func TestRoomMirror(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	req := Request{Name: "apartment", Height: -1, Levels: 6, Difficulty: 2.0}
	src, err := builtinScripts.ReadFile("scripts/apartment.scm")
	require.NoError(t, err)

	room := func(flip lisp.Value) []models.Tile {
		it, err := g.NewInterpreter(req)
		require.NoError(t, err)
		_, err = it.Load(string(src))
		require.NoError(t, err)

		air, err := it.Call("air-chunk")
		require.NoError(t, err)
		v, err := it.Call("room", air, flip)
		require.NoError(t, err)
		tiles, err := g.decode(v)
		require.NoError(t, err)
		return tiles
	}

	left := room(lisp.False)
	right := room(lisp.True)

	painted := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			a := left[y*16+x]
			b := right[y*16+(15-x)]

			assert.Equal(t, a.Name, b.Name, "(%d, %d)", x, y)
			assert.Equal(t, a.Rotation.Mirror(), b.Rotation, "(%d, %d)", x, y)
			require.Len(t, b.Markers, len(a.Markers), "(%d, %d)", x, y)
			for i := range a.Markers {
				want := a.Markers[i]
				want.Side = want.Side.Mirror()
				assert.Equal(t, want, b.Markers[i], "(%d, %d)", x, y)
			}
			if x < 8 && a.Name != "air" {
				painted++
			}
		}
	}
	assert.Positive(t, painted, "the room should paint the left half")
	assert.Equal(t, "glass", left[4*16].Name)
	assert.Equal(t, models.SideRight, right[4*16+15].Rotation)
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	for _, name := range g.Names() {
		req := Request{Name: name, X: 3, Y: -2, Height: 0, Levels: 6, Difficulty: 2.5}
		if name == "underground" {
			req.Height = -1
		}

		a, err := g.Generate(context.Background(), req)
		require.NoError(t, err, name)
		b, err := g.Generate(context.Background(), req)
		require.NoError(t, err, name)

		assert.Equal(t, a, b, name)
		assert.Len(t, a.Tiles, 256, name)
	}
}

func TestGenerateAllLevels(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	for _, tt := range []struct {
		name      string
		levels    int
		low, high int
	}{
		{"apartment", 6, -2, 8},
		{"street", 1, -2, 1},
		{"park", 1, -2, 1},
		{"underground", 1, -4, 0},
	} {
		for height := tt.low; height < tt.high; height++ {
			for _, rot := range []models.Side{models.SideUp, models.SideRight, models.SideDown, models.SideLeft} {
				req := Request{
					Name:       tt.name,
					Height:     height,
					Levels:     tt.levels,
					Rotation:   rot,
					Difficulty: float64(height+4) / 2,
				}
				chunk, err := g.Generate(context.Background(), req)
				require.NoError(t, err, "%s at %d facing %s", tt.name, height, rot)
				assert.Len(t, chunk.Tiles, 256)
			}
		}
	}
}

func TestGenerateLobbyDoor(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	chunk, err := g.Generate(context.Background(), Request{Name: "apartment", Levels: 6, Rotation: models.SideUp})
	require.NoError(t, err)

	door, ok := chunk.At(8, 15)
	require.True(t, ok)
	require.True(t, door.IsMarker())
	last := door.Markers[len(door.Markers)-1]
	assert.Equal(t, models.MarkerDoor, last.Kind)
	assert.Equal(t, models.SideDown, last.Side)
	assert.Equal(t, "metal", last.Material)
	assert.Equal(t, "closed", last.State)
}

func TestGenerateOutsideBuilding(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	for _, height := range []int{-1, 6, 9} {
		chunk, err := g.Generate(context.Background(), Request{Name: "apartment", Height: height, Levels: 6})
		require.NoError(t, err)
		for _, c := range chunk.Tiles {
			require.Equal(t, models.TileAir, c.ID)
		}
	}
}

func TestGenerateContractViolation(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(Config{Scripts: fstest.MapFS{
		"number.scm":  {Data: []byte("42")},
		"short.scm":   {Data: []byte("(make-vector 3 (tile 'air))")},
		"mixed.scm":   {Data: []byte("(let ((c (air-chunk))) (vector-set! c 5 'grass) c)")},
		"nothing.scm": {Data: []byte("'()")},
		"fine.scm":    {Data: []byte("(air-chunk)")},
	}})
	require.NoError(t, err)

	for _, name := range []string{"number", "short", "mixed", "nothing"} {
		_, err := g.Generate(context.Background(), Request{Name: name})
		assert.ErrorIs(t, err, ErrContractViolation, name)
	}

	chunk, err := g.Generate(context.Background(), Request{Name: "fine"})
	require.NoError(t, err)
	assert.Len(t, chunk.Tiles, 256)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)

	_, err := g.Generate(context.Background(), Request{Name: "castle"})
	assert.ErrorIs(t, err, ErrUnknownChunk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, Request{Name: "street"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewGenerator(Config{Scripts: fstest.MapFS{"broken.scm": {Data: []byte("(define")}}})
	assert.ErrorIs(t, err, lisp.ErrSyntax)
}

func TestSeed(t *testing.T) {
	t.Parallel()

	g := newGenerator(t)
	req := Request{Name: "street", X: 1, Y: 2}
	assert.Equal(t, g.Seed(req), g.Seed(req))

	other := req
	other.X = 2
	assert.NotEqual(t, g.Seed(req), g.Seed(other))

	other = req
	other.Name = "park"
	assert.NotEqual(t, g.Seed(req), g.Seed(other))
}
