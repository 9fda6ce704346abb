package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/models"
)

// run executes the app. The commands share flag values, so callers do not
// run in parallel.
func run(t *testing.T, args ...string) string {
	t.Helper()

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	require.NoError(t, app.Run(append([]string{"worldgen", "--logfmt", "none"}, args...)), errOut.String())
	return out.String()
}

func TestGenerate(t *testing.T) {
	var chunk models.Chunk
	out := run(t, "generate", "--name", "street", "--x", "3", "--seed", "9")
	require.NoError(t, json.Unmarshal([]byte(out), &chunk))

	assert.Equal(t, "street", chunk.Name)
	assert.Equal(t, 3, chunk.X)
	assert.Len(t, chunk.Tiles, chunk.SizeX*chunk.SizeY)

	again := run(t, "generate", "--name", "street", "--x", "3", "--seed", "9")
	assert.Equal(t, out, again, "same flags must generate the same chunk")
}

func TestGenerateErrors(t *testing.T) {
	for _, args := range [][]string{
		{"generate", "--name", "castle"},
		{"generate", "--rotation", "sideways"},
		{"generate", "--difficulty", "-1"},
	} {
		app := newApp()
		app.Writer, app.ErrWriter = new(bytes.Buffer), new(bytes.Buffer)
		assert.Error(t, app.Run(append([]string{"worldgen"}, args...)), args)
	}
}

func TestPreviewPlain(t *testing.T) {
	out := run(t, "preview", "--plain", "--name", "apartment", "--levels", "5")
	lines := strings.Split(out, "\n")

	assert.Equal(t, "apartment (0,0) height 0/5 facing up difficulty 0.0", lines[0])
	assert.Equal(t, 1+16, strings.Count(out, "\n"))
	assert.Contains(t, out, "#")
}

func TestPreviewAboveBuilding(t *testing.T) {
	out := run(t, "preview", "--plain", "--name", "apartment", "--levels", "5", "--height", "9")

	caption := "apartment (0,0) height 9/5 facing up difficulty 0.0\n"
	assert.Equal(t, caption+strings.Repeat("\n", 16), out, "air renders blank")
}

func TestGlyphOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, '#', glyphOf(models.Tile{Name: "brick_wall"}).r)
	assert.Equal(t, 'Z', glyphOf(models.Tile{ID: -1, Markers: []models.Marker{{Kind: models.MarkerEnemy}}}).r)
	assert.Equal(t, '?', glyphOf(models.Tile{Name: "lava"}).r)
}

func TestViewerKeys(t *testing.T) {
	t.Parallel()

	v := &viewer{}
	v.req.Height = maxHeight - 1

	assert.True(t, v.handle("k"))
	assert.Equal(t, maxHeight-1, v.req.Height, "height is clamped")

	for i := 0; i < 20; i++ {
		v.handle("]")
	}
	assert.Equal(t, maxDifficulty, v.req.Difficulty)

	v.handle("r")
	assert.Equal(t, models.SideRight, v.req.Rotation)

	assert.False(t, v.handle("q"))
}

func TestLoot(t *testing.T) {
	out := run(t, "loot", "--state", "equip", "--count", "2", "tough_zombie")
	assert.Equal(t, "hard hat, work gloves\nhard hat, work gloves\n", out)

	list := run(t, "loot", "--list")
	assert.Contains(t, strings.Fields(list), "crate")
}

func TestLootTablesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.scm")
	require.NoError(t, os.WriteFile(path, []byte(`
(define (find-loot key)
  (if (eq? key 'pebble) (lambda () '(small_rock)) #f))
(define (loot-names) '(pebble))
`), 0o644))

	out := run(t, "loot", "--tables", path, "pebble")
	assert.Equal(t, "small rock\n", out)
}

func TestEval(t *testing.T) {
	assert.Equal(t, "3\n", run(t, "eval", "(+ 1 2)"))
	assert.Equal(t, "(16 . -2)\n", run(t, "eval", "--height", "-2", "(cons size-x height)"))

	path := filepath.Join(t.TempDir(), "script.scm")
	require.NoError(t, os.WriteFile(path, []byte("(define (sq x) (* x x))\n(sq 7)\n"), 0o644))
	assert.Equal(t, "49\n", run(t, "eval", "--file", path))
}

func TestEvalError(t *testing.T) {
	app := newApp()
	app.Writer, app.ErrWriter = new(bytes.Buffer), new(bytes.Buffer)
	err := app.Run([]string{"worldgen", "eval", "(undefined-thing)"})
	assert.ErrorContains(t, err, "undefined-thing")
}
