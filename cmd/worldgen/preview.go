package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/xyproto/vt"

	"terminus-realm/worldgen/logutil"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/worldgen"
)

const (
	minHeight     = -5
	maxHeight     = 20
	maxDifficulty = 5.0
)

var previewCmd = &cli.Command{
	Name:  "preview",
	Usage: "draw a chunk in the terminal",
	Description: `Keys: up/down or k/j change height, [ and ] change difficulty,
r rotates, n moves to the next chunk and q quits. Without a terminal the
chunk is printed once as text.`,
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "plain",
			Usage: "print the chunk as text instead of drawing it",
		},
	}, chunkFlags...),
	Action: preview,
}

type glyph struct {
	r  rune
	fg vt.AttributeColor
}

var glyphs = map[string]glyph{
	"air":           {' ', vt.LightGray},
	"concrete":      {'.', vt.LightGray},
	"asphalt":       {'.', vt.Blue},
	"sidewalk":      {':', vt.LightGray},
	"grass":         {',', vt.LightGreen},
	"dirt":          {'.', vt.Yellow},
	"sand":          {':', vt.Yellow},
	"water":         {'~', vt.Blue},
	"tree":          {'T', vt.Green},
	"bush":          {'*', vt.Green},
	"wood_floor":    {'_', vt.Yellow},
	"tile_floor":    {'+', vt.White},
	"carpet":        {'_', vt.Magenta},
	"concrete_wall": {'#', vt.LightGray},
	"brick_wall":    {'#', vt.LightRed},
	"wood_wall":     {'#', vt.Yellow},
	"glass":         {'=', vt.Cyan},
	"fence":         {'|', vt.LightGray},
	"stairs_up":     {'<', vt.White},
	"stairs_down":   {'>', vt.White},
	"roof":          {'^', vt.Red},
	"roof_coping":   {'^', vt.LightRed},
	"metal_floor":   {'_', vt.Cyan},
	"rubble":        {'%', vt.LightGray},
}

var markerGlyphs = map[models.MarkerKind]glyph{
	models.MarkerDoor:      {'D', vt.Yellow},
	models.MarkerLight:     {'o', vt.White},
	models.MarkerFurniture: {'&', vt.Magenta},
	models.MarkerEnemy:     {'Z', vt.Red},
}

// glyphOf picks the glyph of the first marker, or of the base tile
func glyphOf(t models.Tile) glyph {
	if t.IsMarker() {
		if g, ok := markerGlyphs[t.Markers[0].Kind]; ok {
			return g
		}
		return glyph{'?', vt.Red}
	}
	if g, ok := glyphs[t.Name]; ok {
		return g
	}
	return glyph{'?', vt.LightGray}
}

func preview(c *cli.Context) error {
	g, err := newGenerator(c, io.Discard)
	if err != nil {
		return err
	}

	req, err := request(c)
	if err != nil {
		return err
	}

	if c.Bool("plain") {
		return renderOnce(c, g, req)
	}

	tty, err := vt.NewTTY()
	if err != nil {
		logutil.New(c).WithError(err).Debug("no terminal, printing as text")
		return renderOnce(c, g, req)
	}
	defer tty.Close()

	return (&viewer{c: c, gen: g, req: req}).run(tty)
}

func renderOnce(c *cli.Context, g *worldgen.Generator, req worldgen.Request) error {
	chunk, err := g.Generate(c.Context, req)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(c.App.Writer)
	fmt.Fprintln(w, caption(req))
	render(w, chunk)
	return w.Flush()
}

// render writes the chunk as rows of glyphs, top row first
func render(w io.Writer, chunk *models.Chunk) {
	var row strings.Builder
	for y := 0; y < chunk.SizeY; y++ {
		row.Reset()
		for x := 0; x < chunk.SizeX; x++ {
			row.WriteRune(glyphOf(chunk.Tiles[y*chunk.SizeX+x]).r)
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}
}

func caption(req worldgen.Request) string {
	return fmt.Sprintf("%s (%d,%d) height %d/%d facing %s difficulty %.1f",
		req.Name, req.X, req.Y, req.Height, req.Levels, req.Rotation, req.Difficulty)
}

type viewer struct {
	c   *cli.Context
	gen *worldgen.Generator
	req worldgen.Request

	chunk  *models.Chunk
	status string
}

func (v *viewer) run(tty *vt.TTY) error {
	vt.Init()
	defer func() {
		vt.Close()
		fmt.Print(vt.Stop())
		fmt.Println()
	}()

	canvas := vt.NewCanvas()
	canvas.HideCursor()
	tty.SetTimeout(50 * time.Millisecond)

	v.regenerate()
	v.draw(canvas)

	for {
		select {
		case <-v.c.Context.Done():
			return nil
		default:
		}

		key := tty.CustomString()
		if key == "" {
			continue
		}
		if !v.handle(key) {
			return nil
		}

		v.regenerate()
		v.draw(canvas)
	}
}

// handle applies one key press to the request and reports whether to
// keep running.
func (v *viewer) handle(key string) bool {
	switch key {
	case "q", "Q", "\x1b":
		return false
	case "k", "+", "\x1b[A", "c:253", "c:259":
		v.req.Height = min(v.req.Height+1, maxHeight-1)
	case "j", "-", "\x1b[B", "c:255", "c:258":
		v.req.Height = max(v.req.Height-1, minHeight)
	case "]":
		v.req.Difficulty = min(v.req.Difficulty+0.5, maxDifficulty)
	case "[":
		v.req.Difficulty = max(v.req.Difficulty-0.5, 0)
	case "r":
		v.req.Rotation = v.req.Rotation.Combine(models.SideRight)
	case "n":
		v.req.X++
	}
	return true
}

func (v *viewer) regenerate() {
	chunk, err := v.gen.Generate(v.c.Context, v.req)
	if err != nil {
		v.status = err.Error()
		return
	}
	v.chunk, v.status = chunk, caption(v.req)
}

func (v *viewer) draw(canvas *vt.Canvas) {
	canvas.Clear()
	w, h := canvas.Size()
	if h == 0 {
		return
	}

	if v.chunk != nil {
		for y := 0; y < v.chunk.SizeY && uint(y) < h-1; y++ {
			for x := 0; x < v.chunk.SizeX && uint(2*x+1) < w; x++ {
				g := glyphOf(v.chunk.Tiles[y*v.chunk.SizeX+x])
				canvas.WriteRune(uint(2*x), uint(y), g.fg, vt.DefaultBackground, g.r)
			}
		}
	}

	status := v.status
	if len(status) > int(w) {
		status = status[:w]
	}
	canvas.WriteString(0, h-1, vt.LightGray, vt.DefaultBackground, status)
	canvas.Draw()
}
