package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"terminus-realm/worldgen/logutil"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/worldgen"
)

var chunkFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "name",
		Aliases: []string{"n"},
		Usage:   "chunk script `name`",
		Value:   "apartment",
	},
	&cli.IntFlag{
		Name:  "x",
		Usage: "chunk x coordinate",
	},
	&cli.IntFlag{
		Name:  "y",
		Usage: "chunk y coordinate",
	},
	&cli.IntFlag{
		Name:  "height",
		Usage: "vertical `level`, negative below ground",
	},
	&cli.IntFlag{
		Name:  "levels",
		Usage: "building height in `levels`",
		Value: 5,
	},
	&cli.StringFlag{
		Name:  "rotation",
		Usage: "facing `side`: up, right, down or left",
		Value: "up",
	},
	&cli.Float64Flag{
		Name:  "difficulty",
		Usage: "difficulty `value` from 0",
	},
	&cli.Int64Flag{
		Name:    "seed",
		Usage:   "world `seed`",
		EnvVars: []string{"WORLD_SEED"},
	},
	&cli.PathFlag{
		Name:        "scripts",
		Usage:       "load chunk scripts from `dir`",
		DefaultText: "built-in",
		EnvVars:     []string{"SCRIPTS_DIR"},
	},
}

var generateCmd = &cli.Command{
	Name:   "generate",
	Usage:  "generate one chunk and print it as json",
	Flags:  chunkFlags,
	Action: generate,
}

func generate(c *cli.Context) error {
	g, err := newGenerator(c, c.App.ErrWriter)
	if err != nil {
		return err
	}

	req, err := request(c)
	if err != nil {
		return err
	}

	chunk, err := g.Generate(c.Context, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(chunk)
}

// newGenerator sends anything scripts display to out
func newGenerator(c *cli.Context, out io.Writer) (*worldgen.Generator, error) {
	cfg := worldgen.Config{
		Seed:   c.Int64("seed"),
		Output: out,
	}
	if c.IsSet("scripts") {
		cfg.Scripts = os.DirFS(c.Path("scripts"))
	}

	g, err := worldgen.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}

	logutil.New(c).
		WithField("scripts", g.Names()).
		Trace("generator ready")
	return g, nil
}

func request(c *cli.Context) (worldgen.Request, error) {
	rot, err := models.ParseSide(c.String("rotation"))
	if err != nil {
		return worldgen.Request{}, err
	}

	if c.Float64("difficulty") < 0 {
		return worldgen.Request{}, fmt.Errorf("difficulty must not be negative")
	}

	return worldgen.Request{
		Name:       c.String("name"),
		X:          c.Int("x"),
		Y:          c.Int("y"),
		Height:     c.Int("height"),
		Levels:     c.Int("levels"),
		Rotation:   rot,
		Difficulty: c.Float64("difficulty"),
	}, nil
}
