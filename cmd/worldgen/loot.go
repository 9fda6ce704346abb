package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"terminus-realm/worldgen/loot"
)

var lootCmd = &cli.Command{
	Name:      "loot",
	Usage:     "roll drops from a loot table entry",
	ArgsUsage: "<entry>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "state",
			Usage: "drop `list`: create, destroy or equip",
			Value: string(loot.StateCreate),
		},
		&cli.Float64Flag{
			Name:  "difficulty",
			Usage: "difficulty `value` from 0",
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random `seed`",
			DefaultText: "time based",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "roll `n` times",
			Value:   1,
		},
		&cli.PathFlag{
			Name:        "tables",
			Usage:       "load loot tables from `file`",
			DefaultText: "built-in",
		},
		&cli.BoolFlag{
			Name:  "list",
			Usage: "list table entries and exit",
		},
	},
	Action: rollLoot,
}

func rollLoot(c *cli.Context) error {
	var opts []loot.Option
	if c.IsSet("seed") {
		opts = append(opts, loot.WithSeed(c.Int64("seed")))
	}
	if c.IsSet("tables") {
		src, err := os.ReadFile(c.Path("tables"))
		if err != nil {
			return err
		}
		opts = append(opts, loot.WithSource(string(src)))
	}

	table, err := loot.NewTable(opts...)
	if err != nil {
		return err
	}

	if c.Bool("list") {
		names, err := table.Names()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(c.App.Writer, name)
		}
		return nil
	}

	if c.NArg() != 1 {
		return cli.Exit("expected exactly one loot entry name", 2)
	}

	state, err := loot.ParseState(c.String("state"))
	if err != nil {
		return err
	}

	for i := 0; i < c.Int("count"); i++ {
		items, err := table.Create(c.Context, c.Args().First(), state, c.Float64("difficulty"))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, strings.Join(items, ", "))
	}

	return nil
}
