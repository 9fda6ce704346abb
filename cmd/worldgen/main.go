package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"terminus-realm/worldgen/logutil"
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(app.ErrWriter, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "worldgen",
		Usage: "author and inspect chunk, loot and entity scripts",
		Flags: logutil.Flags,
		Commands: []*cli.Command{
			generateCmd,
			previewCmd,
			lootCmd,
			replCmd,
			evalCmd,
		},
	}
}
