package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"

	"terminus-realm/worldgen/logutil"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "port",
		Usage:   "listen for websocket clients on `PORT`",
		Value:   "8080",
		EnvVars: []string{"PORT"},
	},
	// Persistence
	&cli.StringFlag{
		Name:    "db-type",
		Usage:   "storage backend: json, postgres, memory or badger",
		Value:   "json",
		EnvVars: []string{"DB_TYPE"},
	},
	&cli.StringFlag{
		Name:    "database-url",
		Usage:   "postgres connection `DSN`",
		Value:   "host=localhost user=terminus password=terminus dbname=terminus_realm sslmode=disable",
		EnvVars: []string{"DATABASE_URL"},
	},
	&cli.PathFlag{
		Name:    "db-file",
		Usage:   "json store `path`",
		Value:   "db.json",
		EnvVars: []string{"DB_FILE"},
	},
	&cli.PathFlag{
		Name:    "data",
		Usage:   "badger store `dir`",
		Value:   "data",
		EnvVars: []string{"DATA_DIR"},
	},
	&cli.DurationFlag{
		Name:    "autosave",
		Usage:   "save players and chunks every `interval`",
		Value:   time.Minute,
		EnvVars: []string{"AUTOSAVE"},
	},
	// World generation
	&cli.PathFlag{
		Name:        "scripts",
		Usage:       "load chunk scripts from `dir`",
		DefaultText: "built-in",
		EnvVars:     []string{"SCRIPTS_DIR"},
	},
	&cli.Int64Flag{
		Name:    "seed",
		Usage:   "world `seed`",
		EnvVars: []string{"WORLD_SEED"},
	},
	&cli.IntFlag{
		Name:    "workers",
		Usage:   "generate at most `n` chunks at once",
		Value:   runtime.NumCPU(),
		EnvVars: []string{"CHUNK_WORKERS"},
	},
	&cli.IntFlag{
		Name:    "radius",
		Usage:   "keep chunks within `n` chunks of each player loaded",
		Value:   1,
		EnvVars: []string{"CHUNK_RADIUS"},
	},
	// Statsd
	&cli.StringFlag{
		Name:        "statsd",
		Usage:       "send metrics to udp `host:port`",
		DefaultText: "disabled",
		EnvVars:     []string{"STATSD"},
	},
}

func main() {
	app := &cli.App{
		Name:   "worldgen-server",
		Usage:  "serve a procedurally generated world over websockets",
		Flags:  append(flags, logutil.Flags...),
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(app.ErrWriter, err)
		os.Exit(1)
	}
}
