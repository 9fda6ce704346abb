package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lthibault/log"
	"github.com/thejerf/suture/v4"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"terminus-realm/worldgen/handlers"
	"terminus-realm/worldgen/logutil"
	"terminus-realm/worldgen/loot"
	"terminus-realm/worldgen/metrics"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
	"terminus-realm/worldgen/services"
	"terminus-realm/worldgen/worldgen"
)

func serve(c *cli.Context) error {
	var app = fx.New(fx.NopLogger,
		fx.Supply(c),
		fx.Provide(
			logger,
			newMetrics,
			storage,
			generator,
			lootTable,
			services.NewEntityRegistry,
			chunkManager,
			worldService,
			playerService,
			clientManager,
			supervisor,
			newServices),
		fx.Invoke(bind))

	if err := start(c, app); err != nil {
		return err
	}

	<-app.Done()

	return shutdown(app)
}

func start(c *cli.Context, app *fx.App) error {
	ctx, cancel := context.WithTimeout(c.Context, time.Second*15)
	defer cancel()

	return app.Start(ctx)
}

func shutdown(app *fx.App) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()

	if err = app.Stop(ctx); err == context.Canceled {
		err = nil
	}

	return
}

// Config declares dependencies that are dynamically resolved at
// runtime.
type Config struct {
	fx.In

	Lifecycle fx.Lifecycle

	Logger     log.Logger
	Supervisor *suture.Supervisor
	Services   []suture.Service `group:"services"`
}

func bind(c *cli.Context, config Config) {
	ctx, cancel := context.WithCancel(c.Context) // cancelled by stop hook

	for _, service := range config.Services {
		config.Supervisor.Add(service)
	}

	var cherr <-chan error

	config.Lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			cherr = config.Supervisor.ServeBackground(ctx) // NOTE: application context

			config.Logger.
				WithField("port", c.String("port")).
				Info("server started")

			return nil
		},
		OnStop: func(ctx context.Context) (err error) {
			cancel()

			select {
			case err = <-cherr:
				if err == context.Canceled {
					err = nil
				}
				return err

			case <-ctx.Done():
				return fmt.Errorf("shutdown: %w", ctx.Err())
			}
		},
	})
}

//
// Dependency declarations
//

func logger(c *cli.Context) log.Logger {
	return logutil.New(c)
}

func newMetrics(c *cli.Context, log log.Logger, lx fx.Lifecycle) metrics.Metrics {
	m := metrics.New(c.String("statsd"), log)
	lx.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	return m
}

func storage(c *cli.Context, log log.Logger, lx fx.Lifecycle) (db persistence.Storage, err error) {
	switch kind := c.String("db-type"); kind {
	case "postgres":
		db, err = persistence.NewPostgresStore(c.String("database-url"), log)
	case "memory":
		db = persistence.NewMemoryStore()
	case "badger":
		db, err = persistence.NewBadgerStore(c.Path("data"), log)
	case "json":
		db, err = persistence.NewJSONStore(c.Path("db-file"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize persistence: %w", err)
	}

	log.WithField("db_type", c.String("db-type")).Info("persistence initialized")
	lx.Append(closer(db))
	return db, nil
}

func generator(c *cli.Context, log log.Logger) (*worldgen.Generator, error) {
	cfg := worldgen.Config{
		Seed:   c.Int64("seed"),
		Tiles:  models.DefaultTileMap(),
		Output: logWriter{log.WithField("source", "chunk script")},
	}
	if c.IsSet("scripts") {
		cfg.Scripts = os.DirFS(c.Path("scripts"))
	}

	g, err := worldgen.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}

	log.WithField("scripts", g.Names()).Debug("chunk scripts loaded")
	return g, nil
}

func lootTable(c *cli.Context) (*loot.Table, error) {
	return loot.NewTable(loot.WithSeed(c.Int64("seed")))
}

func chunkManager(c *cli.Context, g *worldgen.Generator, db persistence.Storage, log log.Logger, m metrics.Metrics) *services.ChunkManager {
	return services.NewChunkManager(services.ChunkManagerConfig{
		Generator:    g,
		Store:        db,
		Seed:         c.Int64("seed"),
		Workers:      c.Int("workers"),
		BufferRadius: c.Int("radius"),
		Logger:       log,
		Metrics:      m,
	})
}

type worldConfig struct {
	fx.In

	Chunks   *services.ChunkManager
	Entities *services.EntityRegistry
	Loot     *loot.Table
	Store    persistence.Storage
	Log      log.Logger
	Metrics  metrics.Metrics
}

func worldService(c *cli.Context, config worldConfig) *services.WorldService {
	return services.NewWorldService(services.WorldServiceConfig{
		Chunks:   config.Chunks,
		Entities: config.Entities,
		Loot:     config.Loot,
		Store:    config.Store,
		Logger:   config.Log,
		Metrics:  config.Metrics,
		Seed:     c.Int64("seed"),
	})
}

func playerService(world *services.WorldService, db persistence.Storage, log log.Logger) *services.PlayerService {
	return services.NewPlayerService(world, db, log)
}

func clientManager(log log.Logger) *handlers.ClientManager {
	return handlers.NewClientManager(log)
}

func supervisor(c *cli.Context, log log.Logger) *suture.Supervisor {
	return suture.New(c.App.Name, suture.Spec{
		EventHook: logutil.NewEventHook(log),
	})
}

func closer(c io.Closer) fx.Hook {
	return fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	}
}

// logWriter forwards script output to the log, one entry per write
type logWriter struct{ log.Logger }

func (w logWriter) Write(p []byte) (int, error) {
	w.Debug(string(p))
	return len(p), nil
}
