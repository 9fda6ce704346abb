package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/lthibault/log"
	"github.com/thejerf/suture/v4"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"terminus-realm/worldgen/handlers"
	"terminus-realm/worldgen/services"
)

type serverServices struct {
	fx.Out

	HTTP     suture.Service `group:"services"`
	Autosave suture.Service `group:"services"`
}

type serviceConfig struct {
	fx.In

	Log     log.Logger
	Players *services.PlayerService
	World   *services.WorldService
	Clients *handlers.ClientManager
}

func newServices(c *cli.Context, config serviceConfig) serverServices {
	mux := http.NewServeMux()
	mux.Handle("/ws", handlers.NewWebsocketHandler(config.Players, config.World, config.Clients, config.Log))

	return serverServices{
		HTTP: httpService{
			addr:    ":" + c.String("port"),
			handler: mux,
			log:     config.Log,
		},
		Autosave: autosave{
			interval: c.Duration("autosave"),
			players:  config.Players,
			chunks:   config.World.Chunks(),
			log:      config.Log,
		},
	}
}

// httpService serves websocket clients until its context ends
type httpService struct {
	addr    string
	handler http.Handler
	log     log.Logger
}

func (s httpService) String() string { return "http" }

func (s httpService) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     s.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.log.WithField("addr", s.addr).Info("listening")

	select {
	case err := <-errc:
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return suture.ErrDoNotRestart
	}
}

// autosave periodically writes players and generated chunks to storage
type autosave struct {
	interval time.Duration
	players  *services.PlayerService
	chunks   *services.ChunkManager
	log      log.Logger
}

func (a autosave) String() string { return "autosave" }

func (a autosave) Serve(ctx context.Context) error {
	if a.interval <= 0 {
		<-ctx.Done()
		return a.save()
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.save(); err != nil {
				return err
			}
		case <-ctx.Done():
			return a.save()
		}
	}
}

func (a autosave) save() error {
	if err := a.players.SaveAll(); err != nil {
		return err
	}
	if err := a.chunks.Flush(); err != nil {
		return err
	}

	a.log.Trace("autosaved")
	return nil
}
