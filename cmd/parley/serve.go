package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonnes/parley/keywords"
	"github.com/sonnes/parley/server"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the chat and history views in a local web UI",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   8080,
				Sources: cli.EnvVars("PARLEY_PORT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.client.Health(ctx); err != nil {
				a.logger.Warn("backend not reachable, replies will show an error until it is", "endpoint", a.client.Endpoint(), "err", err)
			} else {
				a.logger.Info("backend healthy", "endpoint", a.client.Endpoint())
			}

			srv := server.New(a.controller, keywords.New(),
				server.WithPort(int(cmd.Int("port"))),
				server.WithLogger(a.logger),
				server.WithBackendProbe(a.client.Health),
			)
			return srv.Start(ctx)
		},
	}
}
