package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/parley/reply"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:    "parley",
		Usage:   "Chat with the public art assistant from the terminal or a local web UI",
		Version: version,
		Description: `
                 _
  _ __  __ _ _ _| |___ _  _
 | '_ \/ _' | '_| / -_) || |
 | .__/\__,_|_| |_\___|\_, |
 |_|                   |__/

 A conversation with the backend, kept in order.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log",
				Usage:   "Log level: debug, info, warn, error",
				Value:   "error",
				Sources: cli.EnvVars("PARLEY_LOG"),
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "Chat backend URL",
				Value:   reply.DefaultEndpoint,
				Sources: cli.EnvVars("PARLEY_ENDPOINT"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for one backend request",
				Value:   reply.DefaultTimeout,
				Sources: cli.EnvVars("PARLEY_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "archive",
				Usage:   "JSON file that mirrors every conversation",
				Sources: cli.EnvVars("PARLEY_ARCHIVE"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres URL for conversation storage",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server to publish conversation events to",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "nats-token",
				Usage:   "NATS auth token",
				Sources: cli.EnvVars("NATS_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "otlp-endpoint",
				Usage:   "OTLP/HTTP collector for traces (host:port or URL)",
				Sources: cli.EnvVars("OTEL_EXPORTER_OTLP_ENDPOINT"),
			},
			&cli.BoolFlag{
				Name:  "redact-outgoing",
				Usage: "Redact secrets and PII from messages before they are sent",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			log.SetTimeFormat(time.Kitchen)
			return ctx, nil
		},
		Commands: []*cli.Command{
			chatCmd(),
			serveCmd(),
			sendCmd(),
			historyCmd(),
			exportCmd(),
		},
	}
}
