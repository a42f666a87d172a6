package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/sonnes/parley/chat"
	"github.com/sonnes/parley/keywords"
	"github.com/sonnes/parley/render/terminal"
	"github.com/sonnes/parley/tui"
	"github.com/urfave/cli/v3"
)

func chatCmd() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Open the terminal chat app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file while the app is open",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// Log lines would tear the alternate screen.
			if path := cmd.String("log-file"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				log.SetOutput(f)
			} else {
				log.SetOutput(io.Discard)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			view := terminal.NewTranscript()
			a, err := newApp(ctx, cmd, chat.WithView(view))
			if err != nil {
				return err
			}
			defer a.Close()

			m := tui.New(a.controller, view, keywords.New(), tui.WithLogger(a.logger))
			return tui.Run(ctx, m)
		},
	}
}
