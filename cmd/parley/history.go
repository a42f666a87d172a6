package main

import (
	"context"
	"fmt"

	jsonrender "github.com/sonnes/parley/render/json"
	"github.com/sonnes/parley/render/terminal"
	"github.com/urfave/cli/v3"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saved conversations, most recent first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, json",
				Value: "terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !persistent(cmd) {
				return errNoStorage
			}

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.Root().Writer
			summaries := a.controller.Summaries()
			switch o := cmd.String("o"); o {
			case "terminal":
				return terminal.New().RenderList(w, summaries, "")
			case "json":
				return (&jsonrender.Renderer{Indent: true}).RenderList(w, summaries)
			default:
				return fmt.Errorf("unknown output format %q", o)
			}
		},
	}
}
