package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sonnes/parley/compact"
	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/render/terminal"
	"github.com/urfave/cli/v3"
)

var errNoStorage = errors.New("nothing is saved without --archive or --database-url")

func persistent(cmd *cli.Command) bool {
	return cmd.String("archive") != "" || cmd.String("database-url") != ""
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render saved conversations as a transcript",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Conversation ID to export (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every conversation",
			},
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, html, json",
				Value: "terminal",
			},
			&cli.BoolFlag{
				Name:  "no-redact",
				Usage: "Disable redaction of secrets and PII",
			},
			&cli.StringSliceFlag{
				Name:  "redact",
				Usage: "Allowlist of rules to redact. Example: --redact=secrets,pii",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "Apply the backend's history limits and shorten long messages",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !persistent(cmd) {
				return errNoStorage
			}

			rnd, err := renderer(cmd.String("o"))
			if err != nil {
				return err
			}

			var transformers []core.Transformer
			redactor, err := newRedactor(cmd)
			if err != nil {
				return err
			}
			if redactor != nil {
				transformers = append(transformers, redactor)
			}
			if cmd.Bool("compact") {
				transformers = append(transformers, compact.New(compact.DefaultConfig()))
				if t, ok := rnd.(*terminal.Renderer); ok {
					t.Compact = true
				}
			}

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			convs, err := selectConversations(a, cmd)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			for i := range convs {
				if err := core.Chain(&convs[i], transformers...); err != nil {
					return fmt.Errorf("transform: %w", err)
				}
				if err := rnd.Render(w, &convs[i]); err != nil {
					return fmt.Errorf("render: %w", err)
				}
			}
			return nil
		},
	}
}

// selectConversations resolves --id or --all. Exactly one must be set.
func selectConversations(a *app, cmd *cli.Command) ([]core.Conversation, error) {
	ids := cmd.StringSlice("id")
	all := cmd.Bool("all")

	switch {
	case len(ids) == 0 && !all:
		return nil, errors.New("one of --id or --all is required")
	case len(ids) > 0 && all:
		return nil, errors.New("only one of --id or --all may be specified")
	case all:
		return a.controller.List(), nil
	}

	out := make([]core.Conversation, 0, len(ids))
	for _, id := range ids {
		c, ok := a.controller.Get(id)
		if !ok {
			return nil, fmt.Errorf("conversation %q not found", id)
		}
		out = append(out, c)
	}
	return out, nil
}
