package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

func sendCmd() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one message and print the reply",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "continue",
				Usage: "Conversation ID to add the exchange to",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if text == "" {
				return errors.New("a message is required")
			}

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if id := cmd.String("continue"); id != "" {
				if !a.controller.Select(id) {
					return fmt.Errorf("conversation %q not found", id)
				}
			}

			out, err := a.controller.Submit(ctx, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, out.Reply)
			if !out.OK {
				return cli.Exit("", 1)
			}
			a.logger.Info("exchange recorded", "conversation", out.ConversationID)
			return nil
		},
	}
}
