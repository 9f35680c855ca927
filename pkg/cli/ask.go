package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var sessionID string
	var question string
	var requestID string
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID",
			Required:    true,
			Sources:     cli.EnvVars("MNEMOSYNE_SESSION"),
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "question",
			Aliases:     []string{"q"},
			Usage:       "Question about the document",
			Required:    true,
			Destination: &question,
		},
		&cli.StringFlag{
			Name:        "request-id",
			Usage:       "Client request ID; repeating it returns the recorded answer",
			Destination: &requestID,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "ask",
		Aliases: []string{"a"},
		Usage:   "Ask a question answered from the session's document",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			sc := model.SessionContext{
				SessionID: model.SessionID(sessionID),
				RequestID: requestID,
			}
			result, err := uc.Ask.Ask(ctx, sc, question)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			color.New(color.FgGreen, color.Bold).Fprintln(w, "Answer:")
			fmt.Fprintln(w, result.Answer)
			if result.Justification != "" {
				color.New(color.FgYellow, color.Bold).Fprintln(w, "Justification:")
				fmt.Fprintln(w, result.Justification)
			}
			return nil
		},
	}
}
