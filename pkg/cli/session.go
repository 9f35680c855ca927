package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSession() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage sessions",
		Commands: []*cli.Command{
			cmdSessionList(),
			cmdSessionDelete(),
		},
	}
}

func cmdSessionList() *cli.Command {
	var appCfg appConfig

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List sessions, most recently updated first",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			sessions, err := uc.Session.List(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions.")
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDOCUMENT\tCHUNKS\tQUESTIONS\tUPDATED")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					s.ID, s.Name, s.DocumentName, s.ChunkCount, len(s.AskHistory),
					s.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func cmdSessionDelete() *cli.Command {
	var sessionID string
	var appCfg appConfig

	flags := []cli.Flag{sessionFlag(&sessionID)}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Usage:   "Delete a session and its indexed chunks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if err := uc.Session.Delete(ctx, model.SessionID(sessionID)); err != nil {
				return err
			}

			logging.Default().Info("Session deleted", "session_id", sessionID)
			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", sessionID)
			return nil
		},
	}
}
