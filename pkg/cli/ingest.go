package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var name string
	var file string
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Path of the document to ingest (.pdf or .txt)",
			Required:    true,
			Destination: &file,
		},
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Session name (defaults to the file name)",
			Destination: &name,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Create a session and ingest a document into it",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			fileName := filepath.Base(file)
			if name == "" {
				name = fileName
			}

			session, err := uc.Session.Create(ctx, name)
			if err != nil {
				return err
			}

			ingested, err := uc.Document.Upload(ctx, model.SessionContext{SessionID: session.ID}, file, fileName)
			if err != nil {
				// do not leave an empty session behind
				if delErr := uc.Session.Delete(ctx, session.ID); delErr != nil {
					return goerr.Wrap(err, "failed to ingest document", goerr.V("cleanup_error", delErr.Error()))
				}
				return goerr.Wrap(err, "failed to ingest document", goerr.V("file", file))
			}

			w := c.Root().Writer
			label := color.New(color.FgCyan, color.Bold)
			label.Fprint(w, "Session: ")
			fmt.Fprintln(w, ingested.ID)
			label.Fprint(w, "Chunks:  ")
			fmt.Fprintln(w, ingested.ChunkCount)
			label.Fprintln(w, "Summary:")
			fmt.Fprintln(w, ingested.Summary)
			return nil
		},
	}
}
