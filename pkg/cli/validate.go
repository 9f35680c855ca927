package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/service/index"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var checkDB bool
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "check-db",
			Usage:       "Also check that session chunk counts match the vector index",
			Destination: &checkDB,
		},
	}
	flags = append(flags, appCfg.rag.Flags()...)
	flags = append(flags, appCfg.repo.Flags()...)
	flags = append(flags, appCfg.index.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate the RAG configuration
			ragCfg, err := appCfg.rag.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			logger.Info("Configuration validation passed",
				"chunk_size", ragCfg.ChunkSize,
				"chunk_overlap", ragCfg.ChunkOverlap,
				"top_k", ragCfg.TopK,
			)

			// Step 2: Optionally compare sessions against the vector index
			if !checkDB {
				return nil
			}

			st, err := appCfg.openStorage(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			// counting needs no embedder
			sessionUC := usecase.NewSessionUseCase(st.repo, index.New(nil, st.store), time.Now)
			result, err := sessionUC.ValidateDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if result.HasIssues() {
				for _, issue := range result.Issues {
					logger.Warn("DB consistency issue found",
						"session_id", issue.SessionID,
						"message", issue.Message,
						"expected", issue.Expected,
						"actual", issue.Actual,
					)
				}
				return goerr.New("DB consistency check found issues", goerr.V("count", len(result.Issues)))
			}

			logger.Info("DB consistency check passed", "sessions", result.Sessions)
			return nil
		},
	}
}
