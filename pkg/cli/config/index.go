package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/repository/chromem"
	"github.com/secmon-lab/mnemosyne/pkg/repository/firestore"
	"github.com/secmon-lab/mnemosyne/pkg/repository/memory"
	"github.com/secmon-lab/mnemosyne/pkg/repository/postgres"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Index holds CLI flags for the vector store
type Index struct {
	backend         string
	chromemDir      string
	chromemCompress bool
}

// Flags returns CLI flags for vector index configuration
func (x *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-backend",
			Usage:       "Vector index backend (chromem, firestore, postgres, or memory which is lost on exit)",
			Value:       BackendChromem,
			Category:    "Storage",
			Sources:     cli.EnvVars("MNEMOSYNE_INDEX_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "chromem-dir",
			Usage:       "Directory of the persistent chromem index",
			Value:       DefaultDataDir + "/index",
			Category:    "Storage",
			Sources:     cli.EnvVars("MNEMOSYNE_CHROMEM_DIR"),
			Destination: &x.chromemDir,
		},
		&cli.BoolFlag{
			Name:        "chromem-compress",
			Usage:       "Compress chromem files with gzip",
			Category:    "Storage",
			Sources:     cli.EnvVars("MNEMOSYNE_CHROMEM_COMPRESS"),
			Destination: &x.chromemCompress,
		},
	}
}

// LogAttrs returns log attributes for the index configuration
func (x *Index) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", x.backend),
		slog.String("chromem_dir", x.chromemDir),
	}
}

// Configure opens the vector store. Connection settings of the Firestore and
// Postgres backends are taken from repo. The caller must Close() the store.
func (x *Index) Configure(ctx context.Context, repo *Repository) (interfaces.VectorStore, error) {
	switch x.backend {
	case BackendChromem:
		store, err := chromem.New(x.chromemDir, x.chromemCompress)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open chromem index", goerr.V("dir", x.chromemDir))
		}
		logging.Default().Info("Using chromem vector index", "dir", x.chromemDir)
		return store, nil

	case BackendFirestore:
		if repo.projectID == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore index")
		}
		store, err := firestore.NewVectorStore(ctx, repo.projectID, repo.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore vector index")
		}
		logging.Default().Info("Using Firestore vector index", "project_id", repo.projectID)
		return store, nil

	case BackendPostgres:
		if repo.postgresDSN == "" {
			return nil, goerr.New("postgres-dsn is required when using postgres index")
		}
		store, err := postgres.NewVectorStore(ctx, repo.postgresDSN)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize postgres vector index")
		}
		logging.Default().Info("Using Postgres vector index")
		return store, nil

	case BackendMemory:
		logging.Default().Warn("Using in-memory vector index; chunks are lost when the process exits")
		return memory.NewVectorStore(), nil

	default:
		return nil, goerr.New("invalid index backend", goerr.V("backend", x.backend))
	}
}
