package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS mnemosyne_sessions (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS mnemosyne_chunks (
	session_id TEXT NOT NULL,
	id         TEXT NOT NULL,
	idx        INTEGER NOT NULL,
	content    TEXT NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
	embedding  vector NOT NULL,
	PRIMARY KEY (session_id, id)
);

CREATE INDEX IF NOT EXISTS idx_mnemosyne_chunks_session ON mnemosyne_chunks(session_id);
`

// connect opens a pool, checks connectivity and makes sure the schema exists
func connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to apply postgres schema")
	}

	return pool, nil
}

// Postgres is a Repository storing session metadata as JSONB rows
type Postgres struct {
	pool    *pgxpool.Pool
	session *sessionRepository
}

var _ interfaces.Repository = &Postgres{}

func New(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{
		pool:    pool,
		session: &sessionRepository{pool: pool},
	}, nil
}

func (p *Postgres) Session() interfaces.SessionRepository {
	return p.session
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
