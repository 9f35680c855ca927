package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// VectorStore keeps chunks in a pgvector column and ranks them with the
// cosine distance operator
type VectorStore struct {
	pool *pgxpool.Pool
}

var _ interfaces.VectorStore = &VectorStore{}

func NewVectorStore(ctx context.Context, dsn string) (*VectorStore, error) {
	pool, err := connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &VectorStore{pool: pool}, nil
}

func (s *VectorStore) Upsert(ctx context.Context, sessionID model.SessionID, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	const query = `
		INSERT INTO mnemosyne_chunks (session_id, id, idx, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::vector)
		ON CONFLICT (session_id, id) DO UPDATE SET
			idx = EXCLUDED.idx,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`

	batch := &pgx.Batch{}
	for _, c := range chunks {
		metadata := c.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		raw, err := json.Marshal(metadata)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal chunk metadata", goerr.V("chunkID", c.ID))
		}
		batch.Queue(query, string(sessionID), c.ID, c.Index, c.Text, string(raw), pgvector.NewVector(c.Embedding))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction", goerr.V(model.SessionIDKey, sessionID))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, batch)
	for i := range chunks {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return goerr.Wrap(err, "failed to upsert chunk",
				goerr.V(model.SessionIDKey, sessionID), goerr.V("chunkID", chunks[i].ID))
		}
	}
	if err := br.Close(); err != nil {
		return goerr.Wrap(err, "failed to close batch", goerr.V(model.SessionIDKey, sessionID))
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, sessionID model.SessionID, embedding []float32, k int) ([]*model.Chunk, error) {
	if k <= 0 {
		return []*model.Chunk{}, nil
	}

	const query = `
		SELECT id, idx, content, metadata, 1 - (embedding <=> $2::vector) AS score
		FROM mnemosyne_chunks
		WHERE session_id = $1
		ORDER BY embedding <=> $2::vector, idx
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, string(sessionID), pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	defer rows.Close()

	results := make([]*model.Chunk, 0, k)
	for rows.Next() {
		var (
			c   model.Chunk
			raw []byte
		)
		if err := rows.Scan(&c.ID, &c.Index, &c.Text, &raw, &c.Score); err != nil {
			return nil, goerr.Wrap(err, "failed to scan chunk")
		}
		if err := json.Unmarshal(raw, &c.Metadata); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk metadata", goerr.V("chunkID", c.ID))
		}
		c.SessionID = sessionID
		results = append(results, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate chunks", goerr.V(model.SessionIDKey, sessionID))
	}

	return results, nil
}

func (s *VectorStore) Count(ctx context.Context, sessionID model.SessionID) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM mnemosyne_chunks WHERE session_id = $1`, string(sessionID)).Scan(&n); err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	return n, nil
}

func (s *VectorStore) DeleteSession(ctx context.Context, sessionID model.SessionID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM mnemosyne_chunks WHERE session_id = $1`, string(sessionID)); err != nil {
		return goerr.Wrap(err, "failed to delete chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	return nil
}

func (s *VectorStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
