package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

func (r *sessionRepository) Put(ctx context.Context, session *model.Session) error {
	if session == nil || session.ID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "session ID is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session", goerr.V(model.SessionIDKey, session.ID))
	}

	const query = `
		INSERT INTO mnemosyne_sessions (id, data, updated_at)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.pool.Exec(ctx, query, string(session.ID), string(data), session.UpdatedAt); err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.V(model.SessionIDKey, session.ID))
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM mnemosyne_sessions WHERE id = $1`, string(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V(model.SessionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, id))
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V(model.SessionIDKey, id))
	}
	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM mnemosyne_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	sessions := make([]*model.Session, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, goerr.Wrap(err, "failed to scan session")
		}
		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal session")
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id model.SessionID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM mnemosyne_sessions WHERE id = $1`, string(id)); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V(model.SessionIDKey, id))
	}
	return nil
}
