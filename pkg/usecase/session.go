package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/index"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

type SessionUseCase struct {
	repo  interfaces.Repository
	index *index.Index
	now   func() time.Time
}

func NewSessionUseCase(repo interfaces.Repository, idx *index.Index, now func() time.Time) *SessionUseCase {
	return &SessionUseCase{
		repo:  repo,
		index: idx,
		now:   now,
	}
}

func (uc *SessionUseCase) Create(ctx context.Context, name string) (*model.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionName
	}

	now := uc.now()
	session := &model.Session{
		ID:        model.NewSessionID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Session().Put(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to create session")
	}

	logging.From(ctx).Info("session created", "session_id", session.ID, "name", name)
	return session, nil
}

func (uc *SessionUseCase) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	session, err := uc.repo.Session().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, id))
	}
	return session, nil
}

// List returns all sessions, most recently updated first
func (uc *SessionUseCase) List(ctx context.Context) ([]*model.Session, error) {
	sessions, err := uc.repo.Session().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}
	return sessions, nil
}

func (uc *SessionUseCase) Rename(ctx context.Context, id model.SessionID, name string) (*model.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "session name is required", goerr.V(model.SessionIDKey, id))
	}

	session, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Name = name
	session.UpdatedAt = uc.now()
	if err := uc.repo.Session().Put(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to rename session", goerr.V(model.SessionIDKey, id))
	}
	return session, nil
}

// Delete removes the session's chunks first and then its metadata, so a
// failure never leaves chunks without an owning session. Deleting an
// unknown session succeeds.
func (uc *SessionUseCase) Delete(ctx context.Context, id model.SessionID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	if err := uc.index.DeleteSession(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete session chunks", goerr.V(model.SessionIDKey, id))
	}
	if err := uc.repo.Session().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V(model.SessionIDKey, id))
	}

	logging.From(ctx).Info("session deleted", "session_id", id)
	return nil
}
