package chromem

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/philippgille/chromem-go"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

const (
	sessionCollectionPrefix = "meta-"
	sessionDocumentID       = "session"
)

// sessionVector is the fixed embedding of session documents. They are
// looked up by collection, never by similarity.
var sessionVector = []float32{1}

// Repository stores session metadata in a persistent chromem database, one
// single-document collection per session. It needs no external service.
type Repository struct {
	session *sessionRepository
}

var _ interfaces.Repository = &Repository{}

// NewRepository opens (or creates) the session database at dir. Use a
// directory separate from the vector index.
func NewRepository(dir string, compress bool) (*Repository, error) {
	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open chromem session database", goerr.V("dir", dir))
	}
	return &Repository{session: &sessionRepository{db: db}}, nil
}

func (r *Repository) Session() interfaces.SessionRepository {
	return r.session
}

func (r *Repository) Close() error {
	return nil
}

type sessionRepository struct {
	db *chromem.DB
}

func sessionCollectionName(id model.SessionID) string {
	return sessionCollectionPrefix + string(id)
}

func (r *sessionRepository) Put(ctx context.Context, session *model.Session) error {
	if session == nil || session.ID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "session ID is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session", goerr.V(model.SessionIDKey, session.ID))
	}

	col, err := r.db.GetOrCreateCollection(sessionCollectionName(session.ID), nil, precomputed)
	if err != nil {
		return goerr.Wrap(err, "failed to get or create session collection", goerr.V(model.SessionIDKey, session.ID))
	}

	// the fixed document ID makes this an overwrite
	doc := chromem.Document{
		ID:        sessionDocumentID,
		Embedding: sessionVector,
		Content:   string(data),
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.V(model.SessionIDKey, session.ID))
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	session, err := r.load(ctx, r.db.GetCollection(sessionCollectionName(id), precomputed))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, id))
	}
	if session == nil {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V(model.SessionIDKey, id))
	}
	return session, nil
}

// load reads the session document of col. A missing collection or document
// yields nil without error.
func (r *sessionRepository) load(ctx context.Context, col *chromem.Collection) (*model.Session, error) {
	if col == nil || col.Count() == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, sessionVector, 1, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session document")
	}
	if len(results) == 0 {
		return nil, nil
	}

	var session model.Session
	if err := json.Unmarshal([]byte(results[0].Content), &session); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	sessions := make([]*model.Session, 0)
	for name, col := range r.db.ListCollections() {
		if !strings.HasPrefix(name, sessionCollectionPrefix) {
			continue
		}
		session, err := r.load(ctx, col)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list sessions", goerr.V("collection", name))
		}
		if session != nil {
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id model.SessionID) error {
	name := sessionCollectionName(id)
	if r.db.GetCollection(name, precomputed) == nil {
		return nil
	}
	if err := r.db.DeleteCollection(name); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V(model.SessionIDKey, id))
	}
	return nil
}
