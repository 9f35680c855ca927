package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type askRecordDoc struct {
	RequestID     string    `firestore:"RequestID"`
	Question      string    `firestore:"Question"`
	Answer        string    `firestore:"Answer"`
	Justification string    `firestore:"Justification"`
	AskedAt       time.Time `firestore:"AskedAt"`
}

type sessionDoc struct {
	ID           string         `firestore:"ID"`
	Name         string         `firestore:"Name"`
	DocumentName string         `firestore:"DocumentName"`
	FileType     string         `firestore:"FileType"`
	FullText     string         `firestore:"FullText"`
	Summary      string         `firestore:"Summary"`
	AskHistory   []askRecordDoc `firestore:"AskHistory"`
	ChunkCount   int            `firestore:"ChunkCount"`
	CreatedAt    time.Time      `firestore:"CreatedAt"`
	UpdatedAt    time.Time      `firestore:"UpdatedAt"`
}

func toSessionDoc(s *model.Session) *sessionDoc {
	doc := &sessionDoc{
		ID:           string(s.ID),
		Name:         s.Name,
		DocumentName: s.DocumentName,
		FileType:     s.FileType,
		FullText:     s.FullText,
		Summary:      s.Summary,
		AskHistory:   make([]askRecordDoc, len(s.AskHistory)),
		ChunkCount:   s.ChunkCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	for i, rec := range s.AskHistory {
		doc.AskHistory[i] = askRecordDoc(rec)
	}
	return doc
}

func fromSessionDoc(d *sessionDoc) *model.Session {
	s := &model.Session{
		ID:           model.SessionID(d.ID),
		Name:         d.Name,
		DocumentName: d.DocumentName,
		FileType:     d.FileType,
		FullText:     d.FullText,
		Summary:      d.Summary,
		ChunkCount:   d.ChunkCount,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if len(d.AskHistory) > 0 {
		s.AskHistory = make([]model.AskRecord, len(d.AskHistory))
		for i, rec := range d.AskHistory {
			s.AskHistory[i] = model.AskRecord(rec)
		}
	}
	return s
}

type sessionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newSessionRepository(client *firestore.Client, prefix string) *sessionRepository {
	return &sessionRepository{
		client:           client,
		collectionPrefix: prefix,
	}
}

func (r *sessionRepository) sessions() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + sessionsCollection)
}

func (r *sessionRepository) Put(ctx context.Context, session *model.Session) error {
	if session == nil || session.ID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "session ID is required")
	}

	if _, err := r.sessions().Doc(string(session.ID)).Set(ctx, toSessionDoc(session)); err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.V(model.SessionIDKey, session.ID))
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	doc, err := r.sessions().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V(model.SessionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, id))
	}

	var d sessionDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V(model.SessionIDKey, id))
	}
	return fromSessionDoc(&d), nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	iter := r.sessions().OrderBy("UpdatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	sessions := make([]*model.Session, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sessions")
		}

		var d sessionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V(model.SessionIDKey, doc.Ref.ID))
		}
		sessions = append(sessions, fromSessionDoc(&d))
	}

	return sessions, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id model.SessionID) error {
	// Firestore deletes of missing documents succeed, which keeps this idempotent
	if _, err := r.sessions().Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V(model.SessionIDKey, id))
	}
	return nil
}
