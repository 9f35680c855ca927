package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
)

const sessionsCollection = "sessions"

type Firestore struct {
	client  *firestore.Client
	session *sessionRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*options)

type options struct {
	collectionPrefix string
}

// WithCollectionPrefix prefixes the root collection name. Tests use it to
// isolate runs that share one project.
func WithCollectionPrefix(prefix string) Option {
	return func(o *options) {
		o.collectionPrefix = prefix
	}
}

func newClient(ctx context.Context, projectID, databaseID string) (*firestore.Client, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}
	return client, nil
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New creates a Firestore backed Repository for session metadata
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := newClient(ctx, projectID, databaseID)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return &Firestore{
		client:  client,
		session: newSessionRepository(client, o.collectionPrefix),
	}, nil
}

func (f *Firestore) Session() interfaces.SessionRepository {
	return f.session
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
