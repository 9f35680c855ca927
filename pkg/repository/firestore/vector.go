package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"google.golang.org/api/iterator"
)

const (
	// ChunksCollection is the subcollection holding chunk documents under
	// each session. The vector index is created for this collection ID by
	// the migrate command.
	ChunksCollection = "chunks"

	// EmbeddingField is the vector field used by FindNearest
	EmbeddingField = "Embedding"

	distanceField = "Distance"

	// maxNearestLimit is the largest limit Firestore accepts for FindNearest
	maxNearestLimit = 1000
)

// chunkDoc is the Firestore document representation of model.Chunk.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search works.
type chunkDoc struct {
	ID        string             `firestore:"ID"`
	SessionID string             `firestore:"SessionID"`
	Index     int                `firestore:"Index"`
	Text      string             `firestore:"Text"`
	Metadata  map[string]string  `firestore:"Metadata"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	Distance  float64            `firestore:"Distance,omitempty"`
}

// VectorStore keeps chunks under sessions/{sessionID}/chunks and searches
// them with Firestore's native vector index.
type VectorStore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.VectorStore = &VectorStore{}

// NewVectorStore creates a Firestore backed vector store with its own client
func NewVectorStore(ctx context.Context, projectID, databaseID string, opts ...Option) (*VectorStore, error) {
	client, err := newClient(ctx, projectID, databaseID)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return &VectorStore{
		client:           client,
		collectionPrefix: o.collectionPrefix,
	}, nil
}

func (s *VectorStore) chunks(sessionID model.SessionID) *firestore.CollectionRef {
	return s.client.Collection(s.collectionPrefix + sessionsCollection).
		Doc(string(sessionID)).
		Collection(ChunksCollection)
}

func (s *VectorStore) Upsert(ctx context.Context, sessionID model.SessionID, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	col := s.chunks(sessionID)
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(chunks))

	for _, c := range chunks {
		doc := &chunkDoc{
			ID:        c.ID,
			SessionID: string(sessionID),
			Index:     c.Index,
			Text:      c.Text,
			Metadata:  c.Metadata,
		}
		if len(c.Embedding) > 0 {
			doc.Embedding = firestore.Vector32(c.Embedding)
		}

		job, err := bw.Set(col.Doc(c.ID), doc)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk write",
				goerr.V(model.SessionIDKey, sessionID), goerr.V("chunkID", c.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write chunk",
				goerr.V(model.SessionIDKey, sessionID), goerr.V("chunkID", chunks[i].ID))
		}
	}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, sessionID model.SessionID, embedding []float32, k int) ([]*model.Chunk, error) {
	if k <= 0 {
		return []*model.Chunk{}, nil
	}
	if k > maxNearestLimit {
		k = maxNearestLimit
	}

	query := s.chunks(sessionID).FindNearest(EmbeddingField,
		firestore.Vector32(embedding),
		k,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField},
	)

	iter := query.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.Chunk, 0, k)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results", goerr.V(model.SessionIDKey, sessionID))
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk", goerr.V("chunkID", doc.Ref.ID))
		}

		results = append(results, &model.Chunk{
			ID:        d.ID,
			SessionID: sessionID,
			Index:     d.Index,
			Text:      d.Text,
			Metadata:  d.Metadata,
			Score:     1 - d.Distance,
		})
	}

	return results, nil
}

func (s *VectorStore) Count(ctx context.Context, sessionID model.SessionID) (int, error) {
	iter := s.chunks(sessionID).Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count chunks", goerr.V(model.SessionIDKey, sessionID))
		}
		count++
	}
	return count, nil
}

func (s *VectorStore) DeleteSession(ctx context.Context, sessionID model.SessionID) error {
	iter := s.chunks(sessionID).Select().Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to iterate chunks for deletion", goerr.V(model.SessionIDKey, sessionID))
		}

		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk deletion", goerr.V("chunkID", doc.Ref.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete chunk", goerr.V(model.SessionIDKey, sessionID))
		}
	}
	return nil
}

func (s *VectorStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
