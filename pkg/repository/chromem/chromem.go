package chromem

import (
	"context"
	"runtime"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/philippgille/chromem-go"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// ordinalKey is a reserved metadata key holding the chunk index
const ordinalKey = "_ordinal"

// VectorStore keeps one chromem collection per session in a persistent
// database directory. Each document is written to disk when it is added.
type VectorStore struct {
	db          *chromem.DB
	concurrency int
}

var _ interfaces.VectorStore = &VectorStore{}

type Option func(*VectorStore)

// WithConcurrency sets how many goroutines chromem uses when adding documents
func WithConcurrency(n int) Option {
	return func(s *VectorStore) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New opens (or creates) a persistent chromem database at dir
func New(dir string, compress bool, opts ...Option) (*VectorStore, error) {
	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open chromem database", goerr.V("dir", dir))
	}

	s := &VectorStore{
		db:          db,
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// precomputed is registered as the collection embedding func. Chunks and
// queries always arrive with embeddings, so chromem must never call it.
func precomputed(ctx context.Context, text string) ([]float32, error) {
	return nil, goerr.New("chromem collections only accept precomputed embeddings")
}

func collectionName(sessionID model.SessionID) string {
	return "session-" + string(sessionID)
}

func (s *VectorStore) Upsert(ctx context.Context, sessionID model.SessionID, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	col, err := s.db.GetOrCreateCollection(collectionName(sessionID),
		map[string]string{"session_id": string(sessionID)}, precomputed)
	if err != nil {
		return goerr.Wrap(err, "failed to get or create collection", goerr.V(model.SessionIDKey, sessionID))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		metadata := make(map[string]string, len(c.Metadata)+1)
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		metadata[ordinalKey] = strconv.Itoa(c.Index)

		docs[i] = chromem.Document{
			ID:        c.ID,
			Metadata:  metadata,
			Embedding: c.Embedding,
			Content:   c.Text,
		}
	}

	if err := col.AddDocuments(ctx, docs, s.concurrency); err != nil {
		return goerr.Wrap(err, "failed to add documents", goerr.V(model.SessionIDKey, sessionID))
	}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, sessionID model.SessionID, embedding []float32, k int) ([]*model.Chunk, error) {
	col := s.db.GetCollection(collectionName(sessionID), precomputed)
	if col == nil || k <= 0 {
		return []*model.Chunk{}, nil
	}

	// chromem rejects nResults above the collection size
	n := col.Count()
	if n == 0 {
		return []*model.Chunk{}, nil
	}
	if k > n {
		k = n
	}

	results, err := col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query collection", goerr.V(model.SessionIDKey, sessionID), goerr.V("k", k))
	}

	chunks := make([]*model.Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, toChunk(sessionID, r))
	}
	return chunks, nil
}

func toChunk(sessionID model.SessionID, r chromem.Result) *model.Chunk {
	c := &model.Chunk{
		ID:        r.ID,
		SessionID: sessionID,
		Text:      r.Content,
		Metadata:  make(map[string]string, len(r.Metadata)),
		Score:     float64(r.Similarity),
	}
	for k, v := range r.Metadata {
		if k == ordinalKey {
			if idx, err := strconv.Atoi(v); err == nil {
				c.Index = idx
			}
			continue
		}
		c.Metadata[k] = v
	}
	return c
}

func (s *VectorStore) Count(ctx context.Context, sessionID model.SessionID) (int, error) {
	col := s.db.GetCollection(collectionName(sessionID), precomputed)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

func (s *VectorStore) DeleteSession(ctx context.Context, sessionID model.SessionID) error {
	name := collectionName(sessionID)
	if s.db.GetCollection(name, precomputed) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return goerr.Wrap(err, "failed to delete collection", goerr.V(model.SessionIDKey, sessionID))
	}
	return nil
}

func (s *VectorStore) Close() error {
	return nil
}
