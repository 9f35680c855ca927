package index

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// Index is the per-session embedding index. It owns chunk IDs and
// embeddings; the vector store underneath only ranks and persists them.
type Index struct {
	embedder interfaces.Embedder
	store    interfaces.VectorStore
}

func New(embedder interfaces.Embedder, store interfaces.VectorStore) *Index {
	return &Index{
		embedder: embedder,
		store:    store,
	}
}

// ErrIndexCleared is returned by ReplaceSession when the previous chunks of
// a session were removed but the new ones could not be stored
var ErrIndexCleared = goerr.New("previous chunks removed but replacement not stored")

// AddChunks embeds all chunks in a single provider call and upserts them
// under IDs {sessionID}_{ordinal}. metadata may be nil; when given, it must
// have exactly one entry per chunk.
func (x *Index) AddChunks(ctx context.Context, sessionID model.SessionID, chunks []string, metadata []map[string]string) error {
	items, err := x.embedChunks(ctx, sessionID, chunks, metadata)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	if err := x.store.Upsert(ctx, sessionID, items); err != nil {
		return goerr.Wrap(err, "failed to store chunks", goerr.V(model.SessionIDKey, sessionID))
	}

	logging.From(ctx).Debug("chunks indexed",
		"session_id", sessionID,
		"count", len(items),
	)
	return nil
}

// ReplaceSession swaps the chunks of a session for new ones. Embedding runs
// before anything is deleted, so a provider failure leaves the previous
// chunks in place. Failures after the delete wrap ErrIndexCleared.
func (x *Index) ReplaceSession(ctx context.Context, sessionID model.SessionID, chunks []string, metadata []map[string]string) error {
	items, err := x.embedChunks(ctx, sessionID, chunks, metadata)
	if err != nil {
		return err
	}

	if err := x.store.DeleteSession(ctx, sessionID); err != nil {
		// a store may fail partway through a delete
		return goerr.Wrap(ErrIndexCleared, "failed to delete previous chunks",
			goerr.V(model.SessionIDKey, sessionID),
			goerr.V("cause", err.Error()))
	}
	if len(items) == 0 {
		return nil
	}

	if err := x.store.Upsert(ctx, sessionID, items); err != nil {
		return goerr.Wrap(ErrIndexCleared, "failed to store replacement chunks",
			goerr.V(model.SessionIDKey, sessionID),
			goerr.V("cause", err.Error()))
	}

	logging.From(ctx).Debug("session chunks replaced",
		"session_id", sessionID,
		"count", len(items),
	)
	return nil
}

func (x *Index) embedChunks(ctx context.Context, sessionID model.SessionID, chunks []string, metadata []map[string]string) ([]*model.Chunk, error) {
	if metadata != nil && len(metadata) != len(chunks) {
		return nil, goerr.Wrap(model.ErrMetadataMismatch, "metadata must have one entry per chunk",
			goerr.V(model.SessionIDKey, sessionID),
			goerr.V("chunks", len(chunks)),
			goerr.V("metadata", len(metadata)))
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	embeddings, err := x.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, goerr.Wrap(model.AsProviderFailure(err), "failed to embed chunks",
			goerr.V(model.SessionIDKey, sessionID))
	}
	if len(embeddings) != len(chunks) {
		return nil, goerr.Wrap(model.ErrProviderFailure, "embedding count does not match chunks",
			goerr.V(model.SessionIDKey, sessionID),
			goerr.V("chunks", len(chunks)),
			goerr.V("embeddings", len(embeddings)))
	}

	items := make([]*model.Chunk, len(chunks))
	for i, text := range chunks {
		md := model.DefaultChunkMetadata(i)
		if metadata != nil {
			md = metadata[i]
		}
		items[i] = &model.Chunk{
			ID:        model.ChunkID(sessionID, i),
			SessionID: sessionID,
			Index:     i,
			Text:      text,
			Metadata:  md,
			Embedding: embeddings[i],
		}
	}
	return items, nil
}

// Query returns the texts of up to k chunks nearest to text, nearest first
func (x *Index) Query(ctx context.Context, sessionID model.SessionID, text string, k int) ([]string, error) {
	chunks, err := x.QueryChunks(ctx, sessionID, text, k)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts, nil
}

// QueryChunks is Query with scores and metadata. Blank text, non-positive k
// and empty sessions yield an empty result without calling the embedder.
func (x *Index) QueryChunks(ctx context.Context, sessionID model.SessionID, text string, k int) ([]*model.Chunk, error) {
	if strings.TrimSpace(text) == "" || k <= 0 {
		return []*model.Chunk{}, nil
	}

	n, err := x.store.Count(ctx, sessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	if n == 0 {
		return []*model.Chunk{}, nil
	}

	embeddings, err := x.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, goerr.Wrap(model.AsProviderFailure(err), "failed to embed query",
			goerr.V(model.SessionIDKey, sessionID))
	}
	if len(embeddings) != 1 {
		return nil, goerr.Wrap(model.ErrProviderFailure, "embedding provider returned unexpected vector count",
			goerr.V(model.SessionIDKey, sessionID),
			goerr.V("count", len(embeddings)))
	}

	chunks, err := x.store.Query(ctx, sessionID, embeddings[0], min(k, n))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query vector store", goerr.V(model.SessionIDKey, sessionID))
	}
	return chunks, nil
}

// Count returns how many chunks the session has
func (x *Index) Count(ctx context.Context, sessionID model.SessionID) (int, error) {
	n, err := x.store.Count(ctx, sessionID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	return n, nil
}

// DeleteSession drops every chunk of the session. Deleting an unknown
// session is not an error.
func (x *Index) DeleteSession(ctx context.Context, sessionID model.SessionID) error {
	if err := x.store.DeleteSession(ctx, sessionID); err != nil {
		return goerr.Wrap(err, "failed to delete session chunks", goerr.V(model.SessionIDKey, sessionID))
	}
	return nil
}
