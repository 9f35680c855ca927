package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// VectorStore is the nearest-neighbor store behind the embedding index. One
// physical store is shared by all sessions; every operation is scoped by
// session ID. Mutations must be durable when they return.
type VectorStore interface {
	// Upsert inserts or replaces chunks of a session. Chunks carry their
	// embedding and a store-wide unique ID.
	Upsert(ctx context.Context, sessionID model.SessionID, chunks []*model.Chunk) error

	// Query returns up to k chunks of the session ordered by descending
	// cosine similarity to embedding, with Score set.
	Query(ctx context.Context, sessionID model.SessionID, embedding []float32, k int) ([]*model.Chunk, error)

	// Count returns the number of chunks stored for the session
	Count(ctx context.Context, sessionID model.SessionID) (int, error)

	// DeleteSession removes every chunk of the session. Idempotent.
	DeleteSession(ctx context.Context, sessionID model.SessionID) error

	Close() error
}
