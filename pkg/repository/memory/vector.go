package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// VectorStore keeps chunks in process memory and ranks them by brute force
// cosine similarity. Nothing survives a restart, so it is meant for tests and
// local experiments only.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[model.SessionID]map[string]*model.Chunk
}

var _ interfaces.VectorStore = &VectorStore{}

func NewVectorStore() *VectorStore {
	return &VectorStore{
		entries: make(map[model.SessionID]map[string]*model.Chunk),
	}
}

func (s *VectorStore) Upsert(ctx context.Context, sessionID model.SessionID, chunks []*model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.entries[sessionID]
	if !ok {
		bucket = make(map[string]*model.Chunk)
		s.entries[sessionID] = bucket
	}

	for _, c := range chunks {
		if c.ID == "" {
			return goerr.Wrap(model.ErrInvalidArgument, "chunk ID is required", goerr.V(model.SessionIDKey, sessionID))
		}
		copied := model.CopyChunk(c)
		copied.SessionID = sessionID
		copied.Score = 0
		bucket[c.ID] = copied
	}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, sessionID model.SessionID, embedding []float32, k int) ([]*model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.entries[sessionID]
	if !ok || k <= 0 {
		return []*model.Chunk{}, nil
	}

	candidates := make([]*model.Chunk, 0, len(bucket))
	for _, c := range bucket {
		if len(c.Embedding) == 0 {
			continue
		}
		copied := model.CopyChunk(c)
		copied.Score = cosineSimilarity(embedding, c.Embedding)
		candidates = append(candidates, copied)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Index < candidates[j].Index
		}
		return candidates[i].Score > candidates[j].Score
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

func (s *VectorStore) Count(ctx context.Context, sessionID model.SessionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[sessionID]), nil
}

func (s *VectorStore) DeleteSession(ctx context.Context, sessionID model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *VectorStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
