package model

import (
	"fmt"
	"strconv"
)

// EmbeddingDimension is the default embedding size requested from providers
// that take one. Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// Chunk is one retrievable window of a session's document
type Chunk struct {
	ID        string
	SessionID SessionID
	Index     int
	Text      string
	Metadata  map[string]string
	Embedding []float32

	// Score is the similarity to the query, set only on query results
	Score float64
}

// ChunkID renders the store-wide unique chunk ID {sessionId}_{ordinal}
func ChunkID(sessionID SessionID, ordinal int) string {
	return fmt.Sprintf("%s_%d", sessionID, ordinal)
}

// DefaultChunkMetadata is attached to chunks ingested without explicit metadata
func DefaultChunkMetadata(ordinal int) map[string]string {
	return map[string]string{
		"source":      "uploaded_document",
		"chunk_index": strconv.Itoa(ordinal),
	}
}

// CopyChunk returns a deep copy of c
func CopyChunk(c *Chunk) *Chunk {
	copied := *c
	if c.Metadata != nil {
		copied.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			copied.Metadata[k] = v
		}
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return &copied
}
