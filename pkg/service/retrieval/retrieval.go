package retrieval

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/chunker"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

const DefaultTopK = 5

// Index is the part of the embedding index retrieval depends on
type Index interface {
	Query(ctx context.Context, sessionID model.SessionID, text string, k int) ([]string, error)
}

// Result of a retrieval. Empty is set when nothing was found so the answer
// generator can short-circuit instead of prompting with no context.
type Result struct {
	Chunks []string
	Empty  bool
}

type Service struct {
	index  Index
	topK   int
	dedupe bool
}

type Option func(*Service)

// WithTopK sets the number of chunks used when Retrieve is called with k <= 0
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithDedupe drops chunks whose text is already contained in a higher ranked chunk
func WithDedupe(enabled bool) Option {
	return func(s *Service) {
		s.dedupe = enabled
	}
}

func New(index Index, opts ...Option) *Service {
	s := &Service{
		index: index,
		topK:  DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Retrieve(ctx context.Context, sessionID model.SessionID, question string, k int) (*Result, error) {
	if k <= 0 {
		k = s.topK
	}

	chunks, err := s.index.Query(ctx, sessionID, question, k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to retrieve chunks", goerr.V(model.SessionIDKey, sessionID))
	}

	if s.dedupe {
		chunks = dedupe(chunks)
	}

	logging.From(ctx).Debug("chunks retrieved",
		"session_id", sessionID,
		"k", k,
		"count", len(chunks),
	)

	return &Result{
		Chunks: chunks,
		Empty:  len(chunks) == 0,
	}, nil
}

func dedupe(chunks []string) []string {
	kept := make([]string, 0, len(chunks))
	normalized := make([]string, 0, len(chunks))

	for _, c := range chunks {
		n := strings.ToLower(chunker.Normalize(c))
		duplicate := false
		for _, prev := range normalized {
			if strings.Contains(prev, n) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, c)
		normalized = append(normalized, n)
	}
	return kept
}
