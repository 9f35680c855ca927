package usecase

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model/config"
	"github.com/secmon-lab/mnemosyne/pkg/service/challenge"
	"github.com/secmon-lab/mnemosyne/pkg/service/chunker"
	"github.com/secmon-lab/mnemosyne/pkg/service/grounded"
	"github.com/secmon-lab/mnemosyne/pkg/service/index"
	"github.com/secmon-lab/mnemosyne/pkg/service/retrieval"
	"github.com/secmon-lab/mnemosyne/pkg/service/summary"
)

type UseCases struct {
	repo      interfaces.Repository
	index     *index.Index
	extractor interfaces.TextExtractor
	gen       interfaces.Generator

	ragConfig    *config.RAG
	tokenCounter grounded.TokenCounter
	now          func() time.Time

	Session   *SessionUseCase
	Document  *DocumentUseCase
	Ask       *AskUseCase
	Challenge *ChallengeUseCase
}

type Option func(*UseCases)

func WithRAGConfig(cfg *config.RAG) Option {
	return func(uc *UseCases) {
		uc.ragConfig = cfg
	}
}

// WithTokenCounter enables the context token budget of grounded answers
// when the RAG config sets a limit
func WithTokenCounter(counter grounded.TokenCounter) Option {
	return func(uc *UseCases) {
		uc.tokenCounter = counter
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// New wires the RAG services into use cases. The index owns the vector
// store; gen is expected to already carry retry and timeout handling.
func New(repo interfaces.Repository, idx *index.Index, extractor interfaces.TextExtractor, gen interfaces.Generator, opts ...Option) (*UseCases, error) {
	uc := &UseCases{
		repo:      repo,
		index:     idx,
		extractor: extractor,
		gen:       gen,
		ragConfig: config.DefaultRAG(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	if err := uc.ragConfig.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid RAG configuration")
	}

	ch, err := chunker.New(uc.ragConfig.ChunkSize, uc.ragConfig.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var groundedOpts []grounded.Option
	if uc.tokenCounter != nil && uc.ragConfig.ContextTokenLimit > 0 {
		groundedOpts = append(groundedOpts, grounded.WithTokenLimit(uc.tokenCounter, uc.ragConfig.ContextTokenLimit))
	}

	uc.Session = NewSessionUseCase(repo, idx, uc.now)
	uc.Document = NewDocumentUseCase(repo, idx, extractor, ch,
		summary.New(gen, summary.WithMaxWords(uc.ragConfig.SummaryMaxWords)), uc.now)
	uc.Ask = NewAskUseCase(repo,
		retrieval.New(idx,
			retrieval.WithTopK(uc.ragConfig.TopK),
			retrieval.WithDedupe(uc.ragConfig.Dedupe),
		),
		grounded.New(gen, groundedOpts...),
		uc.now,
	)
	uc.Challenge = NewChallengeUseCase(repo,
		challenge.New(gen,
			challenge.WithThreshold(uc.ragConfig.CorrectThreshold),
			challenge.WithQuestionCount(uc.ragConfig.QuestionCount),
		),
	)

	return uc, nil
}
