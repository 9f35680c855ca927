package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/cli/config"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	domainConfig "github.com/secmon-lab/mnemosyne/pkg/domain/model/config"
	"github.com/secmon-lab/mnemosyne/pkg/service/extract"
	"github.com/secmon-lab/mnemosyne/pkg/service/index"
	"github.com/secmon-lab/mnemosyne/pkg/service/llm"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/secmon-lab/mnemosyne/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// appConfig groups the flags every command that touches sessions needs
type appConfig struct {
	repo  config.Repository
	index config.Index
	llm   config.LLM
	rag   config.RAG
}

func (a *appConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, a.rag.Flags()...)
	flags = append(flags, a.repo.Flags()...)
	flags = append(flags, a.index.Flags()...)
	flags = append(flags, a.llm.Flags()...)
	return flags
}

// storage holds the opened session store and vector index
type storage struct {
	repo  interfaces.Repository
	store interfaces.VectorStore
}

func (s *storage) Close(ctx context.Context) {
	safe.Close(ctx, s.store)
	safe.Close(ctx, s.repo)
}

func (a *appConfig) openStorage(ctx context.Context) (*storage, error) {
	repo, err := a.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	store, err := a.index.Configure(ctx, &a.repo)
	if err != nil {
		safe.Close(ctx, repo)
		return nil, goerr.Wrap(err, "failed to initialize vector index")
	}

	return &storage{repo: repo, store: store}, nil
}

// build wires storage, provider and use cases. The returned function
// releases the storage.
func (a *appConfig) build(ctx context.Context) (*usecase.UseCases, func(), error) {
	ragCfg, err := a.rag.Configure()
	if err != nil {
		return nil, nil, err
	}

	gen, emb, err := a.llm.Configure(ctx, ragCfg)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure LLM provider")
	}

	st, err := a.openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	closer := func() { st.Close(ctx) }

	opts := []usecase.Option{usecase.WithRAGConfig(ragCfg)}
	if ragCfg.ContextTokenLimit > 0 {
		counter, err := llm.NewTokenCounter(llm.DefaultEncoding)
		if err != nil {
			closer()
			return nil, nil, goerr.Wrap(err, "failed to load tokenizer")
		}
		opts = append(opts, usecase.WithTokenCounter(counter))
	}

	uc, err := usecase.New(st.repo, index.New(emb, st.store), extract.New(), gen, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}

	logging.Default().LogAttrs(ctx, slog.LevelDebug, "Use cases configured",
		slog.Any("rag", ragSummary(ragCfg)),
		slog.GroupAttrs("repository", a.repo.LogAttrs()...),
		slog.GroupAttrs("index", a.index.LogAttrs()...),
		slog.GroupAttrs("llm", a.llm.LogAttrs()...),
	)
	return uc, closer, nil
}

func ragSummary(cfg *domainConfig.RAG) map[string]any {
	return map[string]any{
		"chunk_size":          cfg.ChunkSize,
		"chunk_overlap":       cfg.ChunkOverlap,
		"top_k":               cfg.TopK,
		"question_count":      cfg.QuestionCount,
		"correct_threshold":   cfg.CorrectThreshold,
		"context_token_limit": cfg.ContextTokenLimit,
	}
}
