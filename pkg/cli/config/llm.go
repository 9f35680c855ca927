package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	domainConfig "github.com/secmon-lab/mnemosyne/pkg/domain/model/config"
	"github.com/secmon-lab/mnemosyne/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// LLM holds CLI flags for the generative and embedding provider
type LLM struct {
	provider string

	geminiProject  string
	geminiLocation string

	openaiAPIKey         string
	openaiBaseURL        string
	openaiModel          string
	openaiEmbeddingModel string

	ollamaURL            string
	ollamaModel          string
	ollamaEmbeddingModel string
}

// Flags returns CLI flags for provider configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (gemini, openai, ollama)",
			Value:       ProviderGemini,
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "Base URL of an OpenAI compatible endpoint",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_BASE_URL"),
			Destination: &l.openaiBaseURL,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI chat model",
			Value:       "gpt-4o-mini",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_MODEL"),
			Destination: &l.openaiModel,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-model",
			Usage:       "OpenAI embedding model",
			Value:       "text-embedding-3-small",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_EMBEDDING_MODEL"),
			Destination: &l.openaiEmbeddingModel,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Usage:       "Ollama server URL",
			Value:       "http://localhost:11434",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OLLAMA_URL"),
			Destination: &l.ollamaURL,
		},
		&cli.StringFlag{
			Name:        "ollama-model",
			Usage:       "Ollama chat model",
			Value:       "llama3.1",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OLLAMA_MODEL"),
			Destination: &l.ollamaModel,
		},
		&cli.StringFlag{
			Name:        "ollama-embedding-model",
			Usage:       "Ollama embedding model",
			Value:       "nomic-embed-text",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOSYNE_OLLAMA_EMBEDDING_MODEL"),
			Destination: &l.ollamaEmbeddingModel,
		},
	}
}

// LogAttrs returns log attributes for the provider configuration. Secrets
// are reported only as present or absent.
func (l *LLM) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("provider", l.provider)}
	switch l.provider {
	case ProviderGemini:
		attrs = append(attrs,
			slog.String("project_id", l.geminiProject),
			slog.String("location", l.geminiLocation),
		)
	case ProviderOpenAI:
		attrs = append(attrs,
			slog.String("model", l.openaiModel),
			slog.String("embedding_model", l.openaiEmbeddingModel),
			slog.String("base_url", l.openaiBaseURL),
			slog.Bool("api_key_set", l.openaiAPIKey != ""),
		)
	case ProviderOllama:
		attrs = append(attrs,
			slog.String("url", l.ollamaURL),
			slog.String("model", l.ollamaModel),
			slog.String("embedding_model", l.ollamaEmbeddingModel),
		)
	}
	return attrs
}

// Configure creates the provider client and decorates it with the timeout
// and retry policy of rag
func (l *LLM) Configure(ctx context.Context, rag *domainConfig.RAG) (interfaces.Generator, interfaces.Embedder, error) {
	var gen interfaces.Generator
	var emb interfaces.Embedder

	switch l.provider {
	case ProviderGemini:
		if l.geminiProject == "" {
			return nil, nil, goerr.New("gemini-project is required when using gemini provider")
		}
		client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		adapter := llm.NewGollem(client)
		gen, emb = adapter, adapter

	case ProviderOpenAI:
		if l.openaiAPIKey == "" && l.openaiBaseURL == "" {
			return nil, nil, goerr.New("openai-api-key is required when using openai provider")
		}
		adapter, err := llm.NewOpenAI(l.openaiAPIKey, l.openaiModel, l.openaiEmbeddingModel, l.openaiBaseURL)
		if err != nil {
			return nil, nil, err
		}
		gen, emb = adapter, adapter

	case ProviderOllama:
		adapter, err := llm.NewOllama(l.ollamaURL, l.ollamaModel, l.ollamaEmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		gen, emb = adapter, adapter

	default:
		return nil, nil, goerr.New("invalid llm provider", goerr.V("provider", l.provider))
	}

	retryOpts := []llm.RetryOption{
		llm.WithTimeout(rag.ProviderTimeout),
		llm.WithMaxRetries(rag.MaxRetries),
		llm.WithBackoff(rag.RetryBaseDelay, rag.RetryMaxDelay),
	}
	return llm.NewRetryGenerator(gen, retryOpts...), llm.NewRetryEmbedder(emb, retryOpts...), nil
}
