package llm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain adapts a langchaingo model and embedder. Unlike Gollem it
// forwards temperature and max tokens on every call.
type LangChain struct {
	model    llms.Model
	embedder embeddings.Embedder
}

var (
	_ interfaces.Generator = &LangChain{}
	_ interfaces.Embedder  = &LangChain{}
)

func NewLangChain(model llms.Model, embedder embeddings.Embedder) *LangChain {
	return &LangChain{
		model:    model,
		embedder: embedder,
	}
}

// NewOpenAI builds an adapter for the OpenAI API or any compatible endpoint
// when baseURL is set
func NewOpenAI(token, chatModel, embeddingModel, baseURL string) (*LangChain, error) {
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(chatModel),
		openai.WithEmbeddingModel(embeddingModel),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OpenAI client", goerr.V("model", chatModel))
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OpenAI embedder", goerr.V("model", embeddingModel))
	}

	return NewLangChain(client, embedder), nil
}

// NewOllama builds an adapter for a local Ollama server. Chat and embedding
// may use different models.
func NewOllama(serverURL, chatModel, embeddingModel string) (*LangChain, error) {
	client, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(chatModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Ollama client", goerr.V("model", chatModel))
	}

	embedClient := client
	if embeddingModel != "" && embeddingModel != chatModel {
		embedClient, err = ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(embeddingModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Ollama embedding client", goerr.V("model", embeddingModel))
		}
	}

	embedder, err := embeddings.NewEmbedder(embedClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Ollama embedder", goerr.V("model", embeddingModel))
	}

	return NewLangChain(client, embedder), nil
}

func (l *LangChain) Generate(ctx context.Context, prompt string, opt interfaces.GenerateOption) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(opt.Temperature)}
	if opt.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opt.MaxTokens))
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt, callOpts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}
	return resp, nil
}

func (l *LangChain) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed documents", goerr.V("count", len(texts)))
	}
	return vectors, nil
}
