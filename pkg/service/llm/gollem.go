package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

const defaultSystemPrompt = "You are a careful reading assistant. Follow the output format requested in the prompt exactly."

// Gollem adapts a gollem.LLMClient to the Generator and Embedder ports.
// Sampling parameters are fixed by the client, so the per-call temperature
// and token limit are not forwarded.
type Gollem struct {
	client       gollem.LLMClient
	dimension    int
	systemPrompt string
}

var (
	_ interfaces.Generator = &Gollem{}
	_ interfaces.Embedder  = &Gollem{}
)

type GollemOption func(*Gollem)

func WithEmbeddingDimension(dim int) GollemOption {
	return func(g *Gollem) {
		if dim > 0 {
			g.dimension = dim
		}
	}
}

func WithSystemPrompt(prompt string) GollemOption {
	return func(g *Gollem) {
		g.systemPrompt = prompt
	}
}

func NewGollem(client gollem.LLMClient, opts ...GollemOption) *Gollem {
	g := &Gollem{
		client:       client,
		dimension:    model.EmbeddingDimension,
		systemPrompt: defaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gollem) Generate(ctx context.Context, prompt string, opt interfaces.GenerateOption) (string, error) {
	session, err := g.client.NewSession(ctx,
		gollem.WithSessionSystemPrompt(g.systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("LLM returned no text")
	}

	return strings.Join(resp.Texts, ""), nil
}

func (g *Gollem) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := g.client.GenerateEmbedding(ctx, g.dimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embeddings", goerr.V("count", len(texts)))
	}

	result := make([][]float32, len(embeddings))
	for i, vec := range embeddings {
		result[i] = make([]float32, len(vec))
		for j, v := range vec {
			result[i][j] = float32(v)
		}
	}
	return result, nil
}
