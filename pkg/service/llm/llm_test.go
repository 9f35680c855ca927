package llm_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/llm"
	"github.com/tmc/langchaingo/llms"
)

// ----- gollem mocks -----

type mockLLMSession struct {
	inputs []gollem.Input
	texts  []string
	err    error
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	s.inputs = append(s.inputs, input...)
	if s.err != nil {
		return nil, s.err
	}
	return &gollem.Response{Texts: s.texts}, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	session      *mockLLMSession
	sessionCalls int
	gotDimension int
	gotInput     []string
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	c.sessionCalls++
	return c.session, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.gotDimension = dimension
	c.gotInput = input
	out := make([][]float64, len(input))
	for i := range input {
		out[i] = []float64{float64(i), 0.5}
	}
	return out, nil
}

func TestGollemGenerate(t *testing.T) {
	session := &mockLLMSession{texts: []string{"Answer: Paris", " is the capital."}}
	client := &mockLLMClient{session: session}
	g := llm.NewGollem(client)

	out, err := g.Generate(context.Background(), "What is the capital?", interfaces.GenerateOption{Temperature: 0.2, MaxTokens: 500})
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal("Answer: Paris is the capital.")
	gt.Number(t, client.sessionCalls).Equal(1)
	gt.Array(t, session.inputs).Length(1).Required()
	gt.Value(t, session.inputs[0]).Equal(gollem.Input(gollem.Text("What is the capital?")))
}

func TestGollemGenerateErrors(t *testing.T) {
	t.Run("generation error", func(t *testing.T) {
		client := &mockLLMClient{session: &mockLLMSession{err: errors.New("quota exceeded")}}
		_, err := llm.NewGollem(client).Generate(context.Background(), "p", interfaces.GenerateOption{})
		gt.Value(t, err).NotNil()
	})

	t.Run("empty response", func(t *testing.T) {
		client := &mockLLMClient{session: &mockLLMSession{}}
		_, err := llm.NewGollem(client).Generate(context.Background(), "p", interfaces.GenerateOption{})
		gt.Value(t, err).NotNil()
	})
}

func TestGollemEmbed(t *testing.T) {
	client := &mockLLMClient{}
	g := llm.NewGollem(client, llm.WithEmbeddingDimension(256))

	vectors, err := g.Embed(context.Background(), []string{"a", "b", "c"})
	gt.NoError(t, err).Required()
	gt.Number(t, client.gotDimension).Equal(256)
	gt.Array(t, client.gotInput).Length(3)
	gt.Array(t, vectors).Length(3).Required()
	gt.Value(t, vectors[2]).Equal([]float32{2, 0.5})

	vectors, err = g.Embed(context.Background(), nil)
	gt.NoError(t, err).Required()
	gt.Array(t, vectors).Length(0)
}

// ----- langchaingo fakes -----

type fakeModel struct {
	prompt   string
	options  llms.CallOptions
	response string
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&m.options)
	}
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.prompt = text.Text
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type fakeEmbedder struct {
	got []string
}

func (e *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.got = texts
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func TestLangChainGenerate(t *testing.T) {
	m := &fakeModel{response: "Answer: 42"}
	lc := llm.NewLangChain(m, &fakeEmbedder{})

	out, err := lc.Generate(context.Background(), "question prompt", interfaces.GenerateOption{Temperature: 0.7, MaxTokens: 250})
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal("Answer: 42")
	gt.Value(t, m.prompt).Equal("question prompt")
	gt.Value(t, m.options.Temperature).Equal(0.7)
	gt.Number(t, m.options.MaxTokens).Equal(250)
}

func TestLangChainGenerateError(t *testing.T) {
	lc := llm.NewLangChain(&fakeModel{err: errors.New("rate limited")}, &fakeEmbedder{})
	_, err := lc.Generate(context.Background(), "p", interfaces.GenerateOption{})
	gt.Value(t, err).NotNil()
}

func TestLangChainEmbed(t *testing.T) {
	emb := &fakeEmbedder{}
	lc := llm.NewLangChain(&fakeModel{}, emb)

	vectors, err := lc.Embed(context.Background(), []string{"ab", "abcd"})
	gt.NoError(t, err).Required()
	gt.Array(t, emb.got).Length(2)
	gt.Value(t, vectors).Equal([][]float32{{2}, {4}})
}

// ----- retry -----

type flakyGenerator struct {
	calls    atomic.Int32
	failures int32
	err      error
	block    bool
}

func (g *flakyGenerator) Generate(ctx context.Context, prompt string, opt interfaces.GenerateOption) (string, error) {
	n := g.calls.Add(1)
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if n <= g.failures {
		return "", g.err
	}
	return "ok", nil
}

func fastRetry(n int) []llm.RetryOption {
	return []llm.RetryOption{
		llm.WithMaxRetries(n),
		llm.WithBackoff(time.Millisecond, 4*time.Millisecond),
		llm.WithTimeout(time.Second),
	}
}

func TestRetryGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failures are retried", func(t *testing.T) {
		gen := &flakyGenerator{failures: 2, err: errors.New("503")}
		out, err := llm.NewRetryGenerator(gen, fastRetry(3)...).Generate(ctx, "p", interfaces.GenerateOption{})
		gt.NoError(t, err).Required()
		gt.Value(t, out).Equal("ok")
		gt.Number(t, gen.calls.Load()).Equal(int32(3))
	})

	t.Run("exhaustion is a provider failure", func(t *testing.T) {
		cause := errors.New("503")
		gen := &flakyGenerator{failures: 100, err: cause}
		_, err := llm.NewRetryGenerator(gen, fastRetry(2)...).Generate(ctx, "p", interfaces.GenerateOption{})
		gt.Bool(t, errors.Is(err, model.ErrProviderFailure)).True()
		gt.Bool(t, errors.Is(err, cause)).True()
		gt.Number(t, gen.calls.Load()).Equal(int32(3))
	})

	t.Run("zero retries calls once", func(t *testing.T) {
		gen := &flakyGenerator{failures: 100, err: errors.New("503")}
		_, err := llm.NewRetryGenerator(gen, fastRetry(0)...).Generate(ctx, "p", interfaces.GenerateOption{})
		gt.Value(t, err).NotNil()
		gt.Number(t, gen.calls.Load()).Equal(int32(1))
	})

	t.Run("attempt timeout counts as a failure", func(t *testing.T) {
		gen := &flakyGenerator{block: true}
		r := llm.NewRetryGenerator(gen,
			llm.WithMaxRetries(1),
			llm.WithBackoff(time.Millisecond, time.Millisecond),
			llm.WithTimeout(10*time.Millisecond),
		)
		_, err := r.Generate(ctx, "p", interfaces.GenerateOption{})
		gt.Bool(t, errors.Is(err, model.ErrProviderFailure)).True()
		gt.Bool(t, errors.Is(err, context.DeadlineExceeded)).True()
		gt.Number(t, gen.calls.Load()).Equal(int32(2))
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		gen := &flakyGenerator{block: true}
		_, err := llm.NewRetryGenerator(gen, fastRetry(5)...).Generate(cctx, "p", interfaces.GenerateOption{})
		gt.Bool(t, errors.Is(err, model.ErrProviderFailure)).True()
		gt.Number(t, gen.calls.Load()).Equal(int32(1))
	})
}

type flakyEmbedder struct {
	calls int
}

func (e *flakyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.calls == 1 {
		return nil, errors.New("connection reset")
	}
	return [][]float32{{1}}, nil
}

func TestRetryEmbedder(t *testing.T) {
	emb := &flakyEmbedder{}
	vectors, err := llm.NewRetryEmbedder(emb, fastRetry(1)...).Embed(context.Background(), []string{"a"})
	gt.NoError(t, err).Required()
	gt.Array(t, vectors).Length(1)
	gt.Number(t, emb.calls).Equal(2)
}

func TestTokenCounter(t *testing.T) {
	if os.Getenv("TEST_TIKTOKEN") == "" {
		t.Skip("TEST_TIKTOKEN not set, the encoding is downloaded on first use")
	}

	counter, err := llm.NewTokenCounter(llm.DefaultEncoding)
	gt.NoError(t, err).Required()
	gt.Number(t, counter.Count("")).Equal(0)
	gt.Number(t, counter.Count("hello world")).Equal(2)
	gt.Bool(t, counter.Count("Paris has long served as the capital of France.") > 5).True()
}
