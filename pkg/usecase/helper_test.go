package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model/config"
	"github.com/secmon-lab/mnemosyne/pkg/repository/memory"
	"github.com/secmon-lab/mnemosyne/pkg/service/extract"
	"github.com/secmon-lab/mnemosyne/pkg/service/index"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
)

const parisDoc = "Paris has long served as the capital of France. " +
	"Berlin is the capital of Germany. " +
	"Tokyo is the capital of Japan."

var keywords = []string{"paris", "berlin", "tokyo", "france", "germany", "japan"}

type keywordEmbedder struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (e *keywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.fail.Load() {
		return nil, errQuota
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(keywords)+1)
		vec[len(keywords)] = 0.01
		for j, kw := range keywords {
			if strings.Contains(strings.ToLower(text), kw) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

// scriptedGenerator answers by prompt kind
type scriptedGenerator struct {
	mu    sync.Mutex
	calls map[string]int

	answer     string
	answerErr  error
	questions  string
	evaluation string
	summary    string

	// release, when set, blocks grounded answers until closed
	release chan struct{}
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		calls:      map[string]int{},
		answer:     "Answer: Paris is the capital.\nJustification (Reference text from the document): Paris has long served as the capital of France.",
		questions:  "1. Which city is the capital of France?\n2. Which country has Berlin as its capital?\n3. Where is Tokyo?",
		evaluation: "Evaluation Status: Correct\nScore: 5/10\nJustification: Too short.\nDesired Answer Snippet: Paris has long served as the capital of France.",
		summary:    "Capitals of France, Germany and Japan.",
	}
}

func (g *scriptedGenerator) count(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, opt interfaces.GenerateOption) (string, error) {
	kind := "answer"
	switch {
	case strings.HasPrefix(prompt, "Summarize"):
		kind = "summary"
	case strings.Contains(prompt, "Questions:"):
		kind = "questions"
	case strings.Contains(prompt, "User Answer:"):
		kind = "evaluation"
	}

	g.mu.Lock()
	g.calls[kind]++
	g.mu.Unlock()

	switch kind {
	case "summary":
		return g.summary, nil
	case "questions":
		return g.questions, nil
	case "evaluation":
		return g.evaluation, nil
	}

	if g.release != nil {
		<-g.release
	}
	if g.answerErr != nil {
		return "", g.answerErr
	}
	return g.answer, nil
}

// flakyStore is a memory vector store whose upserts can be made to fail
type flakyStore struct {
	*memory.VectorStore
	failUpsert atomic.Bool
}

func (s *flakyStore) Upsert(ctx context.Context, sessionID model.SessionID, chunks []*model.Chunk) error {
	if s.failUpsert.Load() {
		return errors.New("disk full")
	}
	return s.VectorStore.Upsert(ctx, sessionID, chunks)
}

type fixture struct {
	repo     *memory.Memory
	store    *flakyStore
	embedder *keywordEmbedder
	gen      *scriptedGenerator
	uc       *usecase.UseCases
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()

	f := &fixture{
		repo:     memory.New(),
		store:    &flakyStore{VectorStore: memory.NewVectorStore()},
		embedder: &keywordEmbedder{},
		gen:      newScriptedGenerator(),
	}

	cfg := config.DefaultRAG()
	cfg.ChunkSize = 50
	cfg.ChunkOverlap = 10

	base := []usecase.Option{
		usecase.WithRAGConfig(cfg),
		usecase.WithClock(func() time.Time { return time.Now().UTC() }),
	}

	uc, err := usecase.New(f.repo, index.New(f.embedder, f.store), extract.New(), f.gen, append(base, opts...)...)
	gt.NoError(t, err).Required()
	f.uc = uc
	return f
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

// newDocumentSession creates a session with parisDoc ingested
func (f *fixture) newDocumentSession(t *testing.T) *model.Session {
	t.Helper()
	ctx := context.Background()

	session, err := f.uc.Session.Create(ctx, "capitals")
	gt.NoError(t, err).Required()

	session, err = f.uc.Document.Upload(ctx, model.SessionContext{SessionID: session.ID},
		writeTempFile(t, "capitals.txt", parisDoc), "capitals.txt")
	gt.NoError(t, err).Required()
	return session
}

var errQuota = errors.New("quota exceeded")
