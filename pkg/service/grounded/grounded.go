package grounded

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// JustificationMarker separates the answer from its verbatim excerpt in the
// model response
const JustificationMarker = "Justification (Reference text from the document):"

const (
	temperature = 0.2
	maxTokens   = 500
)

// TokenCounter measures prompt size for the optional context budget
type TokenCounter interface {
	Count(text string) int
}

// Generator answers questions strictly from retrieved chunks. It keeps no
// state between calls and is safe for concurrent use.
type Generator struct {
	gen        interfaces.Generator
	counter    TokenCounter
	tokenLimit int
}

type Option func(*Generator)

// WithTokenLimit drops trailing chunks from the prompt once it would exceed
// limit tokens. The first chunk is always kept. A limit <= 0 disables it.
func WithTokenLimit(counter TokenCounter, limit int) Option {
	return func(g *Generator) {
		g.counter = counter
		g.tokenLimit = limit
	}
}

func New(gen interfaces.Generator, opts ...Option) *Generator {
	g := &Generator{gen: gen}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Answer never fails. An empty chunk list returns NoContextAnswer without
// calling the provider; provider errors are logged and turned into
// ProviderFailureAnswer.
func (g *Generator) Answer(ctx context.Context, question string, chunks []string) *model.GroundedAnswer {
	if len(chunks) == 0 {
		return &model.GroundedAnswer{Answer: model.NoContextAnswer}
	}

	prompt := g.buildPrompt(question, chunks)
	raw, err := g.gen.Generate(ctx, prompt, interfaces.GenerateOption{
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		logging.From(ctx).Error("failed to generate grounded answer",
			"error", err,
			"chunks", len(chunks),
		)
		return &model.GroundedAnswer{Answer: model.ProviderFailureAnswer}
	}

	return ParseGroundedAnswer(raw)
}

func (g *Generator) buildPrompt(question string, chunks []string) string {
	if g.counter == nil || g.tokenLimit <= 0 {
		return BuildPrompt(question, chunks)
	}

	used := chunks
	for len(used) > 1 && g.counter.Count(BuildPrompt(question, used)) > g.tokenLimit {
		used = used[:len(used)-1]
	}
	return BuildPrompt(question, used)
}

// BuildPrompt labels every chunk by its 1-based position and asks for an
// answer followed by the justification marker and a verbatim excerpt
func BuildPrompt(question string, chunks []string) string {
	var sb strings.Builder

	sb.WriteString("You are an assistant that answers questions based only on the provided document context.\n")
	sb.WriteString("Do not use any knowledge beyond the context. If the context does not contain the answer, say that you cannot answer it.\n\n")
	sb.WriteString("Respond in exactly this format:\n")
	sb.WriteString("Answer: <your answer>\n")
	sb.WriteString(JustificationMarker)
	sb.WriteString(" <a verbatim excerpt from the context that supports the answer>\n\n")

	sb.WriteString("Document Context:\n")
	for i, c := range chunks {
		fmt.Fprintf(&sb, "Context [%d]: %s\n\n", i+1, c)
	}

	fmt.Fprintf(&sb, "Question: %s\n", question)
	return sb.String()
}

var (
	markerPattern = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(JustificationMarker))
	answerPrefix  = regexp.MustCompile(`(?i)^[\s*_]*answer[\s*_]*:[\s*_]*`)
)

// ParseGroundedAnswer splits raw at the first case-insensitive occurrence of
// the justification marker. Without the marker the whole response is the
// answer and the justification is JustificationNotFound.
func ParseGroundedAnswer(raw string) *model.GroundedAnswer {
	loc := markerPattern.FindStringIndex(raw)
	if loc == nil {
		return &model.GroundedAnswer{
			Answer:        cleanAnswer(raw),
			Justification: model.JustificationNotFound,
		}
	}

	justification := strings.TrimSpace(raw[loc[1]:])
	justification = strings.TrimSpace(strings.Trim(justification, "*_"))

	return &model.GroundedAnswer{
		Answer:        cleanAnswer(raw[:loc[0]]),
		Justification: justification,
	}
}

func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = answerPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimRight(s, "*_ \t\r\n"))
}
