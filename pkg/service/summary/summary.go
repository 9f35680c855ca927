package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

const DefaultMaxWords = 150

// Service produces the session summary shown after upload
type Service struct {
	gen      interfaces.Generator
	maxWords int
}

type Option func(*Service)

func WithMaxWords(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxWords = n
		}
	}
}

func New(gen interfaces.Generator, opts ...Option) *Service {
	s := &Service{
		gen:      gen,
		maxWords: DefaultMaxWords,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize asks the model for a concise summary. When the provider fails or
// returns nothing, a frequency ranked extract of the document is used instead.
func (s *Service) Summarize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	raw, err := s.gen.Generate(ctx, buildPrompt(text, s.maxWords), interfaces.GenerateOption{
		Temperature: 0.3,
		MaxTokens:   s.maxWords * 3 / 2,
	})
	if err != nil {
		logging.From(ctx).Warn("failed to generate summary, falling back to extractive summary", "error", err)
		return Extract(text, s.maxWords)
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return Extract(text, s.maxWords)
	}
	return summary
}

func buildPrompt(text string, maxWords int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the following document content concisely, in no more than %d words.\n", maxWords)
	sb.WriteString("Focus on the main points and key information.\n\n")
	sb.WriteString("Document Content:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nSummary:\n")
	return sb.String()
}
