package challenge

import (
	"context"
	"fmt"
	"strings"

	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

const DefaultQuestionCount = 3

var (
	questionOption = interfaces.GenerateOption{Temperature: 0.7, MaxTokens: 250}
	evaluateOption = interfaces.GenerateOption{Temperature: 0.1, MaxTokens: 500}
)

// Service generates comprehension questions from a document and grades
// free-text answers against it
type Service struct {
	gen           interfaces.Generator
	threshold     int
	questionCount int
}

type Option func(*Service)

// WithThreshold sets the minimum score for a Correct verdict to count as correct
func WithThreshold(score int) Option {
	return func(s *Service) {
		s.threshold = score
	}
}

// WithQuestionCount sets the number of questions generated when none is requested
func WithQuestionCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.questionCount = n
		}
	}
}

func New(gen interfaces.Generator, opts ...Option) *Service {
	s := &Service{
		gen:           gen,
		threshold:     model.DefaultCorrectThreshold,
		questionCount: DefaultQuestionCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Threshold() int { return s.threshold }

// GenerateQuestions returns at most n questions. A blank document returns
// nothing without calling the provider, and provider failures are logged and
// yield an empty slice.
func (s *Service) GenerateQuestions(ctx context.Context, doc string, n int) []string {
	if strings.TrimSpace(doc) == "" {
		return []string{}
	}
	if n <= 0 {
		n = s.questionCount
	}

	raw, err := s.gen.Generate(ctx, BuildQuestionPrompt(doc, n), questionOption)
	if err != nil {
		logging.From(ctx).Error("failed to generate challenge questions",
			"error", err,
			"count", n,
		)
		return []string{}
	}

	return ParseQuestions(raw, n)
}

// EvaluateAnswer grades answer against doc. Blank answers and empty
// documents are rejected without calling the provider.
func (s *Service) EvaluateAnswer(ctx context.Context, question, answer, doc string) *model.Evaluation {
	if strings.TrimSpace(answer) == "" {
		return model.RejectedEvaluation(model.EmptyAnswerMessage)
	}
	if strings.TrimSpace(doc) == "" {
		return model.RejectedEvaluation(model.NoDocumentMessage)
	}

	raw, err := s.gen.Generate(ctx, BuildEvaluationPrompt(question, answer, doc), evaluateOption)
	if err != nil {
		logging.From(ctx).Error("failed to evaluate answer", "error", err)
		eval := model.RejectedEvaluation(model.EvaluationFailureMessage)
		eval.Status = types.EvaluationStatusUnknown
		return eval
	}

	return ParseEvaluation(raw, s.threshold)
}

func BuildQuestionPrompt(doc string, n int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Based on the following document, generate exactly %d distinct, concise, logic-based or comprehension-focused questions.\n", n)
	sb.WriteString("The questions must require understanding and inference, not just direct recall.\n")
	sb.WriteString("Each question must be a single, clear sentence.\n")
	sb.WriteString("Write them as a numbered list, one per line, in the form \"1. <question>\", and output nothing else.\n\n")

	sb.WriteString("Document:\n")
	sb.WriteString(doc)
	sb.WriteString("\n\nQuestions:\n")

	return sb.String()
}

func BuildEvaluationPrompt(question, answer, doc string) string {
	var sb strings.Builder

	sb.WriteString("You are an evaluator. Assess the User Answer to the Question based only on the Document Content.\n\n")
	sb.WriteString("Respond with exactly these four labeled sections:\n")
	sb.WriteString("Evaluation Status: one of Correct, Partially Correct or Incorrect.\n")
	sb.WriteString("Score: an integer from 0 to 10, written as <n>/10.\n")
	sb.WriteString("  10: perfect answer, fully accurate and complete according to the document.\n")
	sb.WriteString("  7-9: mostly correct but lacking minor details or precision.\n")
	sb.WriteString("  4-6: partially correct, significantly incomplete or containing inaccuracies.\n")
	sb.WriteString("  0-3: largely incorrect, irrelevant or showing a misunderstanding of the document.\n")
	sb.WriteString("Justification: explain specifically why the answer received its score, referencing the document.\n")
	sb.WriteString("Desired Answer Snippet: the missing or incorrectly addressed information from the document that would make the answer perfect, or N/A if the score is 10.\n\n")

	sb.WriteString("Document Content:\n")
	sb.WriteString(doc)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Question: %s\n", question)
	fmt.Fprintf(&sb, "User Answer: %s\n\n", answer)
	sb.WriteString("Evaluation:\n")

	return sb.String()
}
