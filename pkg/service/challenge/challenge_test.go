package challenge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/challenge"
)

type mockGenerator struct {
	calls    int
	prompts  []string
	options  []interfaces.GenerateOption
	response string
	err      error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opt interfaces.GenerateOption) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

const relativityDoc = "The theory of relativity, developed by Albert Einstein, comprises special relativity and general relativity. " +
	"General relativity explains gravitation through spacetime curvature."

func TestGenerateQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("numbered lines are parsed", func(t *testing.T) {
		gen := &mockGenerator{response: "Here are your questions:\n1. Why does general relativity need curvature?\n2. How do the two theories differ?\n3. What unifies them?\n"}
		questions := challenge.New(gen).GenerateQuestions(ctx, relativityDoc, 3)

		gt.Array(t, questions).Length(3).Required()
		gt.Value(t, questions[0]).Equal("Why does general relativity need curvature?")
		gt.Value(t, questions[2]).Equal("What unifies them?")

		gt.Number(t, gen.calls).Equal(1)
		gt.Value(t, gen.options[0].Temperature).Equal(0.7)
		gt.Number(t, gen.options[0].MaxTokens).Equal(250)
		gt.String(t, gen.prompts[0]).Contains("generate exactly 3")
		gt.String(t, gen.prompts[0]).Contains(relativityDoc)
	})

	t.Run("blank document makes no call", func(t *testing.T) {
		gen := &mockGenerator{response: "1. unused"}
		questions := challenge.New(gen).GenerateQuestions(ctx, "  \n ", 3)
		gt.Array(t, questions).Length(0)
		gt.Number(t, gen.calls).Equal(0)
	})

	t.Run("provider failure yields no questions", func(t *testing.T) {
		gen := &mockGenerator{err: errors.New("quota exceeded")}
		questions := challenge.New(gen).GenerateQuestions(ctx, relativityDoc, 3)
		gt.Value(t, questions).NotNil()
		gt.Array(t, questions).Length(0)
	})

	t.Run("non-positive count uses configured default", func(t *testing.T) {
		gen := &mockGenerator{response: "1. a\n2. b\n3. c"}
		questions := challenge.New(gen, challenge.WithQuestionCount(2)).GenerateQuestions(ctx, relativityDoc, 0)
		gt.Array(t, questions).Length(2)
		gt.String(t, gen.prompts[0]).Contains("generate exactly 2")
	})
}

func TestParseQuestions(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		n    int
		want []string
	}{
		{
			name: "plain list",
			raw:  "1. First?\n2. Second?",
			n:    3,
			want: []string{"First?", "Second?"},
		},
		{
			name: "indented and bolded",
			raw:  "  1.  **First?**\r\n  2.\tSecond?\r\n",
			n:    3,
			want: []string{"First?", "Second?"},
		},
		{
			name: "non matching lines are discarded",
			raw:  "Questions:\n- bullet\n1. Kept?\nQ2. no\n10. Also kept?",
			n:    5,
			want: []string{"Kept?", "Also kept?"},
		},
		{
			name: "truncated to n",
			raw:  "1. a\n2. b\n3. c\n4. d",
			n:    2,
			want: []string{"a", "b"},
		},
		{
			name: "nothing parseable",
			raw:  "I cannot generate questions.",
			n:    3,
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, challenge.ParseQuestions(tc.raw, tc.n)).Equal(tc.want)
		})
	}
}

func TestEvaluateAnswerRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("blank answer", func(t *testing.T) {
		gen := &mockGenerator{response: "Evaluation Status: Correct\nScore: 10/10"}
		eval := challenge.New(gen).EvaluateAnswer(ctx, "q", "   ", relativityDoc)

		gt.Bool(t, eval.IsCorrect).False()
		gt.Number(t, eval.Score).Equal(0)
		gt.Value(t, eval.Justification).Equal(model.EmptyAnswerMessage)
		gt.Value(t, eval.DesiredSnippet).Equal("N/A")
		gt.Number(t, gen.calls).Equal(0)
	})

	t.Run("empty answer", func(t *testing.T) {
		gen := &mockGenerator{}
		eval := challenge.New(gen).EvaluateAnswer(ctx, "q", "", relativityDoc)
		gt.Bool(t, eval.IsCorrect).False()
		gt.Number(t, eval.Score).Equal(0)
		gt.Number(t, gen.calls).Equal(0)
	})

	t.Run("empty document", func(t *testing.T) {
		gen := &mockGenerator{}
		eval := challenge.New(gen).EvaluateAnswer(ctx, "q", "an answer", "")
		gt.Bool(t, eval.IsCorrect).False()
		gt.Value(t, eval.Justification).Equal(model.NoDocumentMessage)
		gt.Number(t, gen.calls).Equal(0)
	})

	t.Run("provider failure", func(t *testing.T) {
		gen := &mockGenerator{err: model.AsProviderFailure(errors.New("timeout"))}
		eval := challenge.New(gen).EvaluateAnswer(ctx, "q", "an answer", relativityDoc)
		gt.Bool(t, eval.IsCorrect).False()
		gt.Number(t, eval.Score).Equal(0)
		gt.Value(t, eval.Justification).Equal(model.EvaluationFailureMessage)
		gt.Value(t, eval.DesiredSnippet).Equal("N/A")
		gt.Number(t, gen.calls).Equal(1)
	})
}

func TestEvaluateAnswerScoreOverridesStatus(t *testing.T) {
	gen := &mockGenerator{response: "Evaluation Status: Correct\nScore: 5/10\nJustification: Mentions curvature only.\nDesired Answer Snippet: spacetime curvature explains gravitation"}
	eval := challenge.New(gen).EvaluateAnswer(context.Background(), "q", "curvature", relativityDoc)

	gt.Value(t, eval.Status).Equal(types.EvaluationStatusCorrect)
	gt.Number(t, eval.Score).Equal(5)
	gt.Bool(t, eval.IsCorrect).False()

	gt.Value(t, gen.options[0].Temperature).Equal(0.1)
	gt.Number(t, gen.options[0].MaxTokens).Equal(500)
	gt.String(t, gen.prompts[0]).Contains("User Answer: curvature")
}

func TestEvaluateAnswerThreshold(t *testing.T) {
	gen := &mockGenerator{response: "Evaluation Status: Correct\nScore: 5/10"}

	eval := challenge.New(gen, challenge.WithThreshold(5)).EvaluateAnswer(context.Background(), "q", "a", relativityDoc)
	gt.Bool(t, eval.IsCorrect).True()

	eval = challenge.New(gen, challenge.WithThreshold(6)).EvaluateAnswer(context.Background(), "q", "a", relativityDoc)
	gt.Bool(t, eval.IsCorrect).False()
}

func TestParseEvaluation(t *testing.T) {
	testCases := []struct {
		name          string
		raw           string
		status        types.EvaluationStatus
		score         int
		correct       bool
		justification string
		snippet       string
	}{
		{
			name:          "plain labels",
			raw:           "Evaluation Status: Correct\nScore: 9/10\nJustification: Accurate.\nDesired Answer Snippet: N/A",
			status:        types.EvaluationStatusCorrect,
			score:         9,
			correct:       true,
			justification: "Accurate.",
			snippet:       "N/A",
		},
		{
			name: "markdown numbered list with suffix",
			raw: "1.  **Evaluation Status:** Partially Correct\n" +
				"2.  **Score:** 6\n" +
				"3.  **Justification:** The answer names special relativity\nbut misses curvature.\n" +
				"4.  **Desired Answer Snippet (if applicable):** General relativity uses spacetime curvature.",
			status:        types.EvaluationStatusPartiallyCorrect,
			score:         6,
			correct:       false,
			justification: "The answer names special relativity\nbut misses curvature.",
			snippet:       "General relativity uses spacetime curvature.",
		},
		{
			name:          "lowercase labels and bold value",
			raw:           "evaluation status: **correct**\nscore: 10/10\njustification: complete\ndesired answer snippet: n/a",
			status:        types.EvaluationStatusCorrect,
			score:         10,
			correct:       true,
			justification: "complete",
			snippet:       "N/A",
		},
		{
			name:          "score is clamped",
			raw:           "Evaluation Status: Correct\nScore: 15/10",
			status:        types.EvaluationStatusCorrect,
			score:         10,
			correct:       true,
			justification: model.JustificationUnparsed,
			snippet:       "N/A",
		},
		{
			name:          "incorrect with high score is not correct",
			raw:           "Evaluation Status: Incorrect\nScore: 8",
			status:        types.EvaluationStatusIncorrect,
			score:         8,
			correct:       false,
			justification: model.JustificationUnparsed,
			snippet:       "N/A",
		},
		{
			name:          "unstructured response",
			raw:           "Great answer!",
			status:        types.EvaluationStatusUnknown,
			score:         0,
			correct:       false,
			justification: model.JustificationUnparsed,
			snippet:       "N/A",
		},
		{
			name:          "unparseable score",
			raw:           "Evaluation Status: Correct\nScore: excellent\nJustification: ok",
			status:        types.EvaluationStatusCorrect,
			score:         0,
			correct:       false,
			justification: "ok",
			snippet:       "N/A",
		},
		{
			name:          "sections out of order",
			raw:           "Justification: fine\nScore: 7\nEvaluation Status: Correct",
			status:        types.EvaluationStatusCorrect,
			score:         7,
			correct:       true,
			justification: "fine",
			snippet:       "N/A",
		},
		{
			name:          "status and score on one line",
			raw:           "Evaluation Status: Correct | Score: 9/10\nJustification: fine",
			status:        types.EvaluationStatusCorrect,
			score:         9,
			correct:       true,
			justification: "fine",
			snippet:       "N/A",
		},
		{
			name:          "all labels on one line",
			raw:           "Evaluation Status: Partially Correct; Score: 5/10; Justification: misses the date; Desired Answer Snippet: Signed in 1215.",
			status:        types.EvaluationStatusPartiallyCorrect,
			score:         5,
			correct:       false,
			justification: "misses the date",
			snippet:       "Signed in 1215.",
		},
		{
			name:          "empty",
			raw:           "",
			status:        types.EvaluationStatusUnknown,
			justification: model.JustificationUnparsed,
			snippet:       "N/A",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eval := challenge.ParseEvaluation(tc.raw, model.DefaultCorrectThreshold)
			gt.Value(t, eval.Status).Equal(tc.status)
			gt.Number(t, eval.Score).Equal(tc.score)
			gt.Value(t, eval.IsCorrect).Equal(tc.correct)
			gt.Value(t, eval.Justification).Equal(tc.justification)
			gt.Value(t, eval.DesiredSnippet).Equal(tc.snippet)
		})
	}
}
