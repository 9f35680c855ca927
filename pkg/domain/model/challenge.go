package model

import "github.com/secmon-lab/mnemosyne/pkg/domain/types"

// Fixed values used by the challenge evaluator
const (
	EmptyAnswerMessage       = "Please provide an answer to evaluate."
	NoDocumentMessage        = "No document content is available to evaluate against."
	EvaluationFailureMessage = "An error occurred while evaluating the answer. Please try again."
	JustificationUnparsed    = "could not parse"
	SnippetNotAvailable      = "N/A"

	// DefaultCorrectThreshold is the minimum score for an answer labeled
	// Correct to be counted as correct
	DefaultCorrectThreshold = 7
	MaxScore                = 10
)

// ChallengeQuestion is a generated comprehension question
type ChallengeQuestion struct {
	Text string
}

// Evaluation is the graded result of one answer to a challenge question
type Evaluation struct {
	Status         types.EvaluationStatus
	IsCorrect      bool
	Score          int
	Justification  string
	DesiredSnippet string
}

// RejectedEvaluation is returned without consulting a model
func RejectedEvaluation(message string) *Evaluation {
	return &Evaluation{
		Status:         types.EvaluationStatusIncorrect,
		IsCorrect:      false,
		Score:          0,
		Justification:  message,
		DesiredSnippet: SnippetNotAvailable,
	}
}
