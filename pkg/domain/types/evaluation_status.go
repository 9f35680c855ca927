package types

import "strings"

// EvaluationStatus is the verdict label of a challenge answer evaluation
type EvaluationStatus string

const (
	EvaluationStatusCorrect          EvaluationStatus = "Correct"
	EvaluationStatusPartiallyCorrect EvaluationStatus = "Partially Correct"
	EvaluationStatusIncorrect        EvaluationStatus = "Incorrect"
	EvaluationStatusUnknown          EvaluationStatus = "Unknown"
)

// IsValid checks if the status is one of the known verdicts
func (s EvaluationStatus) IsValid() bool {
	switch s {
	case EvaluationStatusCorrect,
		EvaluationStatusPartiallyCorrect,
		EvaluationStatusIncorrect:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s EvaluationStatus) String() string {
	return string(s)
}

// ParseEvaluationStatus reads a verdict label written by a model. Matching is
// case-insensitive and tolerates surrounding punctuation and markdown emphasis.
// Anything unrecognized yields EvaluationStatusUnknown.
func ParseEvaluationStatus(s string) EvaluationStatus {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(s), "*_`'\".:;,!"))
	v = strings.Join(strings.Fields(v), " ")

	switch {
	case strings.HasPrefix(v, "partially correct"), strings.HasPrefix(v, "partially-correct"), strings.HasPrefix(v, "partial"):
		return EvaluationStatusPartiallyCorrect
	case strings.HasPrefix(v, "incorrect"), strings.HasPrefix(v, "not correct"):
		return EvaluationStatusIncorrect
	case strings.HasPrefix(v, "correct"):
		return EvaluationStatusCorrect
	default:
		return EvaluationStatusUnknown
	}
}
