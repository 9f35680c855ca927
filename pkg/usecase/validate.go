package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// ValidationIssue represents a single inconsistency between a session and
// the vector index
type ValidationIssue struct {
	SessionID model.SessionID
	Message   string
	Expected  string
	Actual    string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Sessions int
	Issues   []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateDB checks that every session's chunk count matches the number of
// chunks stored in the vector index. It uses counts only and does NOT modify
// any data.
func (uc *SessionUseCase) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	sessions, err := uc.repo.Session().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}

	result := &ValidationResult{Sessions: len(sessions)}
	for _, session := range sessions {
		n, err := uc.index.Count(ctx, session.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to count chunks", goerr.V(model.SessionIDKey, session.ID))
		}

		if n != session.ChunkCount {
			result.AddIssue(ValidationIssue{
				SessionID: session.ID,
				Message:   "chunk count does not match the vector index",
				Expected:  fmt.Sprintf("%d", session.ChunkCount),
				Actual:    fmt.Sprintf("%d", n),
			})
			continue
		}

		if session.ChunkCount > 0 && !session.HasDocument() {
			result.AddIssue(ValidationIssue{
				SessionID: session.ID,
				Message:   "chunks are indexed for a session without document text",
				Expected:  "0",
				Actual:    fmt.Sprintf("%d", n),
			})
		}
	}

	return result, nil
}
