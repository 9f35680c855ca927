package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/challenge"
)

type ChallengeUseCase struct {
	repo      interfaces.Repository
	challenge *challenge.Service
}

func NewChallengeUseCase(repo interfaces.Repository, svc *challenge.Service) *ChallengeUseCase {
	return &ChallengeUseCase{
		repo:      repo,
		challenge: svc,
	}
}

// Questions generates n questions from the session's document; n <= 0 uses
// the configured count
func (uc *ChallengeUseCase) Questions(ctx context.Context, sc model.SessionContext, n int) ([]model.ChallengeQuestion, error) {
	if n > MaxQuestionCount {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "too many questions requested",
			goerr.V("count", n), goerr.V("max", MaxQuestionCount))
	}

	session, err := uc.documentSession(ctx, sc)
	if err != nil {
		return nil, err
	}

	texts := uc.challenge.GenerateQuestions(ctx, session.FullText, n)
	questions := make([]model.ChallengeQuestion, len(texts))
	for i, text := range texts {
		questions[i] = model.ChallengeQuestion{Text: text}
	}
	return questions, nil
}

// Evaluate grades answer against the session's document. Blank answers are
// graded as rejected, not returned as errors.
func (uc *ChallengeUseCase) Evaluate(ctx context.Context, sc model.SessionContext, question, answer string) (*model.Evaluation, error) {
	if strings.TrimSpace(question) == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "question is required", goerr.V(model.SessionIDKey, sc.SessionID))
	}

	session, err := uc.documentSession(ctx, sc)
	if err != nil {
		return nil, err
	}

	return uc.challenge.EvaluateAnswer(ctx, question, answer, session.FullText), nil
}

func (uc *ChallengeUseCase) documentSession(ctx context.Context, sc model.SessionContext) (*model.Session, error) {
	if err := sc.SessionID.Validate(); err != nil {
		return nil, err
	}

	session, err := uc.repo.Session().Get(ctx, sc.SessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, sc.SessionID))
	}
	if !session.HasDocument() {
		return nil, goerr.Wrap(model.ErrNoDocument, "upload a document before starting a challenge",
			goerr.V(model.SessionIDKey, sc.SessionID))
	}
	return session, nil
}
