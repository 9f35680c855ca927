package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/grounded"
	"github.com/secmon-lab/mnemosyne/pkg/service/retrieval"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

// AskResult is the answer to one question. Recorded reports whether it was
// appended to the session history; failure answers are not.
type AskResult struct {
	model.AskRecord
	Recorded bool
}

type AskUseCase struct {
	repo      interfaces.Repository
	retrieval *retrieval.Service
	grounded  *grounded.Generator
	now       func() time.Time

	group singleflight.Group
	// serializes history appends per session
	locks sync.Map
}

func NewAskUseCase(repo interfaces.Repository, ret *retrieval.Service, gen *grounded.Generator, now func() time.Time) *AskUseCase {
	return &AskUseCase{
		repo:      repo,
		retrieval: ret,
		grounded:  gen,
		now:       now,
	}
}

// Ask answers question from the session's document. With a request ID,
// concurrent duplicates share one answer and a request already recorded
// returns the stored record.
func (uc *AskUseCase) Ask(ctx context.Context, sc model.SessionContext, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "question is required", goerr.V(model.SessionIDKey, sc.SessionID))
	}
	if err := sc.SessionID.Validate(); err != nil {
		return nil, err
	}

	if sc.RequestID == "" {
		return uc.ask(ctx, sc, question)
	}

	key := string(sc.SessionID) + "/" + sc.RequestID
	v, err, shared := uc.group.Do(key, func() (any, error) {
		return uc.ask(ctx, sc, question)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.From(ctx).Debug("duplicate ask request collapsed",
			"session_id", sc.SessionID,
			"request_id", sc.RequestID,
		)
	}

	result := *v.(*AskResult)
	return &result, nil
}

func (uc *AskUseCase) ask(ctx context.Context, sc model.SessionContext, question string) (*AskResult, error) {
	session, err := uc.repo.Session().Get(ctx, sc.SessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, sc.SessionID))
	}
	if rec, ok := session.FindRequest(sc.RequestID); ok {
		return &AskResult{AskRecord: *rec, Recorded: true}, nil
	}
	if !session.HasDocument() {
		return nil, goerr.Wrap(model.ErrNoDocument, "upload a document before asking", goerr.V(model.SessionIDKey, sc.SessionID))
	}

	record := model.AskRecord{
		RequestID: sc.RequestID,
		Question:  question,
	}

	retrieved, err := uc.retrieval.Retrieve(ctx, sc.SessionID, question, 0)
	if err != nil {
		if !errors.Is(err, model.ErrProviderFailure) {
			return nil, err
		}
		logging.From(ctx).Error("failed to retrieve context", "error", err, "session_id", sc.SessionID)
		record.Answer = model.ProviderFailureAnswer
		record.AskedAt = uc.now()
		return &AskResult{AskRecord: record}, nil
	}

	answer := uc.grounded.Answer(ctx, question, retrieved.Chunks)
	record.Answer = answer.Answer
	record.Justification = answer.Justification
	record.AskedAt = uc.now()

	if answer.Answer == model.ProviderFailureAnswer {
		return &AskResult{AskRecord: record}, nil
	}

	if err := uc.appendHistory(ctx, sc.SessionID, record); err != nil {
		return nil, err
	}
	return &AskResult{AskRecord: record, Recorded: true}, nil
}

func (uc *AskUseCase) appendHistory(ctx context.Context, sessionID model.SessionID, record model.AskRecord) error {
	mu, _ := uc.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	// reload so answers finished in the meantime are kept
	session, err := uc.repo.Session().Get(ctx, sessionID)
	if err != nil {
		return goerr.Wrap(err, "failed to reload session", goerr.V(model.SessionIDKey, sessionID))
	}

	session.AskHistory = append(session.AskHistory, record)
	session.UpdatedAt = record.AskedAt
	if err := uc.repo.Session().Put(ctx, session); err != nil {
		return goerr.Wrap(err, "failed to save ask history", goerr.V(model.SessionIDKey, sessionID))
	}
	return nil
}
