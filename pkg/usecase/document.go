package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/chunker"
	"github.com/secmon-lab/mnemosyne/pkg/service/index"
	"github.com/secmon-lab/mnemosyne/pkg/service/summary"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

type DocumentUseCase struct {
	repo      interfaces.Repository
	index     *index.Index
	extractor interfaces.TextExtractor
	chunker   *chunker.Chunker
	summary   *summary.Service
	now       func() time.Time
}

func NewDocumentUseCase(repo interfaces.Repository, idx *index.Index, extractor interfaces.TextExtractor, ch *chunker.Chunker, sum *summary.Service, now func() time.Time) *DocumentUseCase {
	return &DocumentUseCase{
		repo:      repo,
		index:     idx,
		extractor: extractor,
		chunker:   ch,
		summary:   sum,
		now:       now,
	}
}

// Upload ingests the file at path into the session, replacing any document
// ingested before. fileName decides the file type. Nothing is indexed when
// extraction yields no text.
func (uc *DocumentUseCase) Upload(ctx context.Context, sc model.SessionContext, path, fileName string) (*model.Session, error) {
	if err := sc.SessionID.Validate(); err != nil {
		return nil, err
	}

	fileType, err := types.FileTypeFromName(fileName)
	if err != nil {
		return nil, goerr.Wrap(model.ErrInvalidArgument, err.Error(), goerr.V("file_name", fileName))
	}

	session, err := uc.repo.Session().Get(ctx, sc.SessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, sc.SessionID))
	}

	text := uc.extractor.Extract(ctx, path, fileType)
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrIngestionFailure, "extracted text is empty",
			goerr.V(model.SessionIDKey, sc.SessionID),
			goerr.V("file_name", fileName),
			goerr.V(model.FileTypeKey, fileType))
	}

	chunks := uc.chunker.Split(text)

	if err := uc.index.ReplaceSession(ctx, sc.SessionID, chunks, nil); err != nil {
		if errors.Is(err, index.ErrIndexCleared) {
			uc.dropDocument(ctx, session)
		}
		return nil, goerr.Wrap(err, "failed to index document", goerr.V(model.SessionIDKey, sc.SessionID))
	}

	session.DocumentName = fileName
	session.FileType = fileType.String()
	session.FullText = text
	session.Summary = uc.summary.Summarize(ctx, text)
	session.ChunkCount = len(chunks)
	session.UpdatedAt = uc.now()

	if err := uc.repo.Session().Put(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to save session", goerr.V(model.SessionIDKey, sc.SessionID))
	}

	logging.From(ctx).Info("document ingested",
		"session_id", sc.SessionID,
		"file_name", fileName,
		"file_type", fileType,
		"chunks", len(chunks),
	)
	return session, nil
}

// dropDocument detaches the previous document from a session whose chunks
// are gone, so asks report ErrNoDocument instead of answering from nothing
func (uc *DocumentUseCase) dropDocument(ctx context.Context, session *model.Session) {
	// a partial upsert may have left chunks behind
	if err := uc.index.DeleteSession(ctx, session.ID); err != nil {
		logging.From(ctx).Warn("failed to clear leftover chunks", "error", err, "session_id", session.ID)
	}
	if !session.HasDocument() {
		return
	}

	session.DocumentName = ""
	session.FileType = ""
	session.FullText = ""
	session.Summary = ""
	session.ChunkCount = 0
	session.UpdatedAt = uc.now()

	if err := uc.repo.Session().Put(ctx, session); err != nil {
		logging.From(ctx).Error("failed to detach document from session", "error", err, "session_id", session.ID)
	}
}
