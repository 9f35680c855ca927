package http

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/utils/safe"
)

// multipart parts above this size are spooled to disk by net/http
const multipartMemory = 8 << 20

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	type response struct {
		SessionID    string `json:"session_id"`
		DocumentName string `json:"document_name"`
		FileType     string `json:"file_type"`
		Summary      string `json:"summary"`
		ChunkCount   int    `json:"chunk_count"`
	}

	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		handleError(w, r, wrapUploadError(err, "failed to parse multipart form"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, goerr.Wrap(model.ErrInvalidArgument, "multipart field 'file' is required"))
		return
	}
	defer safe.Close(ctx, file)

	fileName := filepath.Base(header.Filename)

	// the extension is kept so the temp file is recognizable while it lives
	tmp, err := os.CreateTemp("", "mnemosyne-upload-*"+filepath.Ext(fileName))
	if err != nil {
		handleError(w, r, goerr.Wrap(err, "failed to create temp file"))
		return
	}
	defer safe.Remove(ctx, tmp.Name())

	written := safe.Copy(ctx, tmp, file)
	safe.Close(ctx, tmp)
	if written != header.Size {
		handleError(w, r, goerr.New("failed to store uploaded file",
			goerr.V("written", written), goerr.V("size", header.Size)))
		return
	}

	session, err := s.uc.Document.Upload(ctx, model.SessionContext{SessionID: sessionIDParam(r)}, tmp.Name(), fileName)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, response{
		SessionID:    session.ID.String(),
		DocumentName: session.DocumentName,
		FileType:     session.FileType,
		Summary:      session.Summary,
		ChunkCount:   session.ChunkCount,
	})
}

func wrapUploadError(err error, msg string) error {
	if statusOf(err) == http.StatusRequestEntityTooLarge {
		return goerr.Wrap(err, "uploaded file is too large")
	}
	return goerr.Wrap(model.ErrInvalidArgument, msg, goerr.V("cause", err.Error()))
}
