package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

type askRecordResponse struct {
	RequestID     string    `json:"request_id,omitempty"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Justification string    `json:"justification"`
	AskedAt       time.Time `json:"asked_at"`
}

type sessionResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	DocumentName string              `json:"document_name,omitempty"`
	FileType     string              `json:"file_type,omitempty"`
	Summary      string              `json:"summary,omitempty"`
	ChunkCount   int                 `json:"chunk_count"`
	History      []askRecordResponse `json:"history,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toSessionResponse(session *model.Session, withHistory bool) sessionResponse {
	resp := sessionResponse{
		ID:           session.ID.String(),
		Name:         session.Name,
		DocumentName: session.DocumentName,
		FileType:     session.FileType,
		Summary:      session.Summary,
		ChunkCount:   session.ChunkCount,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}
	if withHistory {
		resp.History = make([]askRecordResponse, len(session.AskHistory))
		for i, rec := range session.AskHistory {
			resp.History[i] = askRecordResponse{
				RequestID:     rec.RequestID,
				Question:      rec.Question,
				Answer:        rec.Answer,
				Justification: rec.Justification,
				AskedAt:       rec.AskedAt,
			}
		}
	}
	return resp
}

func sessionIDParam(r *http.Request) model.SessionID {
	return model.SessionID(chi.URLParam(r, "id"))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decodeRequest(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.uc.Session.Create(r.Context(), req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toSessionResponse(session, false))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Sessions []sessionResponse `json:"sessions"`
	}

	sessions, err := s.uc.Session.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := response{Sessions: make([]sessionResponse, len(sessions))}
	for i, session := range sessions {
		resp.Sessions[i] = toSessionResponse(session, false)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Session.Get(r.Context(), sessionIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(session, true))
}

func (s *Server) renameSession(w http.ResponseWriter, r *http.Request) {
	var req renameSessionRequest
	if err := s.decodeRequest(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.uc.Session.Rename(r.Context(), sessionIDParam(r), req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(session, false))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Session.Delete(r.Context(), sessionIDParam(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
