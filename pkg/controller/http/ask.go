package http

import (
	"net/http"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	type response struct {
		RequestID     string    `json:"request_id,omitempty"`
		Question      string    `json:"question"`
		Answer        string    `json:"answer"`
		Justification string    `json:"justification"`
		Recorded      bool      `json:"recorded"`
		AskedAt       time.Time `json:"asked_at"`
	}

	var req askRequest
	if err := s.decodeRequest(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	sc := model.SessionContext{
		SessionID: sessionIDParam(r),
		RequestID: req.RequestID,
	}
	result, err := s.uc.Ask.Ask(r.Context(), sc, req.Question)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, response{
		RequestID:     result.RequestID,
		Question:      result.Question,
		Answer:        result.Answer,
		Justification: result.Justification,
		Recorded:      result.Recorded,
		AskedAt:       result.AskedAt,
	})
}
