package http

import (
	"net/http"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

func (s *Server) challengeQuestions(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Questions []string `json:"questions"`
	}

	var req questionsRequest
	if err := s.decodeRequest(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	questions, err := s.uc.Challenge.Questions(r.Context(), model.SessionContext{SessionID: sessionIDParam(r)}, req.Count)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := response{Questions: make([]string, len(questions))}
	for i, q := range questions {
		resp.Questions[i] = q.Text
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) challengeEvaluate(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status         string `json:"status"`
		IsCorrect      bool   `json:"is_correct"`
		Score          int    `json:"score"`
		Justification  string `json:"justification"`
		DesiredSnippet string `json:"desired_snippet"`
	}

	var req evaluateRequest
	if err := s.decodeRequest(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	eval, err := s.uc.Challenge.Evaluate(r.Context(), model.SessionContext{SessionID: sessionIDParam(r)}, req.Question, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, response{
		Status:         eval.Status.String(),
		IsCorrect:      eval.IsCorrect,
		Score:          eval.Score,
		Justification:  eval.Justification,
		DesiredSnippet: eval.DesiredSnippet,
	})
}
