package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

const maxJSONBodySize = 1 << 20

type createSessionRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type renameSessionRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type askRequest struct {
	Question  string `json:"question" validate:"required"`
	RequestID string `json:"request_id" validate:"omitempty,max=128"`
}

type questionsRequest struct {
	Count int `json:"count" validate:"gte=0"`
}

// Answer may be blank; blank answers are graded as rejected
type evaluateRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

// decodeRequest reads a JSON body into v and validates it. An empty body
// decodes as the zero value.
func (s *Server) decodeRequest(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return goerr.Wrap(model.ErrInvalidArgument, "malformed JSON body", goerr.V("cause", err.Error()))
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return goerr.Wrap(err, "failed to validate request")
		}
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed on '%s'", strings.ToLower(e.Field()), e.Tag()))
		}
		return goerr.Wrap(model.ErrInvalidArgument, "invalid request: "+strings.Join(fields, ", "))
	}
	return nil
}
