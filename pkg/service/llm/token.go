package llm

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// TokenCounter estimates prompt size with a tiktoken encoding. It is an
// approximation for non-OpenAI models, which is enough for budgeting.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter accepts an encoding name such as cl100k_base or a model
// name such as gpt-4o
func NewTokenCounter(name string) (*TokenCounter, error) {
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		var modelErr error
		enc, modelErr = tiktoken.EncodingForModel(name)
		if modelErr != nil {
			return nil, goerr.Wrap(err, "failed to load tiktoken encoding", goerr.V("name", name))
		}
	}

	return &TokenCounter{enc: enc}, nil
}

func (c *TokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
