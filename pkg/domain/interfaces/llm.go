package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// Embedder computes one embedding per input text, preserving order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateOption controls a single generation call
type GenerateOption struct {
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, opt GenerateOption) (string, error)
}

// TextExtractor reads the raw text of an uploaded file. An empty string means
// nothing usable could be extracted.
type TextExtractor interface {
	Extract(ctx context.Context, path string, fileType types.FileType) string
}
