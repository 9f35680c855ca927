package chunker

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunker splits text into overlapping fixed-size windows measured in runes
type Chunker struct {
	size    int
	overlap int
}

// New validates the window configuration. A non-positive size, a negative
// overlap or an overlap that is not smaller than size would never advance.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidChunkConfig, "chunk size must be positive",
			goerr.V("size", size))
	}
	if overlap < 0 {
		return nil, goerr.Wrap(model.ErrInvalidChunkConfig, "chunk overlap must not be negative",
			goerr.V("overlap", overlap))
	}
	if overlap >= size {
		return nil, goerr.Wrap(model.ErrInvalidChunkConfig, "chunk overlap must be smaller than chunk size",
			goerr.V("size", size), goerr.V("overlap", overlap))
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split normalizes whitespace and cuts the result into windows. The last
// window always reaches the end of the text.
func (c *Chunker) Split(text string) []string {
	runes := []rune(Normalize(text))
	n := len(runes)
	if n == 0 {
		return []string{}
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, n/step+1)
	for start := 0; ; start += step {
		end := min(start+c.size, n)
		chunks = append(chunks, string(runes[start:end]))
		if end >= n {
			break
		}
	}
	return chunks
}

// Split is the one-shot form of New followed by Split
func Split(text string, size, overlap int) ([]string, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}

// Normalize collapses every whitespace run into a single space and trims both ends
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
