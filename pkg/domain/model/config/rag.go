package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// RAG holds the tunables of the retrieval-augmented generation core
type RAG struct {
	ChunkSize    int
	ChunkOverlap int

	TopK              int
	Dedupe            bool
	ContextTokenLimit int

	QuestionCount    int
	CorrectThreshold int

	SummaryMaxWords int

	ProviderTimeout time.Duration
	MaxRetries      int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
}

// DefaultRAG returns the configuration used when no config file is given
func DefaultRAG() *RAG {
	return &RAG{
		ChunkSize:         1000,
		ChunkOverlap:      200,
		TopK:              5,
		Dedupe:            false,
		ContextTokenLimit: 0,
		QuestionCount:     3,
		CorrectThreshold:  7,
		SummaryMaxWords:   150,
		ProviderTimeout:   60 * time.Second,
		MaxRetries:        3,
		RetryBaseDelay:    200 * time.Millisecond,
		RetryMaxDelay:     5 * time.Second,
	}
}

// Validate checks the configuration is usable
func (r *RAG) Validate() error {
	if r.ChunkSize <= 0 {
		return goerr.New("chunk size must be positive", goerr.V("chunk_size", r.ChunkSize))
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return goerr.New("chunk overlap must be in [0, chunk size)",
			goerr.V("chunk_size", r.ChunkSize),
			goerr.V("chunk_overlap", r.ChunkOverlap))
	}
	if r.TopK <= 0 {
		return goerr.New("top_k must be positive", goerr.V("top_k", r.TopK))
	}
	if r.ContextTokenLimit < 0 {
		return goerr.New("context token limit must not be negative", goerr.V("context_token_limit", r.ContextTokenLimit))
	}
	if r.QuestionCount <= 0 || r.QuestionCount > 20 {
		return goerr.New("question count must be between 1 and 20", goerr.V("question_count", r.QuestionCount))
	}
	if r.CorrectThreshold < 0 || r.CorrectThreshold > 10 {
		return goerr.New("correct threshold must be between 0 and 10", goerr.V("correct_threshold", r.CorrectThreshold))
	}
	if r.SummaryMaxWords <= 0 {
		return goerr.New("summary max words must be positive", goerr.V("summary_max_words", r.SummaryMaxWords))
	}
	if r.ProviderTimeout <= 0 {
		return goerr.New("provider timeout must be positive", goerr.V("provider_timeout", r.ProviderTimeout))
	}
	if r.MaxRetries < 0 {
		return goerr.New("max retries must not be negative", goerr.V("max_retries", r.MaxRetries))
	}
	if r.RetryBaseDelay < 0 || r.RetryMaxDelay < r.RetryBaseDelay {
		return goerr.New("retry delays must satisfy 0 <= base <= max",
			goerr.V("retry_base_delay", r.RetryBaseDelay),
			goerr.V("retry_max_delay", r.RetryMaxDelay))
	}
	return nil
}
