package config_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model/config"
)

func TestDefaultRAG(t *testing.T) {
	cfg := config.DefaultRAG()
	gt.NoError(t, cfg.Validate())
	gt.Value(t, cfg.ChunkSize).Equal(1000)
	gt.Value(t, cfg.ChunkOverlap).Equal(200)
	gt.Value(t, cfg.TopK).Equal(5)
	gt.Value(t, cfg.CorrectThreshold).Equal(7)
}

func TestRAG_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *config.RAG)
	}{
		{"zero chunk size", func(c *config.RAG) { c.ChunkSize = 0 }},
		{"overlap equals size", func(c *config.RAG) { c.ChunkOverlap = c.ChunkSize }},
		{"negative overlap", func(c *config.RAG) { c.ChunkOverlap = -1 }},
		{"zero top k", func(c *config.RAG) { c.TopK = 0 }},
		{"too many questions", func(c *config.RAG) { c.QuestionCount = 21 }},
		{"threshold above max score", func(c *config.RAG) { c.CorrectThreshold = 11 }},
		{"no timeout", func(c *config.RAG) { c.ProviderTimeout = 0 }},
		{"negative retries", func(c *config.RAG) { c.MaxRetries = -1 }},
		{"base delay above max", func(c *config.RAG) { c.RetryBaseDelay = 10 * time.Second }},
		{"negative token limit", func(c *config.RAG) { c.ContextTokenLimit = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultRAG()
			tt.modify(cfg)
			gt.Value(t, cfg.Validate()).NotNil()
		})
	}
}
