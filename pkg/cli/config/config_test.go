package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/cli/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mnemosyne.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadRAGConfiguration(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeConfig(t, `
[chunk]
size = 500
overlap = 50

[retrieve]
top_k = 8
dedupe = true

[provider]
timeout = "30s"
`)
		cfg, err := config.LoadRAGConfiguration(path)
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.ChunkSize).Equal(500)
		gt.Value(t, cfg.ChunkOverlap).Equal(50)
		gt.Value(t, cfg.TopK).Equal(8)
		gt.Bool(t, cfg.Dedupe).True()
		gt.Value(t, cfg.ProviderTimeout).Equal(30 * time.Second)

		// untouched keys
		gt.Value(t, cfg.QuestionCount).Equal(3)
		gt.Value(t, cfg.CorrectThreshold).Equal(7)
		gt.Value(t, cfg.RetryMaxDelay).Equal(5 * time.Second)
	})

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "overlap not smaller than size",
			content: "[chunk]\nsize = 100\noverlap = 100\n",
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "threshold above max score",
			content: "[challenge]\ncorrect_threshold = 11\n",
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "bad duration",
			content: "[provider]\ntimeout = \"soon\"\n",
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "malformed TOML",
			content: "[chunk\nsize = 1",
			wantErr: config.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadRAGConfiguration(writeConfig(t, tt.content))
			gt.Bool(t, errors.Is(err, tt.wantErr)).True()
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadRAGConfiguration(filepath.Join(t.TempDir(), "none.toml"))
		gt.Bool(t, errors.Is(err, config.ErrConfigNotFound)).True()
	})
}

func TestRAG_ConfigureWithoutFile(t *testing.T) {
	cfg, err := config.NewRAGForTest("").Configure()
	gt.NoError(t, err).Required()
	gt.Value(t, cfg.ChunkSize).Equal(1000)
	gt.Value(t, cfg.ChunkOverlap).Equal(200)
	gt.Value(t, cfg.TopK).Equal(5)
}
