package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/mnemosyne/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// RAGFile is the TOML representation of the RAG tunables. Every key is
// optional; missing keys keep their defaults.
type RAGFile struct {
	Chunk     ChunkSection     `toml:"chunk"`
	Retrieve  RetrieveSection  `toml:"retrieve"`
	Challenge ChallengeSection `toml:"challenge"`
	Summary   SummarySection   `toml:"summary"`
	Provider  ProviderSection  `toml:"provider"`
}

type ChunkSection struct {
	Size    *int `toml:"size"`
	Overlap *int `toml:"overlap"`
}

type RetrieveSection struct {
	TopK              *int  `toml:"top_k"`
	Dedupe            *bool `toml:"dedupe"`
	ContextTokenLimit *int  `toml:"context_token_limit"`
}

type ChallengeSection struct {
	QuestionCount    *int `toml:"question_count"`
	CorrectThreshold *int `toml:"correct_threshold"`
}

type SummarySection struct {
	MaxWords *int `toml:"max_words"`
}

// ProviderSection durations use time.ParseDuration syntax such as "60s"
type ProviderSection struct {
	Timeout        string `toml:"timeout"`
	MaxRetries     *int   `toml:"max_retries"`
	RetryBaseDelay string `toml:"retry_base_delay"`
	RetryMaxDelay  string `toml:"retry_max_delay"`
}

// RAG holds the CLI flag pointing at the optional TOML file
type RAG struct {
	path string
}

// Flags returns CLI flags for RAG configuration
func (r *RAG) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML file with RAG tunables",
			Sources:     cli.EnvVars("MNEMOSYNE_CONFIG"),
			Destination: &r.path,
		},
	}
}

// Configure returns the defaults overlaid with the config file, if any
func (r *RAG) Configure() (*domainConfig.RAG, error) {
	if r.path == "" {
		return domainConfig.DefaultRAG(), nil
	}
	return LoadRAGConfiguration(r.path)
}

// LoadRAGConfiguration loads RAG tunables from a TOML file
func LoadRAGConfiguration(path string) (*domainConfig.RAG, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "RAG config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file RAGFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	cfg, err := file.ToDomainRAG()
	if err != nil {
		return nil, goerr.Wrap(err, "invalid RAG config", goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V(ConfigPathKey, path))
	}

	return cfg, nil
}

// ToDomainRAG converts RAGFile to domain RAG, starting from the defaults
func (f *RAGFile) ToDomainRAG() (*domainConfig.RAG, error) {
	cfg := domainConfig.DefaultRAG()

	setInt(&cfg.ChunkSize, f.Chunk.Size)
	setInt(&cfg.ChunkOverlap, f.Chunk.Overlap)
	setInt(&cfg.TopK, f.Retrieve.TopK)
	setInt(&cfg.ContextTokenLimit, f.Retrieve.ContextTokenLimit)
	if f.Retrieve.Dedupe != nil {
		cfg.Dedupe = *f.Retrieve.Dedupe
	}
	setInt(&cfg.QuestionCount, f.Challenge.QuestionCount)
	setInt(&cfg.CorrectThreshold, f.Challenge.CorrectThreshold)
	setInt(&cfg.SummaryMaxWords, f.Summary.MaxWords)
	setInt(&cfg.MaxRetries, f.Provider.MaxRetries)

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"provider.timeout", f.Provider.Timeout, &cfg.ProviderTimeout},
		{"provider.retry_base_delay", f.Provider.RetryBaseDelay, &cfg.RetryBaseDelay},
		{"provider.retry_max_delay", f.Provider.RetryMaxDelay, &cfg.RetryMaxDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V("key", d.key), goerr.V("value", d.value))
		}
		*d.dst = v
	}

	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
