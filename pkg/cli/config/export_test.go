package config

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

func NewLLMForTest(provider string) *LLM {
	return &LLM{
		provider:             provider,
		geminiLocation:       "us-central1",
		openaiModel:          "gpt-4o-mini",
		openaiEmbeddingModel: "text-embedding-3-small",
		ollamaURL:            "http://localhost:11434",
		ollamaModel:          "llama3.1",
		ollamaEmbeddingModel: "nomic-embed-text",
	}
}

func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{
		backend:     backend,
		projectID:   projectID,
		postgresDSN: postgresDSN,
	}
}

func NewIndexForTest(backend, chromemDir string) *Index {
	return &Index{
		backend:    backend,
		chromemDir: chromemDir,
	}
}

func NewRAGForTest(path string) *RAG {
	return &RAG{path: path}
}

var APIKeyPattern = apiKeyPattern

func NewLocalRepositoryForTest(sessionDir string) *Repository {
	return &Repository{
		backend:    BackendChromem,
		sessionDir: sessionDir,
	}
}
