package config

var ParseLevel = parseLevel

func NewLoggerForTest(level, format string) *Logger {
	return &Logger{level: level, format: format}
}

func NewRepositoryForTest(backend, sqlitePath string) *Repository {
	return &Repository{backend: backend, sqlitePath: sqlitePath}
}

func NewLLMForTest(provider, anthropicAPIKey string) *LLM {
	return &LLM{provider: provider, anthropicAPIKey: anthropicAPIKey}
}

func NewEmbeddingForTest(provider string, dimension int) *Embedding {
	return &Embedding{provider: provider, dimension: dimension, cacheSize: 16, ollamaURL: "http://localhost:11434", ollamaModel: "nomic-embed-text"}
}

func NewToolsForTest(servers, allowed []string) *Tools {
	return &Tools{servers: servers, allowed: allowed}
}
