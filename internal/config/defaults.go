package config

// DefaultExtensions lists the document types indexed when none are configured.
var DefaultExtensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods", ".odt", ".rtf"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/docqa.db"
	}

	if len(cfg.Corpus.Roots) == 0 {
		cfg.Corpus.Roots = []RootConfig{
			{Name: "default", Path: "./documents"},
			{Name: "uploaded", Path: "./uploaded_docs"},
		}
	}
	if cfg.Corpus.UploadRoot == "" {
		cfg.Corpus.UploadRoot = cfg.Corpus.Roots[len(cfg.Corpus.Roots)-1].Name
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Corpus.MaxUploadMB == 0 {
		cfg.Corpus.MaxUploadMB = 50
	}

	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = 300
	}
	if cfg.Index.ChunkOverlap == nil {
		overlap := cfg.Index.Overlap()
		cfg.Index.ChunkOverlap = &overlap
	}
	if cfg.Index.MinChunkLength == nil {
		minLen := cfg.Index.MinLength()
		cfg.Index.MinChunkLength = &minLen
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 8
	}
	if cfg.Index.EmbedConcurrency == 0 {
		cfg.Index.EmbedConcurrency = 2
	}
	if cfg.Index.VectorIndex == "" {
		cfg.Index.VectorIndex = "flat"
	}
	if cfg.Index.DebounceMS == 0 {
		cfg.Index.DebounceMS = 2000
	}
	if cfg.Index.SampleChars == 0 {
		cfg.Index.SampleChars = 2000
	}
	if cfg.Index.SampleDocsPerFolder == 0 {
		cfg.Index.SampleDocsPerFolder = 2
	}

	if cfg.Retrieval.TopFolders == 0 {
		cfg.Retrieval.TopFolders = 2
	}
	if cfg.Retrieval.TopChunksPerFolder == 0 {
		cfg.Retrieval.TopChunksPerFolder = 3
	}
	if cfg.Retrieval.FolderScanCap == 0 {
		cfg.Retrieval.FolderScanCap = 100
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.OpenAIModel == "" {
		cfg.Embedding.OpenAIModel = "text-embedding-3-small"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3.2:3b"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 360
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}
	if cfg.LLM.Strategy == "" {
		cfg.LLM.Strategy = "direct"
	}
	if cfg.LLM.MaxQuestionLength == 0 {
		cfg.LLM.MaxQuestionLength = 1000
	}
}
