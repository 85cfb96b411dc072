// Package config provides configuration loading and structs for the docqa server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Watch     WatchConfig     `yaml:"watch"`
	Functions FunctionsConfig `yaml:"functions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the metadata database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RootConfig names one directory scanned into the index.
type RootConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// CorpusConfig describes where documents live and which ones are indexed.
type CorpusConfig struct {
	Roots       []RootConfig `yaml:"roots"`
	UploadRoot  string       `yaml:"upload_root"`
	Extensions  []string     `yaml:"extensions"`
	MaxUploadMB int          `yaml:"max_upload_mb"`
}

// Root returns the root with the given name.
func (c *CorpusConfig) Root(name string) (RootConfig, bool) {
	for _, r := range c.Roots {
		if r.Name == name {
			return r, true
		}
	}
	return RootConfig{}, false
}

// IndexConfig holds chunking, embedding batch and rebuild settings.
type IndexConfig struct {
	ChunkSize           int    `yaml:"chunk_size"`
	ChunkOverlap        *int   `yaml:"chunk_overlap"`
	MinChunkLength      *int   `yaml:"min_chunk_length"`
	BatchSize           int    `yaml:"batch_size"`
	EmbedConcurrency    int    `yaml:"embed_concurrency"`
	VectorIndex         string `yaml:"vector_index"`
	DebounceMS          int    `yaml:"debounce_ms"`
	SampleChars         int    `yaml:"sample_chars"`
	SampleDocsPerFolder int    `yaml:"sample_docs_per_folder"`
}

// Overlap returns the chunk overlap; unset means a tenth of ChunkSize.
func (c IndexConfig) Overlap() int {
	if c.ChunkOverlap != nil {
		return *c.ChunkOverlap
	}
	return c.ChunkSize / 10
}

// MinLength returns the minimum chunk length; unset means 50.
func (c IndexConfig) MinLength() int {
	if c.MinChunkLength != nil {
		return *c.MinChunkLength
	}
	return 50
}

// Debounce returns the rebuild debounce window.
func (c IndexConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RetrievalConfig holds two-stage retrieval settings.
type RetrievalConfig struct {
	TopFolders         int `yaml:"top_folders"`
	TopChunksPerFolder int `yaml:"top_chunks_per_folder"`
	// FolderScanCap bounds how many chunks per folder are read during folder
	// ranking. Zero means the default of 100; a negative value scans every chunk.
	FolderScanCap  int `yaml:"folder_scan_cap"`
	QueryTimeoutMS int `yaml:"query_timeout_ms"`
}

// QueryTimeout returns the query embedding timeout, zero meaning none.
func (c RetrievalConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

// EmbeddingConfig selects and configures the embedding backends.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"`
	CJKProvider   string `yaml:"cjk_provider"`
	ModelPath     string `yaml:"model_path"`
	CJKModelPath  string `yaml:"cjk_model_path"`
	Dimensions    int    `yaml:"dimensions"`
	MaxTokens     int    `yaml:"max_tokens"`
	CacheSize     int    `yaml:"cache_size"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	APIKeyEnv     string `yaml:"api_key_env"`
}

// LLMConfig holds settings for the answer-generating model.
type LLMConfig struct {
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	APIKeyEnv         string `yaml:"api_key_env"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries"`
	Strategy          string `yaml:"strategy"`
	MaxQuestionLength int    `yaml:"max_question_length"`
}

// Timeout returns the per-request generation timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WatchConfig holds file-system watch settings.
type WatchConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// EnabledOrDefault returns whether to watch the corpus roots; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Validate reports settings that cannot produce a working index.
func Validate(cfg *Config) error {
	idx := cfg.Index
	if idx.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", idx.ChunkSize)
	}
	if o := idx.Overlap(); o < 0 || o >= idx.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, chunk_size): got %d with chunk_size %d", o, idx.ChunkSize)
	}
	if m := idx.MinLength(); m < 0 {
		return fmt.Errorf("index.min_chunk_length must not be negative, got %d", m)
	}
	if idx.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", idx.BatchSize)
	}
	if cfg.Retrieval.TopFolders <= 0 || cfg.Retrieval.TopChunksPerFolder <= 0 {
		return fmt.Errorf("retrieval.top_folders and retrieval.top_chunks_per_folder must be positive")
	}
	return nil
}

// FunctionsConfig toggles the helper functions answers may call.
type FunctionsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// EnabledOrDefault returns whether helper functions are on; defaults to true when unset.
func (f *FunctionsConfig) EnabledOrDefault() bool {
	if f.Enabled != nil {
		return *f.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	ExpandPaths(&cfg, filepath.Dir(path))

	return &cfg, nil
}

// ExpandPaths resolves every filesystem path in cfg against configDir.
func ExpandPaths(cfg *Config, configDir string) {
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.CJKModelPath != "" {
		cfg.Embedding.CJKModelPath = expandPath(cfg.Embedding.CJKModelPath, configDir)
	}
	for i := range cfg.Corpus.Roots {
		cfg.Corpus.Roots[i].Path = expandPath(cfg.Corpus.Roots[i].Path, configDir)
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
