package main

import (
	"fmt"
	"os"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/functions"
	"github.com/hyperjump/docqa/internal/index"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/qa"
	"github.com/hyperjump/docqa/internal/rebuild"
	"github.com/hyperjump/docqa/internal/retrieval"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/internal/vector"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Selector  *embedding.ScriptSelector
	Scanner   *indexer.Scanner
	Index     *index.Service
	Scheduler *rebuild.Scheduler
	Retriever *retrieval.Retriever
	Functions *functions.Registry
	QA        *qa.Service
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Selector != nil {
		_ = c.Selector.Close()
	}
}

func newEmbedder(provider, modelPath string, cfg *config.Config) (embedding.Embedder, error) {
	return embedding.New(provider, embedding.Options{
		ModelPath:     modelPath,
		Dimensions:    cfg.Embedding.Dimensions,
		MaxTokens:     cfg.Embedding.MaxTokens,
		CacheSize:     cfg.Embedding.CacheSize,
		OpenAIModel:   cfg.Embedding.OpenAIModel,
		OpenAIBaseURL: cfg.Embedding.OpenAIBaseURL,
		APIKey:        os.Getenv(cfg.Embedding.APIKeyEnv),
	})
}

func newSelector(cfg *config.Config, logger *zap.Logger) (*embedding.ScriptSelector, error) {
	fallback, err := newEmbedder(cfg.Embedding.Provider, cfg.Embedding.ModelPath, cfg)
	if err != nil {
		if cfg.Embedding.Provider == "hash" {
			return nil, err
		}
		logger.Warn("embedding provider unavailable, falling back to hash",
			zap.String("provider", cfg.Embedding.Provider), zap.Error(err))
		fallback = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	}
	var cjk embedding.Embedder
	if cfg.Embedding.CJKProvider != "" {
		cjk, err = newEmbedder(cfg.Embedding.CJKProvider, cfg.Embedding.CJKModelPath, cfg)
		if err != nil {
			logger.Warn("CJK embedding provider unavailable, using default for all corpora",
				zap.String("provider", cfg.Embedding.CJKProvider), zap.Error(err))
			cjk = nil
		}
	}
	return embedding.NewScriptSelector(fallback, cjk), nil
}

func indexRoots(cfg *config.Config) []index.Root {
	roots := make([]index.Root, len(cfg.Corpus.Roots))
	for i, r := range cfg.Corpus.Roots {
		roots[i] = index.Root{Name: r.Name, Path: r.Path}
	}
	return roots
}

// initializeComponents wires the index, retrieval and answering services.
// withLLM is false for commands that never generate answers.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withLLM bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	c.Selector, err = newSelector(cfg, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	indexType := cfg.Index.VectorIndex
	if indexType == "faiss" && !vector.IsFAISSAvailable() {
		logger.Warn("FAISS not available in this build, using flat index")
		indexType = "flat"
	}
	logger.Info("vector index selected", zap.String("type", indexType), zap.Bool("faiss_available", vector.IsFAISSAvailable()))

	c.Scanner = indexer.NewScanner(extract.NewExtractor(), cfg.Corpus.Extensions, indexer.WithLogger(logger))
	builder := index.NewBuilder(
		indexRoots(cfg),
		c.Scanner,
		indexer.NewChunker(cfg.Index.ChunkSize, cfg.Index.Overlap(), cfg.Index.MinLength()),
		c.Selector,
		index.WithLogger(logger),
		index.WithBatchSize(cfg.Index.BatchSize),
		index.WithConcurrency(cfg.Index.EmbedConcurrency),
		index.WithSampling(cfg.Index.SampleDocsPerFolder, cfg.Index.SampleChars),
		index.WithIndexFactory(func(d int) (vector.Index, error) { return vector.NewIndex(indexType, d) }),
	)
	c.Index = index.NewService(builder, index.NewStore(), store, logger)
	c.Scheduler = rebuild.NewScheduler(c.Index, rebuild.WithDebounce(cfg.Index.Debounce()), rebuild.WithLogger(logger))
	c.Retriever = retrieval.New(c.Index.Store(),
		retrieval.WithFolderScanCap(cfg.Retrieval.FolderScanCap),
		retrieval.WithQueryTimeout(cfg.Retrieval.QueryTimeout()),
		retrieval.WithLogger(logger),
	)

	var qaOpts []qa.Option
	if cfg.Functions.EnabledOrDefault() {
		c.Functions = functions.NewRegistry(functions.WithLogger(logger))
		if err := functions.RegisterBuiltins(c.Functions); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to register functions: %w", err)
		}
		qaOpts = append(qaOpts, qa.WithFunctions(c.Functions))
		logger.Info("functions registered", zap.Int("total", c.Functions.Len()))
	}

	if withLLM {
		gen, err := llm.NewOpenAIGenerator(llm.Options{
			APIKey:     os.Getenv(cfg.LLM.APIKeyEnv),
			BaseURL:    cfg.LLM.BaseURL,
			Model:      cfg.LLM.Model,
			Timeout:    cfg.LLM.Timeout(),
			MaxRetries: cfg.LLM.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize llm: %w", err)
		}
		c.QA = qa.NewService(c.Retriever, gen, store, qa.Config{
			Strategy:          cfg.LLM.Strategy,
			TopFolders:        cfg.Retrieval.TopFolders,
			TopChunks:         cfg.Retrieval.TopChunksPerFolder,
			MaxQuestionLength: cfg.LLM.MaxQuestionLength,
		}, logger, qaOpts...)
	}
	return c, nil
}
