package embedding

import "fmt"

// Options configures New.
type Options struct {
	ModelPath     string
	Dimensions    int
	MaxTokens     int
	CacheSize     int
	OpenAIModel   string
	OpenAIBaseURL string
	APIKey        string
}

// New creates the embedder named by provider ("hash", "onnx" or "openai"),
// wrapped in an LRU cache when CacheSize is positive.
func New(provider string, opts Options) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch provider {
	case "hash", "":
		e = NewHashEmbedder(opts.Dimensions)
	case "onnx":
		e, err = NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens)
	case "openai":
		e, err = NewOpenAIEmbedder(opts.APIKey, opts.OpenAIBaseURL, opts.OpenAIModel, opts.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hash, onnx, openai)", provider)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize > 0 {
		return NewCachedEmbedder(e, opts.CacheSize), nil
	}
	return e, nil
}
