// Package embedding provides text embedding backends, caching, and model selection.
package embedding

import "context"

// Embedder produces vector embeddings for text. EmbedBatch returns one vector per
// input, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
	Close() error
}
