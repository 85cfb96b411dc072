package embedding

import (
	"context"
	"hash/fnv"

	"github.com/hyperjump/docqa/pkg/utils"
)

// HashEmbedder is a deterministic bag-of-words embedder using feature hashing
// over words and character trigrams. Texts sharing vocabulary score higher, so
// it works offline and in tests without a model file.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hashing embedder of the given dimension (384 when <= 0).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-norm hashed feature vector of text. Text without any
// words embeds to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, w := range Words(text) {
		e.add(vec, w, 1)
		r := []rune(w)
		if len(r) < 4 {
			continue
		}
		for i := 0; i+3 <= len(r); i++ {
			e.add(vec, "#"+string(r[i:i+3]), 0.25)
		}
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Name identifies the embedder in logs.
func (e *HashEmbedder) Name() string {
	return "hash"
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}
