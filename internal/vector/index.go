// Package vector provides exact inner-product indexes over normalized embeddings.
package vector

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrOutOfRange is returned by Reconstruct for an unknown position.
	ErrOutOfRange = errors.New("vector id out of range")
)

// Index stores vectors addressed by insertion position and searches them by inner product.
type Index interface {
	// Add appends vectors; the first gets id Size() before the call.
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// Reconstruct returns a copy of the vector stored at id.
	Reconstruct(id int) ([]float32, error)
	Size() int
	Dimensions() int
	Close() error
}

// Hit is a single search result.
type Hit struct {
	ID    int
	Score float64 // inner product; cosine similarity for normalized vectors
}
