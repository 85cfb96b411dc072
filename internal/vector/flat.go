package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FlatIndex is an in-memory index using brute-force inner product search.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty flat index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Add appends copies of vectors. Nothing is added if any vector has the wrong dimension.
func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	batch := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != f.dimensions {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(v), f.dimensions)
		}
		batch[i] = append([]float32(nil), v...)
	}
	f.mu.Lock()
	f.vectors = append(f.vectors, batch...)
	f.mu.Unlock()
	return nil
}

// Search returns up to k hits ordered by descending score; equal scores keep insertion order.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{ID: i, Score: InnerProduct(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Reconstruct returns a copy of the vector at id.
func (f *FlatIndex) Reconstruct(id int) ([]float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if id < 0 || id >= len(f.vectors) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return append([]float32(nil), f.vectors[id]...), nil
}

// Size returns the number of stored vectors.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Close releases the stored vectors.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	f.vectors = nil
	f.mu.Unlock()
	return nil
}
