package embedding

import (
	"context"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

// countingEmbedder records how many texts reach the wrapped embedder.
type countingEmbedder struct {
	*HashEmbedder
	calls int
	texts int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	c.texts++
	return c.HashEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts += len(texts)
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_EmbedBatchOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	vecs, err := c.EmbedBatch(ctx, []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	if inner.calls != 2 || inner.texts != 3 {
		t.Errorf("calls=%d texts=%d, want 2 calls and 3 texts", inner.calls, inner.texts)
	}
	want, _ := NewHashEmbedder(16).Embed(ctx, "beta")
	for i := range want {
		if vecs[1][i] != want[i] {
			t.Fatal("batch results out of order")
		}
	}

	if _, err := c.EmbedBatch(ctx, []string{"beta", "gamma"}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("fully cached batch should not call the embedder, calls=%d", inner.calls)
	}
	if c.Name() != "hash" || c.Dimensions() != 16 {
		t.Errorf("wrapper should expose inner Name/Dimensions, got %s/%d", c.Name(), c.Dimensions())
	}
}
