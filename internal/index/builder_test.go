package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawLoader struct{}

func (rawLoader) Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

type staticProvider struct {
	emb embedding.Embedder
	err error
}

func (p staticProvider) Select(context.Context, string) (embedding.Embedder, error) {
	return p.emb, p.err
}

// batchCounter counts EmbedBatch calls and can fail them.
type batchCounter struct {
	*embedding.HashEmbedder
	mu    sync.Mutex
	calls int
	fail  error
}

func (b *batchCounter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	return b.HashEmbedder.EmbedBatch(ctx, texts)
}

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestBuilder(roots []Root, emb embedding.Embedder, opts ...BuilderOption) *Builder {
	scanner := indexer.NewScanner(rawLoader{}, []string{".txt"})
	chunker := indexer.NewChunker(300, 30, 50)
	return NewBuilder(roots, scanner, chunker, staticProvider{emb: emb}, opts...)
}

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestBuilder_EmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	roots := []Root{{Name: "default", Path: filepath.Join(dir, "documents")}, {Name: "uploaded", Path: filepath.Join(dir, "missing")}}
	snap, err := newTestBuilder(roots, embedding.NewHashEmbedder(32), WithClock(func() time.Time { return fixedNow })).Build(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.Nil(t, snap.Vectors())
	assert.Equal(t, fixedNow, snap.BuiltAt())
	assert.Equal(t, 0, snap.Stats().TotalChunks)
}

func TestBuilder_FoldersStayDistinctAcrossRoots(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "documents")
	up := filepath.Join(dir, "uploaded_docs")
	writeDoc(t, filepath.Join(def, "policies", "leave.txt"), strings.Repeat("Employees receive vacation days. ", 20))
	writeDoc(t, filepath.Join(up, "policies", "travel.txt"), "Travel must be approved in advance.")
	writeDoc(t, filepath.Join(up, "tech", "api.txt"), strings.Repeat("The API uses bearer tokens. ", 15))

	roots := []Root{{Name: "default", Path: def}, {Name: "uploaded", Path: up}}
	snap, err := newTestBuilder(roots, embedding.NewHashEmbedder(64)).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"default/policies", "uploaded/policies", "uploaded/tech"}, snap.Folders())
	stats := snap.Stats()
	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, snap.Len(), stats.TotalChunks)
	assert.Equal(t, FolderStats{Chunks: 1, Files: 1}, stats.Folders["uploaded/policies"])

	// Chunk list and vectors share length and order; folder positions point at their folder.
	require.Equal(t, snap.Len(), snap.Vectors().Size())
	for _, key := range snap.Folders() {
		for _, pos := range snap.Positions(key) {
			c, ok := snap.Chunk(pos)
			require.True(t, ok)
			assert.Equal(t, key, c.FolderKey())
			v, err := snap.Vectors().Reconstruct(pos)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, vector.L2Norm(v), 1e-5)
		}
	}
	c, _ := snap.Chunk(snap.Positions("uploaded/policies")[0])
	assert.Equal(t, "travel.txt", c.Filename)
	assert.Equal(t, "uploaded", c.Root)
	assert.Equal(t, "policies", c.Folder)
}

func TestBuilder_ShortDocumentsFallBackPerDocument(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "a.txt"), "Tiny note one.")
	writeDoc(t, filepath.Join(root, "b.txt"), "Tiny note two.")

	snap, err := newTestBuilder([]Root{{Name: "default", Path: root}}, embedding.NewHashEmbedder(32)).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())
	first, _ := snap.Chunk(0)
	assert.Equal(t, "Tiny note one.", first.Text)
	assert.Equal(t, indexer.GeneralFolder, first.Folder)
}

func TestBuilder_NoUsableChunksFails(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "a.txt"), "bad\xffbytes one")
	writeDoc(t, filepath.Join(root, "b.txt"), "bad\xfebytes two")

	_, err := newTestBuilder([]Root{{Name: "default", Path: root}}, embedding.NewHashEmbedder(32)).Build(context.Background())
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StageChunk, be.Stage)
	assert.ErrorIs(t, err, ErrNoChunks)
}

func TestBuilder_SkipsDocumentThatFailsToChunk(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "bad.txt"), "bad\xffbytes")
	writeDoc(t, filepath.Join(root, "good.txt"), "A perfectly normal document.")

	snap, err := newTestBuilder([]Root{{Name: "default", Path: root}}, embedding.NewHashEmbedder(32)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 1, snap.Stats().TotalFiles)
}

func TestBuilder_Failures(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "a.txt"), "Some document text.")
	roots := []Root{{Name: "default", Path: root}}
	boom := errors.New("boom")

	tests := []struct {
		name    string
		builder *Builder
		stage   string
	}{
		{
			name: "embedder selection",
			builder: NewBuilder(roots, indexer.NewScanner(rawLoader{}, []string{".txt"}), indexer.NewChunker(300, 30, 50),
				staticProvider{err: boom}),
			stage: StageSelectEmbedder,
		},
		{
			name:    "embedding",
			builder: newTestBuilder(roots, &batchCounter{HashEmbedder: embedding.NewHashEmbedder(8), fail: boom}),
			stage:   StageEmbed,
		},
		{
			name: "vector index",
			builder: newTestBuilder(roots, embedding.NewHashEmbedder(8),
				WithIndexFactory(func(int) (vector.Index, error) { return nil, boom })),
			stage: StageIndex,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build(context.Background())
			var be *BuildError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.stage, be.Stage)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestBuilder_EmbedsInBatches(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 7; i++ {
		writeDoc(t, filepath.Join(root, string(rune('a'+i))+".txt"), "short document body number "+string(rune('a'+i)))
	}
	emb := &batchCounter{HashEmbedder: embedding.NewHashEmbedder(16)}
	snap, err := newTestBuilder([]Root{{Name: "default", Path: root}}, emb, WithBatchSize(3), WithConcurrency(2)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Len())
	assert.Equal(t, 3, emb.calls)

	// Each vector must belong to its own chunk even with concurrent batches.
	for i := 0; i < snap.Len(); i++ {
		c, _ := snap.Chunk(i)
		want, _ := embedding.NewHashEmbedder(16).Embed(context.Background(), c.Text)
		got, _ := snap.Vectors().Reconstruct(i)
		assert.InDelta(t, 1.0, vector.InnerProduct(want, got), 1e-5)
	}
}

func TestBuilder_SampleCappedAndPerFolder(t *testing.T) {
	b := NewBuilder(nil, nil, nil, nil, WithSampling(1, 10))
	got := b.sample([]folderSource{
		{files: []string{"a", "b"}, docs: map[string]string{"a": "first", "b": "never"}},
		{files: []string{"c"}, docs: map[string]string{"c": "second document"}},
	})
	assert.Equal(t, "first\nseco", got)
	assert.LessOrEqual(t, len([]rune(got)), 10)
}
