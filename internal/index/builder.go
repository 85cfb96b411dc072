package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/vector"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Root is a named directory scanned into the index.
type Root struct {
	Name string
	Path string
}

// FolderScanner groups the documents under a directory by folder.
type FolderScanner interface {
	Scan(root string) indexer.Structure
}

// EmbedderProvider chooses the embedder for a corpus from a text sample.
type EmbedderProvider interface {
	Select(ctx context.Context, sample string) (embedding.Embedder, error)
}

// IndexFactory creates an empty vector index of the given dimension.
type IndexFactory func(dimensions int) (vector.Index, error)

// Builder produces complete snapshots from the configured roots.
type Builder struct {
	roots       []Root
	scanner     FolderScanner
	chunker     *indexer.Chunker
	provider    EmbedderProvider
	newIndex    IndexFactory
	batchSize   int
	concurrency int
	sampleDocs  int
	sampleChars int
	logger      *zap.Logger
	now         func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = utils.OrNop(l) }
}

// WithBatchSize sets how many chunks are embedded per embedder call.
func WithBatchSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithConcurrency bounds how many embedding batches run at once.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithSampling sets how many documents per folder and how many characters in
// total feed embedder selection.
func WithSampling(docsPerFolder, chars int) BuilderOption {
	return func(b *Builder) {
		if docsPerFolder > 0 {
			b.sampleDocs = docsPerFolder
		}
		if chars > 0 {
			b.sampleChars = chars
		}
	}
}

// WithIndexFactory replaces the flat in-memory vector index.
func WithIndexFactory(f IndexFactory) BuilderOption {
	return func(b *Builder) { b.newIndex = f }
}

// WithClock sets the time source for build timestamps.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder over roots.
func NewBuilder(roots []Root, scanner FolderScanner, chunker *indexer.Chunker, provider EmbedderProvider, opts ...BuilderOption) *Builder {
	b := &Builder{
		roots:       roots,
		scanner:     scanner,
		chunker:     chunker,
		provider:    provider,
		newIndex:    func(d int) (vector.Index, error) { return vector.NewFlatIndex(d) },
		batchSize:   8,
		concurrency: 1,
		sampleDocs:  2,
		sampleChars: 2000,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type folderSource struct {
	root  string
	name  string
	docs  map[string]string
	files []string
}

// Build scans, chunks and embeds every document into a new snapshot. A corpus
// without documents yields the empty snapshot. Failures are *BuildError.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	started := b.now()

	var sources []folderSource
	for _, r := range b.roots {
		structure := b.scanner.Scan(r.Path)
		for _, name := range structure.Folders() {
			sources = append(sources, folderSource{root: r.Name, name: name, docs: structure[name], files: structure.Files(name)})
		}
	}
	if len(sources) == 0 {
		b.logger.Info("no documents found, index is empty")
		return EmptySnapshot(started), nil
	}

	emb, err := b.provider.Select(ctx, b.sample(sources))
	if err != nil {
		return nil, &BuildError{Stage: StageSelectEmbedder, Err: err}
	}
	b.logger.Debug("embedder selected", zap.String("embedder", emb.Name()))

	chunks, folders, order, stats := b.chunkAll(sources, started)
	if len(chunks) == 0 {
		return nil, &BuildError{Stage: StageChunk, Err: ErrNoChunks}
	}

	vecs, err := b.embedAll(ctx, emb, chunks)
	if err != nil {
		return nil, &BuildError{Stage: StageEmbed, Err: err}
	}

	idx, err := b.newIndex(emb.Dimensions())
	if err != nil {
		return nil, &BuildError{Stage: StageIndex, Err: err}
	}
	if err := idx.Add(ctx, vecs); err != nil {
		_ = idx.Close()
		return nil, &BuildError{Stage: StageIndex, Err: err}
	}
	if idx.Size() != len(chunks) {
		_ = idx.Close()
		return nil, &BuildError{Stage: StageIndex, Err: fmt.Errorf("index holds %d vectors for %d chunks", idx.Size(), len(chunks))}
	}

	b.logger.Info("index built",
		zap.Int("chunks", stats.TotalChunks),
		zap.Int("files", stats.TotalFiles),
		zap.Int("folders", len(order)),
		zap.String("embedder", emb.Name()),
		zap.Duration("elapsed", b.now().Sub(started)),
	)
	return newSnapshot(chunks, idx, emb, folders, order, stats, started), nil
}

// sample joins the first documents of every folder, capped at sampleChars runes.
func (b *Builder) sample(sources []folderSource) string {
	var parts []string
	for _, src := range sources {
		for i, f := range src.files {
			if i >= b.sampleDocs {
				break
			}
			parts = append(parts, src.docs[f])
		}
	}
	r := []rune(strings.Join(parts, "\n"))
	if len(r) > b.sampleChars {
		r = r[:b.sampleChars]
	}
	return string(r)
}

// chunkAll chunks every document in source order. Documents that fail to chunk
// are logged and skipped; folders left without chunks are omitted.
func (b *Builder) chunkAll(sources []folderSource, createdAt time.Time) ([]Chunk, map[string][]int, []string, Stats) {
	var chunks []Chunk
	folders := map[string][]int{}
	var order []string
	stats := Stats{Folders: map[string]FolderStats{}}

	for _, src := range sources {
		key := FolderKey(src.root, src.name)
		var fs FolderStats
		for _, file := range src.files {
			pieces, err := b.chunker.Chunk(src.docs[file])
			if err != nil {
				b.logger.Warn("skipping document that failed to chunk",
					zap.String("folder", key), zap.String("file", file), zap.Error(err))
				continue
			}
			if len(pieces) == 0 {
				continue
			}
			for _, p := range pieces {
				folders[key] = append(folders[key], len(chunks))
				chunks = append(chunks, Chunk{Text: p, Root: src.root, Folder: src.name, Filename: file, CreatedAt: createdAt})
			}
			fs.Chunks += len(pieces)
			fs.Files++
		}
		if fs.Chunks == 0 {
			continue
		}
		order = append(order, key)
		stats.Folders[key] = fs
		stats.TotalChunks += fs.Chunks
		stats.TotalFiles += fs.Files
	}
	return chunks, folders, order, stats
}

// embedAll embeds chunk texts in batches, at most concurrency batches at a
// time, and returns unit-norm copies in chunk order.
func (b *Builder) embedAll(ctx context.Context, emb embedding.Embedder, chunks []Chunk) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	dims := emb.Dimensions()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for start := 0; start < len(chunks); start += b.batchSize {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start := start
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Text
			}
			vecs, err := emb.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("batch %d-%d: %w", start, end, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("batch %d-%d: got %d vectors for %d texts", start, end, len(vecs), len(texts))
			}
			for i, v := range vecs {
				if len(v) != dims {
					return fmt.Errorf("chunk %d: %w: got %d, expected %d", start+i, vector.ErrDimensionMismatch, len(v), dims)
				}
				out[start+i] = utils.Normalized(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
