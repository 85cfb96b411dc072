// Package retrieval answers queries against the published index snapshot in two
// stages: rank folders by their best chunk, then rank chunks inside the winners.
package retrieval

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/index"
	"github.com/hyperjump/docqa/internal/vector"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

const (
	DefaultTopFolders = 2
	DefaultTopChunks  = 3
)

// Source yields the snapshot to query.
type Source interface {
	Current() *index.Snapshot
}

// Result is one retrieved chunk.
type Result struct {
	Text     string  `json:"text"`
	Folder   string  `json:"folder"`
	Root     string  `json:"root"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Position int     `json:"-"`
}

// Retriever runs hierarchical retrieval. It is safe for concurrent use.
type Retriever struct {
	source       Source
	scanCap      int
	queryTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithFolderScanCap limits how many chunks per folder are scored when ranking
// folders. Zero or less scores them all.
func WithFolderScanCap(n int) Option {
	return func(r *Retriever) {
		if n < 0 {
			n = 0
		}
		r.scanCap = n
	}
}

// WithQueryTimeout bounds query embedding.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Retriever) { r.queryTimeout = d }
}

// WithLogger sets the retriever logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = utils.OrNop(l) }
}

// New creates a retriever reading snapshots from source.
func New(source Source, opts ...Option) *Retriever {
	r := &Retriever{source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type scored struct {
	key   string
	pos   int
	score float64
}

// Retrieve returns up to topChunks chunks from each of the topFolders best
// folders, best folder first and best chunk first within a folder. Chunks with
// identical text are reported once. An empty index, a blank query or an
// embedding failure yields no results. Non-positive limits use the defaults.
func (r *Retriever) Retrieve(ctx context.Context, query string, topFolders, topChunks int) []Result {
	if topFolders <= 0 {
		topFolders = DefaultTopFolders
	}
	if topChunks <= 0 {
		topChunks = DefaultTopChunks
	}
	if strings.TrimSpace(query) == "" {
		return []Result{}
	}

	snap := r.source.Current()
	if snap.IsEmpty() {
		return []Result{}
	}
	// Vectors are released when the snapshot is collected.
	defer runtime.KeepAlive(snap)

	q, err := r.embedQuery(ctx, snap, query)
	if err != nil {
		r.logger.Warn("query embedding failed", zap.Error(err))
		return []Result{}
	}
	vecs := snap.Vectors()

	var folders []scored
	for _, key := range snap.Folders() {
		positions := snap.Positions(key)
		if r.scanCap > 0 && len(positions) > r.scanCap {
			positions = positions[:r.scanCap]
		}
		best, ok := bestScore(vecs, q, positions)
		if !ok {
			continue
		}
		folders = append(folders, scored{key: key, score: best})
	}
	sort.SliceStable(folders, func(i, j int) bool { return folders[i].score > folders[j].score })
	if len(folders) > topFolders {
		folders = folders[:topFolders]
	}

	results := []Result{}
	seen := map[string]struct{}{}
	for _, f := range folders {
		var chunks []scored
		for _, pos := range snap.Positions(f.key) {
			v, err := vecs.Reconstruct(pos)
			if err != nil {
				continue
			}
			chunks = append(chunks, scored{pos: pos, score: vector.InnerProduct(q, v)})
		}
		sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].score > chunks[j].score })
		if len(chunks) > topChunks {
			chunks = chunks[:topChunks]
		}
		for _, c := range chunks {
			chunk, ok := snap.Chunk(c.pos)
			if !ok {
				continue
			}
			if _, dup := seen[chunk.Text]; dup {
				continue
			}
			seen[chunk.Text] = struct{}{}
			results = append(results, Result{
				Text:     chunk.Text,
				Folder:   chunk.Folder,
				Root:     chunk.Root,
				Filename: chunk.Filename,
				Score:    c.score,
				Position: c.pos,
			})
		}
	}
	r.logger.Debug("retrieval done",
		zap.Int("folders", len(folders)), zap.Int("results", len(results)))
	return results
}

func (r *Retriever) embedQuery(ctx context.Context, snap *index.Snapshot, query string) ([]float32, error) {
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}
	v, err := snap.Embedder().Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(v) != snap.Vectors().Dimensions() {
		return nil, vector.ErrDimensionMismatch
	}
	return utils.Normalized(v), nil
}

func bestScore(vecs vector.Index, q []float32, positions []int) (float64, bool) {
	best, found := 0.0, false
	for _, pos := range positions {
		v, err := vecs.Reconstruct(pos)
		if err != nil {
			continue
		}
		s := vector.InnerProduct(q, v)
		if !found || s > best {
			best, found = s, true
		}
	}
	return best, found
}
