// Package index builds and publishes immutable snapshots of the folder-partitioned
// semantic index.
package index

import (
	"runtime"
	"time"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/vector"
)

// Chunk is one fragment of a document with its provenance. Its identity is its
// position in the snapshot.
type Chunk struct {
	Text      string    `json:"text"`
	Root      string    `json:"root"`
	Folder    string    `json:"folder"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderKey returns the key of the folder holding c.
func (c Chunk) FolderKey() string {
	return FolderKey(c.Root, c.Folder)
}

// FolderKey joins a root name and folder name into a key unique across roots.
func FolderKey(root, folder string) string {
	return root + "/" + folder
}

// FolderStats counts the chunks and files of one folder.
type FolderStats struct {
	Chunks int `json:"chunks"`
	Files  int `json:"files"`
}

// Stats summarizes a snapshot.
type Stats struct {
	TotalChunks int                    `json:"total_chunks"`
	TotalFiles  int                    `json:"total_files"`
	Folders     map[string]FolderStats `json:"folders"`
}

// Snapshot is an immutable, internally consistent version of the index. The
// chunk list and the vector index share order: chunk i has vector id i.
type Snapshot struct {
	chunks   []Chunk
	vectors  vector.Index
	embedder embedding.Embedder
	folders  map[string][]int
	order    []string
	stats    Stats
	builtAt  time.Time
}

// EmptySnapshot returns a snapshot with no chunks, recording that a build found
// no documents.
func EmptySnapshot(builtAt time.Time) *Snapshot {
	return &Snapshot{
		folders: map[string][]int{},
		stats:   Stats{Folders: map[string]FolderStats{}},
		builtAt: builtAt,
	}
}

func newSnapshot(chunks []Chunk, vectors vector.Index, emb embedding.Embedder, folders map[string][]int, order []string, stats Stats, builtAt time.Time) *Snapshot {
	s := &Snapshot{
		chunks:   chunks,
		vectors:  vectors,
		embedder: emb,
		folders:  folders,
		order:    order,
		stats:    stats,
		builtAt:  builtAt,
	}
	// Native indexes hold memory outside the Go heap; release it once the
	// last reader drops the snapshot.
	runtime.SetFinalizer(s, func(s *Snapshot) { _ = s.vectors.Close() })
	return s
}

// IsEmpty reports whether the snapshot holds no chunks. A nil snapshot is empty.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.chunks) == 0
}

// Len returns the number of chunks.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

// Chunk returns the chunk at position i.
func (s *Snapshot) Chunk(i int) (Chunk, bool) {
	if s == nil || i < 0 || i >= len(s.chunks) {
		return Chunk{}, false
	}
	return s.chunks[i], true
}

// Folders returns the folder keys in build order.
func (s *Snapshot) Folders() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Positions returns the chunk positions of folder key in chunk order.
func (s *Snapshot) Positions(key string) []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s.folders[key]...)
}

// Vectors returns the vector index, nil for an empty snapshot. The index is
// released with the snapshot, so callers keep s reachable while using it.
func (s *Snapshot) Vectors() vector.Index {
	if s == nil {
		return nil
	}
	return s.vectors
}

// Embedder returns the embedder the snapshot's vectors came from. Queries must
// be embedded with it.
func (s *Snapshot) Embedder() embedding.Embedder {
	if s == nil {
		return nil
	}
	return s.embedder
}

// Stats returns a copy of the snapshot statistics.
func (s *Snapshot) Stats() Stats {
	if s == nil {
		return Stats{Folders: map[string]FolderStats{}}
	}
	out := Stats{TotalChunks: s.stats.TotalChunks, TotalFiles: s.stats.TotalFiles, Folders: make(map[string]FolderStats, len(s.stats.Folders))}
	for k, v := range s.stats.Folders {
		out.Folders[k] = v
	}
	return out
}

// BuiltAt returns when the build producing the snapshot started.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}
