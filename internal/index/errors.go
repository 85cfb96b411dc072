package index

import (
	"errors"
	"fmt"
)

// ErrNoChunks is returned when documents exist but none produced a chunk.
var ErrNoChunks = errors.New("documents found but no chunks produced")

// Build stages reported in BuildError.
const (
	StageSelectEmbedder = "select embedder"
	StageChunk          = "chunk"
	StageEmbed          = "embed"
	StageIndex          = "build vector index"
)

// BuildError reports that a build could not produce a usable snapshot.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index build failed at %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
