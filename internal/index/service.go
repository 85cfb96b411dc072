package index

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

// SnapshotBuilder produces a new snapshot.
type SnapshotBuilder interface {
	Build(ctx context.Context) (*Snapshot, error)
}

// BuildRecorder persists the outcome of a build.
type BuildRecorder interface {
	RecordBuild(ctx context.Context, rec *storage.BuildRecord) error
}

// Service runs builds and publishes their snapshots to a Store.
type Service struct {
	builder  SnapshotBuilder
	store    *Store
	recorder BuildRecorder
	logger   *zap.Logger
}

// NewService creates a service. recorder and logger may be nil.
func NewService(builder SnapshotBuilder, store *Store, recorder BuildRecorder, logger *zap.Logger) *Service {
	return &Service{builder: builder, store: store, recorder: recorder, logger: utils.OrNop(logger)}
}

// Store returns the store the service publishes to.
func (s *Service) Store() *Store {
	return s.store
}

// Rebuild builds a snapshot and publishes it. On failure the published
// snapshot is left in place and the error is returned.
func (s *Service) Rebuild(ctx context.Context) error {
	started := time.Now()
	snap, err := s.builder.Build(ctx)
	rec := &storage.BuildRecord{StartedAt: started, FinishedAt: time.Now()}

	if err != nil {
		rec.Status = storage.BuildFailed
		rec.Error = err.Error()
		fields := []zap.Field{zap.Error(err), zap.Duration("elapsed", rec.FinishedAt.Sub(started))}
		var be *BuildError
		if errors.As(err, &be) {
			fields = append(fields, zap.String("stage", be.Stage))
		}
		s.logger.Error("index build failed, keeping previous snapshot", fields...)
		s.record(ctx, rec)
		return err
	}

	stats := snap.Stats()
	rec.Status = storage.BuildSucceeded
	rec.TotalChunks = stats.TotalChunks
	rec.TotalFiles = stats.TotalFiles
	rec.TotalFolders = len(stats.Folders)
	if emb := snap.Embedder(); emb != nil {
		rec.Embedder = emb.Name()
	}
	s.store.Publish(snap)
	s.logger.Info("index snapshot published",
		zap.Int("chunks", stats.TotalChunks),
		zap.Int("files", stats.TotalFiles),
		zap.Int("folders", len(stats.Folders)),
	)
	s.record(ctx, rec)
	return nil
}

func (s *Service) record(ctx context.Context, rec *storage.BuildRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordBuild(ctx, rec); err != nil {
		s.logger.Warn("failed to record build", zap.Error(err))
	}
}
