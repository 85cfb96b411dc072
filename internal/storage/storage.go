// Package storage persists index build history and the question log in SQLite.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Build statuses.
const (
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
)

// BuildRecord describes one index build attempt.
type BuildRecord struct {
	ID           string    `db:"id" json:"id"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	FinishedAt   time.Time `db:"finished_at" json:"finished_at"`
	Status       string    `db:"status" json:"status"`
	Embedder     string    `db:"embedder" json:"embedder,omitempty"`
	TotalChunks  int       `db:"total_chunks" json:"total_chunks"`
	TotalFiles   int       `db:"total_files" json:"total_files"`
	TotalFolders int       `db:"total_folders" json:"total_folders"`
	Error        string    `db:"error" json:"error,omitempty"`
}

// QuestionRecord describes one answered question.
type QuestionRecord struct {
	ID        string    `db:"id" json:"id"`
	AskedAt   time.Time `db:"asked_at" json:"asked_at"`
	Question  string    `db:"question" json:"question"`
	Strategy  string    `db:"strategy" json:"strategy"`
	Sources   int       `db:"sources" json:"sources"`
	LatencyMS int64     `db:"latency_ms" json:"latency_ms"`
	Failed    bool      `db:"failed" json:"failed"`
}

// Storage records builds and questions.
type Storage interface {
	RecordBuild(ctx context.Context, rec *BuildRecord) error
	GetBuild(ctx context.Context, id string) (*BuildRecord, error)
	ListBuilds(ctx context.Context, limit int) ([]*BuildRecord, error)

	RecordQuestion(ctx context.Context, rec *QuestionRecord) error
	ListQuestions(ctx context.Context, limit int) ([]*QuestionRecord, error)
	CountQuestions(ctx context.Context) (int64, error)

	Close() error
}
