package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_builds (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	status TEXT NOT NULL,
	embedder TEXT NOT NULL DEFAULT '',
	total_chunks INTEGER NOT NULL DEFAULT 0,
	total_files INTEGER NOT NULL DEFAULT 0,
	total_folders INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_index_builds_started_at ON index_builds(started_at);

CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	asked_at DATETIME NOT NULL,
	question TEXT NOT NULL,
	strategy TEXT NOT NULL,
	sources INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	failed BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_questions_asked_at ON questions(asked_at);
`

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// RecordBuild inserts rec, assigning an ID when empty.
func (s *SQLiteStorage) RecordBuild(ctx context.Context, rec *BuildRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.StartedAt = rec.StartedAt.UTC()
	rec.FinishedAt = rec.FinishedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO index_builds (id, started_at, finished_at, status, embedder, total_chunks, total_files, total_folders, error)
		VALUES (:id, :started_at, :finished_at, :status, :embedder, :total_chunks, :total_files, :total_folders, :error)`, rec)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}
	return nil
}

// GetBuild returns the build with id, or ErrNotFound.
func (s *SQLiteStorage) GetBuild(ctx context.Context, id string) (*BuildRecord, error) {
	var rec BuildRecord
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM index_builds WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return &rec, nil
}

// ListBuilds returns up to limit builds, newest first.
func (s *SQLiteStorage) ListBuilds(ctx context.Context, limit int) ([]*BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []*BuildRecord
	if err := s.db.SelectContext(ctx, &recs, `SELECT * FROM index_builds ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	return recs, nil
}

// RecordQuestion inserts rec, assigning an ID and timestamp when empty.
func (s *SQLiteStorage) RecordQuestion(ctx context.Context, rec *QuestionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.AskedAt.IsZero() {
		rec.AskedAt = time.Now()
	}
	rec.AskedAt = rec.AskedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO questions (id, asked_at, question, strategy, sources, latency_ms, failed)
		VALUES (:id, :asked_at, :question, :strategy, :sources, :latency_ms, :failed)`, rec)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// ListQuestions returns up to limit questions, newest first.
func (s *SQLiteStorage) ListQuestions(ctx context.Context, limit int) ([]*QuestionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []*QuestionRecord
	if err := s.db.SelectContext(ctx, &recs, `SELECT * FROM questions ORDER BY asked_at DESC, rowid DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return recs, nil
}

// CountQuestions returns the number of recorded questions.
func (s *SQLiteStorage) CountQuestions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM questions`); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
