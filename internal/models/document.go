// Package models defines the request and response types of the HTTP API.
package models

import "time"

// FolderListing lists the documents of one folder under a named root.
type FolderListing struct {
	Root   string   `json:"root"`
	Folder string   `json:"folder"`
	Files  []string `json:"files"`
}

// UploadResult reports a stored upload.
type UploadResult struct {
	Root     string    `json:"root"`
	Folder   string    `json:"folder"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
	Message  string    `json:"message"`
}

// FolderStats is the chunk and file count of one indexed folder.
type FolderStats struct {
	Chunks int `json:"chunks"`
	Files  int `json:"files"`
}

// IndexStatus describes the published index snapshot.
type IndexStatus struct {
	Ready        bool                   `json:"ready"`
	Embedder     string                 `json:"embedder,omitempty"`
	TotalChunks  int                    `json:"total_chunks"`
	TotalFiles   int                    `json:"total_files"`
	TotalFolders int                    `json:"total_folders"`
	Folders      map[string]FolderStats `json:"folders"`
	BuiltAt      *time.Time             `json:"built_at,omitempty"`
	Builds       int64                  `json:"builds"`
	Questions    int64                  `json:"questions"`
	CorpusBytes  int64                  `json:"corpus_bytes"`
}
