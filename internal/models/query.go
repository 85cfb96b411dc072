package models

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxQuestionLength is the default limit on question length in characters.
	MaxQuestionLength = 1000

	maxTopFolders = 20
	maxTopChunks  = 50
)

var (
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrQuestionTooLong = errors.New("question too long")
	ErrEmptyQuery      = errors.New("query cannot be empty")
)

// AskRequest asks a question about the indexed documents.
type AskRequest struct {
	Question   string `json:"question"`
	Strategy   string `json:"strategy,omitempty"`
	TopFolders int    `json:"top_folders,omitempty"`
	TopChunks  int    `json:"top_chunks,omitempty"`
}

// Validate trims the question and checks it is non-empty and at most maxLen
// characters. A non-positive maxLen uses MaxQuestionLength.
func (r *AskRequest) Validate(maxLen int) error {
	if maxLen <= 0 {
		maxLen = MaxQuestionLength
	}
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return ErrEmptyQuestion
	}
	if utf8.RuneCountInString(r.Question) > maxLen {
		return ErrQuestionTooLong
	}
	r.TopFolders = clamp(r.TopFolders, maxTopFolders)
	r.TopChunks = clamp(r.TopChunks, maxTopChunks)
	return nil
}

// RetrieveRequest runs retrieval without generating an answer.
type RetrieveRequest struct {
	Query      string `json:"query"`
	TopFolders int    `json:"top_folders,omitempty"`
	TopChunks  int    `json:"top_chunks,omitempty"`
}

// Validate ensures the query is not blank and caps the limits. Zero limits are
// left for the retriever to default.
func (r *RetrieveRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return ErrEmptyQuery
	}
	r.TopFolders = clamp(r.TopFolders, maxTopFolders)
	r.TopChunks = clamp(r.TopChunks, maxTopChunks)
	return nil
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
