// Package extract turns document files into plain text for indexing.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument is returned when a file yields no text.
	ErrEmptyDocument = errors.New("document contains no text")
)

// LoadError reports why a single document could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type readerFunc func(content []byte) (string, error)

var readers = map[string]readerFunc{
	".txt":  readPlain,
	".md":   readPlain,
	".pdf":  readPDF,
	".docx": readDOCX,
	".pptx": readPPTX,
	".xlsx": readSpreadsheet,
	".odp":  readODF,
	".ods":  readODF,
	".odt":  readWithCat,
	".rtf":  readWithCat,
}

// Extractor loads plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot, any case) has a reader.
func Supported(ext string) bool {
	_, ok := readers[strings.ToLower(ext)]
	return ok
}

// Load reads the file at path and returns its text. Every failure is a *LoadError.
func (e *Extractor) Load(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{Path: path, Err: err}
	}
	text, err := e.Text(content, filepath.Ext(path))
	if err != nil {
		return "", &LoadError{Path: path, Err: err}
	}
	return text, nil
}

// Text extracts text from content according to ext.
func (e *Extractor) Text(content []byte, ext string) (string, error) {
	read, ok := readers[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	text, err := read(content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
