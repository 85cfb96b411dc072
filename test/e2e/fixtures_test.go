package e2e

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/extract"
)

func TestWriteMinimalFile_extractsSample(t *testing.T) {
	e := extract.NewExtractor()
	const sample = "E2E retrievable content"
	for _, ext := range SupportedFileExtensions {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			content, err := WriteMinimalFile(ext, sample)
			if err != nil {
				t.Fatalf("WriteMinimalFile: %v", err)
			}
			got, err := e.Text(content, ext)
			if err != nil {
				t.Fatalf("Text: %v", err)
			}
			if !strings.Contains(got, sample) {
				t.Errorf("extracted text %q does not contain %q", got, sample)
			}
		})
	}
}

func TestWriteMinimalFile_blankIsEmptyDocument(t *testing.T) {
	e := extract.NewExtractor()
	for _, ext := range SupportedFileExtensions {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			content, err := WriteMinimalFile(ext, "  ")
			if err != nil {
				t.Fatalf("WriteMinimalFile: %v", err)
			}
			if _, err := e.Text(content, ext); !errors.Is(err, extract.ErrEmptyDocument) {
				t.Fatalf("expected ErrEmptyDocument, got %v", err)
			}
		})
	}
}

func TestWriteMinimalFile_blankFileLoadError(t *testing.T) {
	e := extract.NewExtractor()
	dir := t.TempDir()
	for _, ext := range SupportedFileExtensions {
		content, err := WriteMinimalFile(ext, "")
		if err != nil {
			t.Fatalf("%s: WriteMinimalFile: %v", ext, err)
		}
		path := filepath.Join(dir, "blank"+ext)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
		_, err = e.Load(path)
		var loadErr *extract.LoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("%s: expected *LoadError, got %v", ext, err)
		}
		if loadErr.Path != path || !errors.Is(err, extract.ErrEmptyDocument) {
			t.Errorf("%s: got path %q err %v", ext, loadErr.Path, loadErr.Err)
		}
	}
}

func TestWriteMinimalFile_corruptArchiveIsNotEmpty(t *testing.T) {
	e := extract.NewExtractor()
	for _, ext := range []string{".docx", ".pptx", ".odp", ".ods", ".xlsx"} {
		_, err := e.Text([]byte("not an archive"), ext)
		if err == nil {
			t.Fatalf("%s: expected error for corrupt archive", ext)
		}
		if errors.Is(err, extract.ErrEmptyDocument) {
			t.Errorf("%s: corrupt archive reported as empty document", ext)
		}
	}
}

func TestSupportedFileExtensions_indexedByDefault(t *testing.T) {
	defaults := map[string]bool{}
	for _, ext := range config.DefaultExtensions {
		defaults[ext] = true
	}
	for _, ext := range SupportedFileExtensions {
		if !extract.Supported(ext) {
			t.Errorf("%s has no reader", ext)
		}
		if !defaults[ext] {
			t.Errorf("%s missing from default extensions", ext)
		}
	}
}
