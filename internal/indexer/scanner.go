package indexer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// GeneralFolder holds the documents of a root that has no subdirectories.
const GeneralFolder = "general"

// Loader returns the plain text of one document.
type Loader interface {
	Load(path string) (string, error)
}

// Structure maps folder name to filename to document text.
type Structure map[string]map[string]string

// Folders returns the folder names in sorted order.
func (s Structure) Folders() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Files returns the filenames of folder in sorted order.
func (s Structure) Files(folder string) []string {
	docs := s[folder]
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scanner groups the documents under a root directory by category folder.
type Scanner struct {
	loader     Loader
	extensions []string
	logger     *zap.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the logger used for skipped-file warnings.
func WithLogger(l *zap.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner creates a scanner that loads files whose extension is in extensions.
func NewScanner(loader Loader, extensions []string, opts ...ScannerOption) *Scanner {
	s := &Scanner{loader: loader, extensions: extensions, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan loads every document under root. Each immediate subdirectory is a folder
// and only files directly inside it are read. A root without subdirectories is
// read as the single folder GeneralFolder. A missing root yields an empty
// Structure. Files that cannot be loaded are logged and skipped.
func (s *Scanner) Scan(root string) Structure {
	out := Structure{}
	folders, err := s.layout(root)
	if err != nil {
		s.logger.Warn("scan root failed", zap.String("root", root), zap.Error(err))
		return out
	}
	for name, dir := range folders {
		docs := map[string]string{}
		for _, path := range s.files(dir) {
			text, err := s.loader.Load(path)
			if err != nil {
				s.logger.Warn("skipping unreadable document", zap.String("path", path), zap.Error(err))
				continue
			}
			docs[filepath.Base(path)] = text
		}
		if len(docs) > 0 {
			out[name] = docs
		}
	}
	return out
}

// List returns folder name to sorted filenames under root without loading any
// document. Folders without documents are omitted.
func (s *Scanner) List(root string) (map[string][]string, error) {
	folders, err := s.layout(root)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(folders))
	for name, dir := range folders {
		var names []string
		for _, path := range s.files(dir) {
			names = append(names, filepath.Base(path))
		}
		if len(names) > 0 {
			out[name] = names
		}
	}
	return out, nil
}

// layout maps folder names to their directories.
func (s *Scanner) layout(root string) (map[string]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	folders := map[string]string{}
	for _, e := range entries {
		if e.IsDir() && !hidden(e.Name()) {
			folders[e.Name()] = filepath.Join(root, e.Name())
		}
	}
	if len(folders) == 0 {
		folders[GeneralFolder] = root
	}
	return folders, nil
}

// files returns the sorted paths of indexable files directly inside dir.
func (s *Scanner) files(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("read folder failed", zap.String("dir", dir), zap.Error(err))
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || hidden(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !ExtensionAllowed(filepath.Ext(e.Name()), s.extensions) {
			s.logger.Warn("skipping unsupported file", zap.String("path", path))
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// ExtensionAllowed reports whether ext is in allowed, ignoring case and leading dots.
// An empty allowed list accepts nothing.
func ExtensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
