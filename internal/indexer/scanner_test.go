package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fileLoader reads files verbatim and fails on names containing "broken".
type fileLoader struct{}

func (fileLoader) Load(path string) (string, error) {
	if strings.Contains(filepath.Base(path), "broken") {
		return "", errors.New("corrupt")
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

var exts = []string{".txt", ".pdf", ".docx"}

func TestScanner_MissingRoot(t *testing.T) {
	s := NewScanner(fileLoader{}, exts)
	got := s.Scan(filepath.Join(t.TempDir(), "absent"))
	if len(got) != 0 {
		t.Errorf("missing root should yield empty structure, got %v", got)
	}
}

func TestScanner_Subfolders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "policies", "leave.txt"), "leave policy")
	writeFile(t, filepath.Join(root, "policies", "travel.txt"), "travel policy")
	writeFile(t, filepath.Join(root, "tech", "api.txt"), "api docs")
	writeFile(t, filepath.Join(root, "tech", "nested", "deep.txt"), "too deep")
	writeFile(t, filepath.Join(root, "loose.txt"), "ignored when folders exist")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}

	got := NewScanner(fileLoader{}, exts).Scan(root)
	if folders := got.Folders(); len(folders) != 2 || folders[0] != "policies" || folders[1] != "tech" {
		t.Fatalf("folders = %v", folders)
	}
	if got["policies"]["leave.txt"] != "leave policy" {
		t.Errorf("leave.txt = %q", got["policies"]["leave.txt"])
	}
	if _, ok := got["tech"]["deep.txt"]; ok {
		t.Error("nested files below a folder must not be loaded")
	}
	if files := got.Files("policies"); len(files) != 2 || files[0] != "leave.txt" {
		t.Errorf("files = %v", files)
	}
}

func TestScanner_FlatRootUsesGeneral(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "b.txt"), "beta")

	got := NewScanner(fileLoader{}, exts).Scan(root)
	if len(got) != 1 || len(got[GeneralFolder]) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestScanner_SkipsAndWarns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "docs", "good.txt"), "fine")
	writeFile(t, filepath.Join(root, "docs", "broken.txt"), "unreadable")
	writeFile(t, filepath.Join(root, "docs", "image.png"), "binary")
	writeFile(t, filepath.Join(root, "docs", ".hidden.txt"), "hidden")

	core, logs := observer.New(zap.WarnLevel)
	got := NewScanner(fileLoader{}, exts, WithLogger(zap.New(core))).Scan(root)
	if len(got["docs"]) != 1 || got["docs"]["good.txt"] != "fine" {
		t.Fatalf("got %v", got)
	}
	if logs.FilterMessage("skipping unreadable document").Len() != 1 {
		t.Error("expected a warning for the unreadable document")
	}
	if logs.FilterMessage("skipping unsupported file").Len() != 1 {
		t.Error("expected a warning for the unsupported file")
	}
}

func TestScanner_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hr", "b.txt"), "b")
	writeFile(t, filepath.Join(root, "hr", "a.pdf"), "not really a pdf")
	writeFile(t, filepath.Join(root, "misc", "notes.bin"), "skip")

	got, err := NewScanner(fileLoader{}, exts).List(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got["hr"]) != 2 || got["hr"][0] != "a.pdf" {
		t.Errorf("got %v", got)
	}
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{".txt", true},
		{".TXT", true},
		{"pdf", true},
		{".png", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ExtensionAllowed(tt.ext, exts); got != tt.want {
			t.Errorf("ExtensionAllowed(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}
