package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/models"
	"go.uber.org/zap"
)

const multipartOverhead = 1 << 20

var unsafeFolderChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// SanitizeFolder strips everything but letters, digits, underscores, hyphens
// and spaces from a user supplied folder name, then turns spaces into
// underscores. An empty result becomes the general folder.
func SanitizeFolder(name string) string {
	clean := strings.TrimSpace(unsafeFolderChars.ReplaceAllString(name, ""))
	clean = strings.ReplaceAll(clean, " ", "_")
	if clean == "" {
		return indexer.GeneralFolder
	}
	return clean
}

func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	listings := []models.FolderListing{}
	for _, root := range s.corpus.Roots {
		folders, err := s.lister.List(root.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logger.Error("list folders failed", zap.String("root", root.Name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		names := make([]string, 0, len(folders))
		for name := range folders {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			listings = append(listings, models.FolderListing{Root: root.Name, Folder: name, Files: folders[name]})
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"folders": listings})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	root, ok := s.corpus.Root(s.corpus.UploadRoot)
	if !ok {
		s.respondError(w, http.StatusNotImplemented, "uploads not configured")
		return
	}
	maxBytes := int64(s.corpus.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", s.corpus.MaxUploadMB))
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) || strings.HasPrefix(filename, ".") {
		s.respondError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !indexer.ExtensionAllowed(filepath.Ext(filename), s.corpus.Extensions) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)))
		return
	}
	if header.Size > maxBytes {
		s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", s.corpus.MaxUploadMB))
		return
	}

	folder := SanitizeFolder(r.FormValue("folder"))
	dir := filepath.Join(root.Path, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("upload: create folder failed", zap.String("dir", dir), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not create folder")
		return
	}
	dest := filepath.Join(dir, filename)
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			s.respondError(w, http.StatusConflict, fmt.Sprintf("%s already exists in %s", filename, folder))
			return
		}
		s.logger.Error("upload: create file failed", zap.String("path", dest), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not store file")
		return
	}
	n, copyErr := io.Copy(out, file)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dest)
		s.logger.Error("upload: write failed", zap.String("path", dest), zap.Error(errors.Join(copyErr, closeErr)))
		s.respondError(w, http.StatusInternalServerError, "could not store file")
		return
	}

	s.logger.Info("document uploaded", zap.String("root", root.Name), zap.String("folder", folder),
		zap.String("file", filename), zap.Int64("bytes", n))
	s.rebuilds.Notify()
	s.respondJSON(w, http.StatusCreated, models.UploadResult{
		Root:     root.Name,
		Folder:   folder,
		Filename: filename,
		Size:     n,
		StoredAt: time.Now().UTC(),
		Message:  "uploaded, index will refresh shortly",
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	root, ok := s.corpus.Root(chi.URLParam(r, "root"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "root not found")
		return
	}
	folder := chi.URLParam(r, "folder")
	file := chi.URLParam(r, "file")

	base, err := filepath.Abs(root.Path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// A root without subdirectories keeps its documents at the top level.
	candidates := []string{filepath.Join(base, folder, file)}
	if folder == indexer.GeneralFolder {
		candidates = append(candidates, filepath.Join(base, file))
	}
	for _, path := range candidates {
		if !within(base, path) {
			s.respondError(w, http.StatusForbidden, "access denied")
			return
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		http.ServeFile(w, r, path)
		return
	}
	s.respondError(w, http.StatusNotFound, "document not found")
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
