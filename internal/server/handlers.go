package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
	"go.uber.org/zap"
)

const defaultBuildsLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.index.Current()
	stats := snap.Stats()
	resp := map[string]interface{}{
		"status":        "ok",
		"ready":         s.index.Ready(),
		"total_chunks":  stats.TotalChunks,
		"total_folders": len(stats.Folders),
	}
	if built := snap.BuiltAt(); !built.IsZero() {
		resp["last_update"] = built
	}
	fn := map[string]interface{}{"enabled": s.functions != nil, "total": 0}
	if s.functions != nil {
		fn["total"] = s.functions.Len()
	}
	resp["functions"] = fn
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ask request", zap.String("strategy", req.Strategy))
	resp, err := s.qa.Ask(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuestion) || errors.Is(err, models.ErrQuestionTooLong) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req models.RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	results := s.retriever.Retrieve(r.Context(), req.Query, req.TopFolders, req.TopChunks)
	resp := models.RetrieveResponse{Query: req.Query, Results: make([]models.Chunk, len(results)), Total: len(results)}
	for i, res := range results {
		resp.Results[i] = models.Chunk{Root: res.Root, Folder: res.Folder, Filename: res.Filename, Score: res.Score, Text: res.Text}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("manual rebuild requested")
	s.rebuilds.TriggerNow()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild scheduled"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.index.Current()
	stats := snap.Stats()
	resp := models.IndexStatus{
		Ready:        s.index.Ready(),
		TotalChunks:  stats.TotalChunks,
		TotalFiles:   stats.TotalFiles,
		TotalFolders: len(stats.Folders),
		Folders:      make(map[string]models.FolderStats, len(stats.Folders)),
	}
	for key, fs := range stats.Folders {
		resp.Folders[key] = models.FolderStats{Chunks: fs.Chunks, Files: fs.Files}
	}
	if emb := snap.Embedder(); emb != nil {
		resp.Embedder = emb.Name()
	}
	if built := snap.BuiltAt(); !built.IsZero() {
		resp.BuiltAt = &built
	}
	if s.rebuilds != nil {
		resp.Builds = s.rebuilds.Builds()
	}
	if s.storage != nil {
		n, err := s.storage.CountQuestions(r.Context())
		if err != nil {
			s.logger.Error("stats: count questions failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Questions = n
	}
	if s.corpus != nil {
		paths := make([]string, len(s.corpus.Roots))
		for i, root := range s.corpus.Roots {
			paths[i] = root.Path
		}
		n, err := storage.DiskUsageBytes(paths...)
		if err != nil {
			s.logger.Warn("stats: disk usage failed", zap.Error(err))
		}
		resp.CorpusBytes = n
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	limit := defaultBuildsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "storage not configured")
		return
	}
	builds, err := s.storage.ListBuilds(r.Context(), limit)
	if err != nil {
		s.logger.Error("list builds failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"builds": builds})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
