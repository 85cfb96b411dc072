package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/docqa/internal/functions"
	"go.uber.org/zap"
)

type functionView struct {
	Name      string            `json:"name"`
	Params    []functions.Param `json:"params"`
	Signature string            `json:"signature"`
	Doc       string            `json:"doc"`
}

func viewOf(info functions.Info) functionView {
	params := info.Params
	if params == nil {
		params = []functions.Param{}
	}
	return functionView{Name: info.Name, Params: params, Signature: info.Signature(), Doc: info.Doc}
}

type callRequest struct {
	Args functions.Args `json:"args"`
}

func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	if s.functions == nil {
		s.respondError(w, http.StatusNotImplemented, "functions not enabled")
		return
	}
	infos := s.functions.List()
	views := make([]functionView, len(infos))
	for i, info := range infos {
		views[i] = viewOf(info)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_functions": len(views),
		"functions":       views,
	})
}

func (s *Server) handleGetFunction(w http.ResponseWriter, r *http.Request) {
	if s.functions == nil {
		s.respondError(w, http.StatusNotImplemented, "functions not enabled")
		return
	}
	name := chi.URLParam(r, "*")
	info, ok := s.functions.Lookup(name)
	if !ok {
		s.respondUnknownFunction(w, name)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(info))
}

func (s *Server) handleCallFunction(w http.ResponseWriter, r *http.Request) {
	if s.functions == nil {
		s.respondError(w, http.StatusNotImplemented, "functions not enabled")
		return
	}
	name := functions.NormalizeName(chi.URLParam(r, "*"))
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.functions.Call(r.Context(), name, req.Args)
	switch {
	case errors.Is(err, functions.ErrNotFound):
		s.respondUnknownFunction(w, name)
		return
	case errors.Is(err, functions.ErrInvalidArgs):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("function call failed", zap.String("function", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"function": name,
		"result":   result,
	})
}

func (s *Server) respondUnknownFunction(w http.ResponseWriter, name string) {
	s.respondJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":     "function not found: " + name,
		"available": s.functions.Names(),
	})
}
