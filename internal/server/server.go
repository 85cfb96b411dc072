// Package server provides the HTTP API for docqa.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/functions"
	"github.com/hyperjump/docqa/internal/index"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/retrieval"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

// Answerer answers questions.
type Answerer interface {
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
}

// Retriever runs retrieval without generation.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topFolders, topChunks int) []retrieval.Result
}

// Rebuilds schedules index rebuilds.
type Rebuilds interface {
	Notify()
	TriggerNow()
	Builds() int64
}

// FolderLister lists the documents under a root without loading them.
type FolderLister interface {
	List(root string) (map[string][]string, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	QA        Answerer
	Retriever Retriever
	Index     *index.Store
	Rebuilds  Rebuilds
	Storage   storage.Storage
	Lister    FolderLister
	Corpus    *config.CorpusConfig
	Functions *functions.Registry
	Logger    *zap.Logger
}

// Server is the HTTP server for the docqa API.
type Server struct {
	qa        Answerer
	retriever Retriever
	index     *index.Store
	rebuilds  Rebuilds
	storage   storage.Storage
	lister    FolderLister
	corpus    *config.CorpusConfig
	functions *functions.Registry
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.ServerConfig) *Server {
	return &Server{
		qa:        deps.QA,
		retriever: deps.Retriever,
		index:     deps.Index,
		rebuilds:  deps.Rebuilds,
		storage:   deps.Storage,
		lister:    deps.Lister,
		corpus:    deps.Corpus,
		functions: deps.Functions,
		config:    cfg,
		logger:    utils.OrNop(deps.Logger),
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Post("/ask", s.handleAsk)
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/reload", s.handleReload)
		r.Get("/builds", s.handleBuilds)
		r.Get("/folders", s.handleFolders)
		r.Post("/documents", s.handleUpload)
		r.Get("/documents/{root}/{folder}/{file}", s.handleGetDocument)
		r.Get("/functions", s.handleListFunctions)
		r.Get("/functions/*", s.handleGetFunction)
		r.Post("/functions/*", s.handleCallFunction)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
