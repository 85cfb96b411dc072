// Package qa answers questions from retrieved document chunks.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/retrieval"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

const (
	// NoDocumentsAnswer is returned when retrieval finds nothing.
	NoDocumentsAnswer = "No relevant documents found. Please upload documents first."

	snippetLength = 150
)

// Retriever finds the chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topFolders, topChunks int) []retrieval.Result
}

// QuestionRecorder logs answered questions.
type QuestionRecorder interface {
	RecordQuestion(ctx context.Context, rec *storage.QuestionRecord) error
}

// FunctionRunner runs the helper functions an answer or question asks for.
type FunctionRunner interface {
	PromptHint() string
	Apply(ctx context.Context, question, answer string) (string, []models.FunctionOutput)
}

// Config holds answer defaults.
type Config struct {
	Strategy          string
	TopFolders        int
	TopChunks         int
	MaxQuestionLength int
}

// Service answers questions.
type Service struct {
	retriever Retriever
	generator llm.Generator
	recorder  QuestionRecorder
	functions FunctionRunner
	cfg       Config
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFunctions lists fr's functions in prompts and runs the calls found in
// questions and answers.
func WithFunctions(fr FunctionRunner) Option {
	return func(s *Service) { s.functions = fr }
}

// NewService creates a service. recorder and logger may be nil.
func NewService(retriever Retriever, generator llm.Generator, recorder QuestionRecorder, cfg Config, logger *zap.Logger, opts ...Option) *Service {
	if !llm.ValidStrategy(cfg.Strategy) {
		cfg.Strategy = llm.StrategyDirect
	}
	s := &Service{
		retriever: retriever,
		generator: generator,
		recorder:  recorder,
		cfg:       cfg,
		logger:    utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask validates req, retrieves context and generates an answer. Only an
// invalid request is an error; generation failures are reported in the answer.
func (s *Service) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	if err := req.Validate(s.cfg.MaxQuestionLength); err != nil {
		return nil, err
	}
	started := time.Now()

	strategy := req.Strategy
	if !llm.ValidStrategy(strategy) {
		strategy = s.cfg.Strategy
	}
	topFolders, topChunks := req.TopFolders, req.TopChunks
	if topFolders == 0 {
		topFolders = s.cfg.TopFolders
	}
	if topChunks == 0 {
		topChunks = s.cfg.TopChunks
	}

	resp := &models.AskResponse{Question: req.Question, Strategy: strategy, Sources: []models.Source{}}
	results := s.retriever.Retrieve(ctx, req.Question, topFolders, topChunks)
	failed := false

	if len(results) == 0 {
		resp.Answer = NoDocumentsAnswer
	} else {
		prompt := llm.BuildPrompt(strategy, BuildContext(results), req.Question)
		if s.functions != nil {
			if hint := s.functions.PromptHint(); hint != "" {
				prompt += "\n\n" + hint
			}
		}
		raw, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			s.logger.Error("answer generation failed", zap.String("strategy", strategy), zap.Error(err))
			resp.Answer = fmt.Sprintf("Error generating answer: %v", err)
			failed = true
		} else {
			resp.Thinking, resp.Answer = llm.SplitThinking(raw)
		}
		resp.Sources = Sources(results)
	}
	if s.functions != nil && !failed {
		resp.Answer, resp.Functions = s.functions.Apply(ctx, req.Question, resp.Answer)
	}

	resp.LatencyMS = time.Since(started).Milliseconds()
	s.logger.Info("question answered",
		zap.String("strategy", strategy),
		zap.Int("sources", len(resp.Sources)),
		zap.Int("functions", len(resp.Functions)),
		zap.Int64("latency_ms", resp.LatencyMS),
		zap.Bool("failed", failed),
	)
	s.record(ctx, &storage.QuestionRecord{
		AskedAt:   started,
		Question:  req.Question,
		Strategy:  strategy,
		Sources:   len(resp.Sources),
		LatencyMS: resp.LatencyMS,
		Failed:    failed,
	})
	return resp, nil
}

func (s *Service) record(ctx context.Context, rec *storage.QuestionRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordQuestion(ctx, rec); err != nil {
		s.logger.Warn("failed to record question", zap.Error(err))
	}
}

// BuildContext formats results as "[From folder/file]" blocks separated by a
// blank line.
func BuildContext(results []retrieval.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[From %s/%s]\n%s", r.Folder, r.Filename, r.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Sources converts results to answer sources with short snippets.
func Sources(results []retrieval.Result) []models.Source {
	out := make([]models.Source, len(results))
	for i, r := range results {
		out[i] = models.Source{
			Root:     r.Root,
			Folder:   r.Folder,
			Filename: r.Filename,
			Score:    r.Score,
			Snippet:  utils.Snippet(r.Text, snippetLength),
		}
	}
	return out
}
