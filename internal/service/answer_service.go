package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/ai"
	"github.com/collinsayidan/Collinalitics/internal/model"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
	"github.com/collinsayidan/Collinalitics/internal/pkg/timeutil"
)

const promptTemplate = `You are the Collinalitics assistant.
Use ONLY the context below to answer the question.
If the context does not contain the answer, say you do not know.

CONTEXT:
%s

QUESTION: %s
ANSWER:`

type AnswerConfig struct {
	MaxContextChars int
	Timeout         time.Duration
}

// AnswerService runs the full question pipeline: retrieve, assemble the
// context, generate, and record the interaction.
type AnswerService struct {
	retriever    *Retriever
	generator    ai.IGenerator
	interactions InteractionLog
	cfg          AnswerConfig
}

func NewAnswerService(retriever *Retriever, generator ai.IGenerator, interactions InteractionLog, cfg AnswerConfig) *AnswerService {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 6000
	}
	return &AnswerService{
		retriever:    retriever,
		generator:    generator,
		interactions: interactions,
		cfg:          cfg,
	}
}

// Answer resolves a question against the corpus. An empty corpus is not
// an error: the model is still asked, with an empty context, and answers
// that it does not know. The interaction record is part of the success
// path; a question that cannot be audited is reported as failed.
func (s *AnswerService) Answer(ctx context.Context, query string, k int) (*model.AnswerResult, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	query = strings.TrimSpace(query)
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))

	chunks, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	contextText, sourceIDs := Assemble(chunks, s.cfg.MaxContextChars)
	prompt := fmt.Sprintf(promptTemplate, contextText, query)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, appErr.NewGenerationError(true, fmt.Errorf("model returned empty answer"))
	}

	item := &model.Interaction{
		ID:        newID(),
		Query:     query,
		Answer:    answer,
		SourceIDs: sourceIDs,
		Ctime:     timeutil.NowUnix(),
	}
	if err := s.interactions.Create(ctx, item); err != nil {
		logger.Error("failed to record interaction", zap.Error(err))
		return nil, fmt.Errorf("record interaction: %w", err)
	}
	logger.Info("answered question", zap.Int("sources", len(sourceIDs)), zap.Int("answer_len", len(answer)))
	return &model.AnswerResult{Answer: answer, SourceIDs: sourceIDs}, nil
}

// Search exposes retrieval without generation.
func (s *AnswerService) Search(ctx context.Context, query string, k int) ([]model.RetrievedChunk, error) {
	return s.retriever.Retrieve(ctx, strings.TrimSpace(query), k)
}

// History lists recorded interactions, newest first.
func (s *AnswerService) History(ctx context.Context, limit, offset int) ([]model.Interaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.interactions.List(ctx, limit, offset)
}
