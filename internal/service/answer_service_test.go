package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collinsayidan/Collinalitics/internal/model"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
	"github.com/collinsayidan/Collinalitics/internal/store/memory"
)

func buildAnswerFixture(t *testing.T) (*AnswerService, *fakeGenerator, *fakeInteractionLog) {
	t.Helper()
	retriever, _, _ := buildRetrieverFixture(t)
	generator := &fakeGenerator{reply: "Refunds are accepted within 30 days."}
	interactions := &fakeInteractionLog{}
	answers := NewAnswerService(retriever, generator, interactions, AnswerConfig{MaxContextChars: 6000})
	return answers, generator, interactions
}

func TestAnswerGroundsPromptAndRecordsInteraction(t *testing.T) {
	answers, generator, interactions := buildAnswerFixture(t)

	result, err := answers.Answer(context.Background(), "refund policy", 3)
	require.NoError(t, err)
	require.Equal(t, "Refunds are accepted within 30 days.", result.Answer)
	require.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, result.SourceIDs)

	require.Contains(t, generator.lastPrompt, "Use ONLY the context below")
	require.Contains(t, generator.lastPrompt, "[source: Refund Policy]")
	require.Contains(t, generator.lastPrompt, "refunds within 30 days")
	require.Contains(t, generator.lastPrompt, "QUESTION: refund policy")

	require.Len(t, interactions.items, 1)
	require.Equal(t, "refund policy", interactions.items[0].Query)
	require.Equal(t, result.SourceIDs, interactions.items[0].SourceIDs)
	require.NotEmpty(t, interactions.items[0].ID)
}

func TestAnswerEmptyCorpusStillAsksTheModel(t *testing.T) {
	docs := &fakeDocStore{}
	embedder := &fakeEmbedder{fallbackVec: []float32{1, 0}}
	retriever := NewRetriever(embedder, memory.NewIndex(), docs, RetrieverConfig{TopK: 4})
	generator := &fakeGenerator{reply: "I do not know."}
	interactions := &fakeInteractionLog{}
	answers := NewAnswerService(retriever, generator, interactions, AnswerConfig{})

	result, err := answers.Answer(context.Background(), "anything at all", 4)
	require.NoError(t, err)
	require.Equal(t, "I do not know.", result.Answer)
	require.Empty(t, result.SourceIDs)
	require.Equal(t, 1, generator.calls)
	require.Contains(t, generator.lastPrompt, "CONTEXT:\n\n")
}

func TestAnswerRetrievalFailureSkipsGenerationAndAudit(t *testing.T) {
	retriever, embedder, _ := buildRetrieverFixture(t)
	embedder.err = appErr.NewVectorizationError(true, errors.New("rate limited"))
	generator := &fakeGenerator{reply: "never"}
	interactions := &fakeInteractionLog{}
	answers := NewAnswerService(retriever, generator, interactions, AnswerConfig{})

	_, err := answers.Answer(context.Background(), "refund policy", 3)
	require.True(t, appErr.IsVectorization(err))
	require.True(t, appErr.IsTransient(err))
	require.Zero(t, generator.calls)
	require.Empty(t, interactions.items)
}

func TestAnswerGenerationFailureLeavesNoAuditRow(t *testing.T) {
	answers, generator, interactions := buildAnswerFixture(t)
	generator.err = appErr.NewGenerationError(false, errors.New("prompt rejected"))

	_, err := answers.Answer(context.Background(), "refund policy", 3)
	require.True(t, appErr.IsGeneration(err))
	require.False(t, appErr.IsTransient(err))
	require.Empty(t, interactions.items)
}

func TestAnswerEmptyModelReplyIsTransient(t *testing.T) {
	answers, generator, interactions := buildAnswerFixture(t)
	generator.reply = "   "

	_, err := answers.Answer(context.Background(), "refund policy", 3)
	require.True(t, appErr.IsGeneration(err))
	require.True(t, appErr.IsTransient(err))
	require.Empty(t, interactions.items)
}

func TestAnswerFailedAuditWriteIsAnError(t *testing.T) {
	answers, generator, interactions := buildAnswerFixture(t)
	interactions.createErr = errors.New("db down")

	result, err := answers.Answer(context.Background(), "refund policy", 3)
	require.Nil(t, result)
	require.ErrorContains(t, err, "record interaction")
	require.Equal(t, 1, generator.calls)
	require.Empty(t, interactions.items)
}

func TestAnswerHistoryListsRecorded(t *testing.T) {
	answers, _, interactions := buildAnswerFixture(t)
	interactions.items = append(interactions.items, model.Interaction{ID: "i-1", Query: "q", Answer: "a"})

	items, err := answers.History(context.Background(), 0, -5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "i-1", items[0].ID)
}
