package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/collinsayidan/Collinalitics/internal/chunker"
	"github.com/collinsayidan/Collinalitics/internal/handler"
	"github.com/collinsayidan/Collinalitics/internal/middleware"
	"github.com/collinsayidan/Collinalitics/internal/repo"
	"github.com/collinsayidan/Collinalitics/internal/service"
	"github.com/collinsayidan/Collinalitics/test/testutil"
)

// stubEmbedder maps text to letter frequencies, which is deterministic
// and makes texts sharing words score high under cosine similarity.
type stubEmbedder struct{}

func letterFreq(text string) []float32 {
	vec := make([]float32, 26)
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			vec[r-'a']++
		case r >= 'A' && r <= 'Z':
			vec[r-'A']++
		}
	}
	return vec
}

func (stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return letterFreq(text), nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, letterFreq(text))
	}
	return out, nil
}

func (stubEmbedder) ModelName() string {
	return "stub-letter-freq"
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "stubbed answer", nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	testutil.Reset(t, db, "interactions", "knowledge_embeddings", "corpus_meta", "knowledge_documents")

	docRepo := repo.NewDocumentRepo(db)
	embeddingRepo := repo.NewEmbeddingRepo(db)
	interactionRepo := repo.NewInteractionRepo(db)

	embedder := stubEmbedder{}
	corpus := service.NewCorpusService(docRepo, embeddingRepo, embedder, chunker.NewMarkdownChunker(2000))
	retriever := service.NewRetriever(embedder, embeddingRepo, docRepo, service.RetrieverConfig{TopK: 4})
	answers := service.NewAnswerService(retriever, stubGenerator{}, interactionRepo, service.AnswerConfig{MaxContextChars: 6000})

	deps := handler.RouterDeps{
		Ask:       handler.NewAskHandler(answers),
		Documents: handler.NewDocumentHandler(corpus),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, cleanup
}
