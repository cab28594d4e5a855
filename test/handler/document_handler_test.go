package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collinsayidan/Collinalitics/internal/model"
	"github.com/collinsayidan/Collinalitics/internal/pkg/errcode"
)

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestDocumentLifecycle(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := postJSON(t, router, "/api/v1/documents", map[string]string{
		"title":   "Refund Policy",
		"content": "Refunds are accepted within thirty days of purchase.",
		"tags":    "billing",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope(t, resp.Body.Bytes())
	var created model.Document
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "refund-policy", created.Slug)
	require.NotEmpty(t, created.ID)

	// Duplicate slug is a conflict.
	resp = postJSON(t, router, "/api/v1/documents", map[string]string{
		"title":   "Refund Policy",
		"content": "another body",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope(t, resp.Body.Bytes())
	require.Equal(t, errcode.ErrConflict, env.Code)

	// Missing content is invalid.
	resp = postJSON(t, router, "/api/v1/documents", map[string]string{"title": "Empty"})
	env = decodeEnvelope(t, resp.Body.Bytes())
	require.Equal(t, errcode.ErrInvalid, env.Code)

	resp = get(t, router, "/api/v1/documents/"+created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope(t, resp.Body.Bytes())
	var fetched model.Document
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	require.Equal(t, created.ID, fetched.ID)

	resp = get(t, router, "/api/v1/documents/nope")
	env = decodeEnvelope(t, resp.Body.Bytes())
	require.Equal(t, errcode.ErrNotFound, env.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp = get(t, router, "/api/v1/documents/"+created.ID)
	env = decodeEnvelope(t, resp.Body.Bytes())
	require.Equal(t, errcode.ErrNotFound, env.Code)
}

func TestCorpusRebuildAndStatus(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := postJSON(t, router, "/api/v1/documents", map[string]string{
		"title":   "Refund Policy",
		"content": "Refunds are accepted within thirty days.",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = postJSON(t, router, "/api/v1/documents", map[string]string{
		"title":   "Shipping Guide",
		"content": "Orders ship within two business days.",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = postJSON(t, router, "/api/v1/corpus/rebuild", map[string]string{})
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope(t, resp.Body.Bytes())
	var rebuilt struct {
		Embeddings int `json:"embeddings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rebuilt))
	require.Equal(t, 2, rebuilt.Embeddings)

	resp = get(t, router, "/api/v1/corpus/status")
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope(t, resp.Body.Bytes())
	var status struct {
		Documents  int    `json:"documents"`
		Embeddings int    `json:"embeddings"`
		ModelName  string `json:"model_name"`
		Dimension  int    `json:"dimension"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	require.Equal(t, 2, status.Documents)
	require.Equal(t, 2, status.Embeddings)
	require.Equal(t, "stub-letter-freq", status.ModelName)
	require.Equal(t, 26, status.Dimension)
}
